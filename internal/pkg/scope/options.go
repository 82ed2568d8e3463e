package scope

import (
	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

// Options are the selectable entries per level under the current filters.
// A level narrowed to one entry is shown read-only by the UI.
type Options struct {
	Districts []domain.District   `json:"districts"`
	DSs       []domain.DSDivision `json:"dss"`
	Zones     []domain.Zone       `json:"zones"`
	GNDs      []domain.GNDivision `json:"gnds"`
}

// NarrowOptions filters each level to the children of the selected parent.
// Districts are never narrowed. Children without a parent id drop out once
// their parent level is selected.
func NarrowOptions(catalog *domain.LocationCatalog, state domain.FilterState) Options {
	if catalog == nil {
		return Options{
			Districts: []domain.District{},
			DSs:       []domain.DSDivision{},
			Zones:     []domain.Zone{},
			GNDs:      []domain.GNDivision{},
		}
	}

	opts := Options{
		Districts: append([]domain.District{}, catalog.Districts...),
	}

	opts.DSs = filter(catalog.DSs, state, constants.FilterDistrictID, func(ds domain.DSDivision) domain.ID {
		return ds.DistrictID
	})
	opts.Zones = filter(catalog.Zones, state, constants.FilterDSID, func(z domain.Zone) domain.ID {
		return z.DSID
	})
	opts.GNDs = filter(catalog.GNDDivisions, state, constants.FilterZoneID, func(g domain.GNDivision) domain.ID {
		return g.ZoneID
	})

	return opts
}

func filter[T any](items []T, state domain.FilterState, parentKey string, parentOf func(T) domain.ID) []T {
	parent, ok := state.Get(parentKey)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !ok || parentOf(it).String() == parent {
			out = append(out, it)
		}
	}
	return out
}
