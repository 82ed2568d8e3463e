// Package scope holds the location cascade every report page shares:
// the default scope derived from a user's catalog, the cascade-clearing
// filter update and the narrowing of dependent options.
package scope

import (
	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

// Levels lists the location filter keys from the top of the hierarchy down.
var Levels = []string{
	constants.FilterDistrictID,
	constants.FilterDSID,
	constants.FilterZoneID,
	constants.FilterGNDID,
}

var descendants = map[string][]string{
	constants.FilterDistrictID: {constants.FilterDSID, constants.FilterZoneID, constants.FilterGNDID},
	constants.FilterDSID:       {constants.FilterZoneID, constants.FilterGNDID},
	constants.FilterZoneID:     {constants.FilterGNDID},
}

var enums = map[string]map[string]struct{}{
	constants.FilterMainProgram: {"NP": {}, "ADB": {}, "WB": {}},
	constants.FilterAreaClass:   {"URBAN": {}, "RURAL": {}, "ESTATE": {}},
}

// IsLevel reports whether key is one of the location levels.
func IsLevel(key string) bool {
	for _, l := range Levels {
		if l == key {
			return true
		}
	}
	return false
}

// Descendants returns the keys cleared when key changes.
func Descendants(key string) []string {
	return descendants[key]
}

// ValidValue reports whether value is acceptable for an enum-constrained key.
// Keys without an enum accept anything.
func ValidValue(key, value string) bool {
	allowed, ok := enums[key]
	if !ok {
		return true
	}
	_, ok = allowed[value]
	return ok
}

// ResolveDefaultScope preselects every level whose catalog list has exactly
// one entry. Levels are checked independently of each other.
func ResolveDefaultScope(catalog *domain.LocationCatalog) domain.FilterState {
	state := make(domain.FilterState)
	if catalog == nil {
		return state
	}

	if len(catalog.Districts) == 1 && catalog.Districts[0].DistrictID != "" {
		state[constants.FilterDistrictID] = catalog.Districts[0].DistrictID.String()
	}
	if len(catalog.DSs) == 1 && catalog.DSs[0].DSID != "" {
		state[constants.FilterDSID] = catalog.DSs[0].DSID.String()
	}
	if len(catalog.Zones) == 1 && catalog.Zones[0].ZoneID != "" {
		state[constants.FilterZoneID] = catalog.Zones[0].ZoneID.String()
	}
	if len(catalog.GNDDivisions) == 1 && catalog.GNDDivisions[0].GNDID != "" {
		state[constants.FilterGNDID] = catalog.GNDDivisions[0].GNDID.String()
	}

	return state
}

// UpdateFilter returns a copy of state with key set to value. An empty value
// clears the key. An invalid enum value leaves state as it was. Changing a
// location level clears every level below it.
func UpdateFilter(state domain.FilterState, key, value string) domain.FilterState {
	next := state.Clone()
	if key == "" {
		return next
	}

	if value == "" {
		delete(next, key)
	} else {
		if !ValidValue(key, value) {
			return next
		}
		next[key] = value
	}

	for _, d := range descendants[key] {
		delete(next, d)
	}

	return next
}

// Update is one key/value change.
type Update struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Apply folds updates into state in order.
func Apply(state domain.FilterState, updates ...Update) domain.FilterState {
	next := state.Clone()
	for _, u := range updates {
		next = UpdateFilter(next, u.Key, u.Value)
	}
	return next
}
