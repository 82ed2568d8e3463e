package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a location identifier. The welfare API sends ids both as JSON
// numbers and as strings; both decode to the same value. Empty means unset.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
	case data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("decode id %s: %w", data, err)
		}
		*id = ID(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("decode id %s: not a number or string", data)
		}
		*id = ID(data)
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}

type District struct {
	DistrictID   ID     `json:"district_id"`
	DistrictName string `json:"district_name"`
	ProvinceID   ID     `json:"province_id,omitempty"`
}

type DSDivision struct {
	DSID       ID     `json:"ds_id"`
	DSName     string `json:"ds_name"`
	DistrictID ID     `json:"district_id,omitempty"`
}

type Zone struct {
	ZoneID   ID     `json:"zone_id"`
	ZoneName string `json:"zone_name"`
	DSID     ID     `json:"ds_id,omitempty"`
}

type GNDivision struct {
	GNDID   ID     `json:"gnd_id"`
	GNDName string `json:"gnd_name"`
	ZoneID  ID     `json:"zone_id,omitempty"`
}

// LocationCatalog is the set of locations a staff user may see, scoped
// server-side by their role. It is never mutated after it is fetched.
type LocationCatalog struct {
	Districts    []District   `json:"districts"`
	DSs          []DSDivision `json:"dss"`
	Zones        []Zone       `json:"zones"`
	GNDDivisions []GNDivision `json:"gndDivisions"`
}

// DanglingRef is a child whose parent id is not in the catalog.
type DanglingRef struct {
	Level    string `json:"level"`
	ID       ID     `json:"id"`
	ParentID ID     `json:"parent_id"`
}

func (r DanglingRef) String() string {
	return fmt.Sprintf("%s %s -> missing parent %s", r.Level, r.ID, r.ParentID)
}

// Validate lists children that reference a parent the catalog does not
// contain. Children without a parent id are fine.
func (c *LocationCatalog) Validate() []DanglingRef {
	var refs []DanglingRef

	districts := make(map[ID]struct{}, len(c.Districts))
	for _, d := range c.Districts {
		districts[d.DistrictID] = struct{}{}
	}
	dss := make(map[ID]struct{}, len(c.DSs))
	for _, ds := range c.DSs {
		dss[ds.DSID] = struct{}{}
		if _, ok := districts[ds.DistrictID]; ds.DistrictID != "" && !ok {
			refs = append(refs, DanglingRef{Level: "ds", ID: ds.DSID, ParentID: ds.DistrictID})
		}
	}
	zones := make(map[ID]struct{}, len(c.Zones))
	for _, z := range c.Zones {
		zones[z.ZoneID] = struct{}{}
		if _, ok := dss[z.DSID]; z.DSID != "" && !ok {
			refs = append(refs, DanglingRef{Level: "zone", ID: z.ZoneID, ParentID: z.DSID})
		}
	}
	for _, g := range c.GNDDivisions {
		if _, ok := zones[g.ZoneID]; g.ZoneID != "" && !ok {
			refs = append(refs, DanglingRef{Level: "gnd", ID: g.GNDID, ParentID: g.ZoneID})
		}
	}

	return refs
}
