package domain

type ReportKind string

const (
	ReportBeneficiaries       ReportKind = "beneficiaries"
	ReportHouseholds          ReportKind = "households"
	ReportGrantUtilization    ReportKind = "grant-utilization"
	ReportBusinessEmpowerment ReportKind = "business-empowerment"
	ReportAreaTypes           ReportKind = "area-types"
)

// ReportRow is one decoded upstream row. Rows carry the denormalized
// location names (district_name, ds_name, zone_name, gnd_name) next to ids.
type ReportRow = map[string]interface{}

// Column is one exported CSV column: the row key and its header label.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}
