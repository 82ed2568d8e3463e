package reports

import (
	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

// Definition describes one report: where the rows come from, which domain
// filters it forwards and how it is exported.
type Definition struct {
	Kind    domain.ReportKind `json:"kind"`
	Path    string            `json:"path"`
	Filters []string          `json:"filters"`
	Columns []domain.Column   `json:"columns"`
}

var locationColumns = []domain.Column{
	{Key: "district_name", Label: "District"},
	{Key: "ds_name", Label: "DS Division"},
	{Key: "zone_name", Label: "Zone"},
	{Key: "gnd_name", Label: "GN Division"},
}

func withLocation(cols ...domain.Column) []domain.Column {
	out := make([]domain.Column, 0, len(cols)+len(locationColumns))
	out = append(out, cols...)
	return append(out, locationColumns...)
}

// DefaultDefinitions are the portal's reports. Paths can be overridden per kind.
func DefaultDefinitions() map[domain.ReportKind]Definition {
	return map[domain.ReportKind]Definition{
		domain.ReportBeneficiaries: {
			Kind:    domain.ReportBeneficiaries,
			Path:    "/beneficiaries/report",
			Filters: []string{constants.FilterMainProgram, constants.FilterBeneficiary},
			Columns: withLocation(
				domain.Column{Key: "beneficiary_id", Label: "Beneficiary ID"},
				domain.Column{Key: "name", Label: "Name"},
				domain.Column{Key: "nic", Label: "NIC"},
				domain.Column{Key: "beneficiary_type", Label: "Beneficiary Type"},
				domain.Column{Key: "mainProgram", Label: "Main Program"},
			),
		},
		domain.ReportHouseholds: {
			Kind:    domain.ReportHouseholds,
			Path:    "/households/report",
			Filters: []string{constants.FilterMainProgram, constants.FilterAreaClass},
			Columns: withLocation(
				domain.Column{Key: "hh_number", Label: "Household Number"},
				domain.Column{Key: "head_name", Label: "Head of Household"},
				domain.Column{Key: "members_count", Label: "Members"},
				domain.Column{Key: "monthly_income", Label: "Monthly Income"},
				domain.Column{Key: "areaClassification", Label: "Area Classification"},
			),
		},
		domain.ReportGrantUtilization: {
			Kind:    domain.ReportGrantUtilization,
			Path:    "/grant-utilizations/report",
			Filters: []string{constants.FilterMainProgram},
			Columns: withLocation(
				domain.Column{Key: "hh_number", Label: "Household Number"},
				domain.Column{Key: "beneficiary_name", Label: "Beneficiary"},
				domain.Column{Key: "grant_type", Label: "Grant Type"},
				domain.Column{Key: "amount", Label: "Amount"},
				domain.Column{Key: "utilization_date", Label: "Utilization Date"},
				domain.Column{Key: "purpose", Label: "Purpose"},
			),
		},
		domain.ReportBusinessEmpowerment: {
			Kind:    domain.ReportBusinessEmpowerment,
			Path:    "/livelihoods/business-empowerment",
			Filters: []string{constants.FilterMainProgram, constants.FilterEmpowerment},
			Columns: withLocation(
				domain.Column{Key: "beneficiary_name", Label: "Beneficiary"},
				domain.Column{Key: "business_name", Label: "Business"},
				domain.Column{Key: "empowerment_dimension", Label: "Empowerment Dimension"},
				domain.Column{Key: "status", Label: "Status"},
			),
		},
		domain.ReportAreaTypes: {
			Kind:    domain.ReportAreaTypes,
			Path:    "/reports/area-types",
			Filters: []string{constants.FilterMainProgram, constants.FilterAreaClass},
			Columns: withLocation(
				domain.Column{Key: "areaClassification", Label: "Area Classification"},
				domain.Column{Key: "household_count", Label: "Households"},
				domain.Column{Key: "beneficiary_count", Label: "Beneficiaries"},
			),
		},
	}
}

func (d Definition) allowed() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Filters)+4)
	for _, k := range d.Filters {
		set[k] = struct{}{}
	}
	set[constants.FilterDistrictID] = struct{}{}
	set[constants.FilterDSID] = struct{}{}
	set[constants.FilterZoneID] = struct{}{}
	set[constants.FilterGNDID] = struct{}{}
	return set
}
