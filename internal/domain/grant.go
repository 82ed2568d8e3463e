package domain

import (
	"github.com/shopspring/decimal"
)

type GrantType string

const (
	GrantTypeConsumption GrantType = "CONSUMPTION"
	GrantTypeLivelihood  GrantType = "LIVELIHOOD"
	GrantTypeSavings     GrantType = "SAVINGS"
)

type GrantUtilization struct {
	ID              string          `json:"id,omitempty"`
	HHNumber        string          `json:"hh_number" validate:"required"`
	BeneficiaryID   string          `json:"beneficiary_id" validate:"required"`
	GrantType       GrantType       `json:"grant_type" validate:"required,oneof=CONSUMPTION LIVELIHOOD SAVINGS"`
	Amount          decimal.Decimal `json:"amount"`
	UtilizationDate string          `json:"utilization_date" validate:"required,datetime=2006-01-02"`
	Purpose         string          `json:"purpose,omitempty" validate:"max=500"`
	DistrictID      ID              `json:"district_id,omitempty"`
	DSID            ID              `json:"ds_id,omitempty"`
	ZoneID          ID              `json:"zone_id,omitempty"`
	GNDID           ID              `json:"gnd_id,omitempty"`
}
