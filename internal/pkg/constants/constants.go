package constants

// CtxKey keys values stored in a request context.
type CtxKey string

const (
	CtxKeyAuth      CtxKey = "auth"
	CtxKeyRequestID CtxKey = "request_id"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderViewID        = "X-View-ID"
	BearerPrefix        = "Bearer "
)

// Filter keys understood by the location cascade and the report endpoints.
const (
	FilterDistrictID  = "district_id"
	FilterDSID        = "ds_id"
	FilterZoneID      = "zone_id"
	FilterGNDID       = "gnd_id"
	FilterMainProgram = "mainProgram"
	FilterBeneficiary = "beneficiary_type_id"
	FilterAreaClass   = "areaClassification"
	FilterEmpowerment = "empowerment_dimension_id"
)
