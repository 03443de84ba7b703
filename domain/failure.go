package domain

// FailureReason classifies why a single brand group could not be turned into
// an order intent.
type FailureReason string

const (
	ReasonBrandNotServed    FailureReason = "BRAND_NOT_SERVED_AT_OUTLET"
	ReasonNoOutletInRange   FailureReason = "NO_OUTLET_IN_RANGE"
	ReasonOutletInactive    FailureReason = "OUTLET_INACTIVE"
	ReasonBelowMinimumOrder FailureReason = "BELOW_MINIMUM_ORDER"
)

// BrandFailure is one entry of the aggregated checkout failure list. All
// failing brands are reported together so the customer fixes everything in
// one round-trip.
type BrandFailure struct {
	BrandID string        `json:"brand_id"`
	Reason  FailureReason `json:"reason"`
	Detail  string        `json:"detail,omitempty"`
}
