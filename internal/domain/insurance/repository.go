package insurance

import "context"

// Repository is the read-only source of reference data. Implementations must be
// safe for concurrent use and must return copies the caller may freely modify.
//
// GetClaim and GetPlanBenefits return an error matching ErrNotFound when the key
// is absent.
type Repository interface {
	GetClaim(ctx context.Context, claimNumber string) (ClaimDetails, error)
	GetPlanBenefits(ctx context.Context, planID string) ([]PlanBenefit, error)
	ListProviders(ctx context.Context) ([]ProviderDetails, error)
}
