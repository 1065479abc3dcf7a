package insurance

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProviderSearchInput holds the optional provider filters. Empty fields do not
// constrain the search.
type ProviderSearchInput struct {
	ProviderName string
	ZipCode      string
}

// Service answers claim, plan benefit and provider queries against a Repository.
type Service struct {
	repo Repository
}

// NewService creates a Service reading from repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetClaimDetails returns the claim stored under claimNumber. The returned
// record's ClaimNumber is the requested identifier.
func (s *Service) GetClaimDetails(ctx context.Context, claimNumber string) (*ClaimDetails, error) {
	claim, err := s.repo.GetClaim(ctx, claimNumber)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Kind: KindClaim, ID: claimNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("get claim %q: %w", claimNumber, err)
	}

	claim.ClaimNumber = claimNumber
	return &claim, nil
}

// GetPlanBenefits returns the benefit schedule of planID in stored order.
func (s *Service) GetPlanBenefits(ctx context.Context, planID string) ([]PlanBenefit, error) {
	benefits, err := s.repo.GetPlanBenefits(ctx, planID)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Kind: KindPlan, ID: planID}
	}
	if err != nil {
		return nil, fmt.Errorf("get plan benefits %q: %w", planID, err)
	}
	if benefits == nil {
		benefits = []PlanBenefit{}
	}
	return benefits, nil
}

// SearchProviders returns the providers matching every non-empty filter, in
// directory order. No match is an empty slice, not an error.
func (s *Service) SearchProviders(ctx context.Context, in ProviderSearchInput) ([]ProviderDetails, error) {
	providers, err := s.repo.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	results := providers
	if in.ProviderName != "" {
		results = filterProviders(results, nameContains(in.ProviderName))
	}
	if in.ZipCode != "" {
		results = filterProviders(results, zipEquals(in.ZipCode))
	}
	if results == nil {
		results = []ProviderDetails{}
	}
	return results, nil
}

func nameContains(name string) func(ProviderDetails) bool {
	needle := strings.ToLower(name)
	return func(p ProviderDetails) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}
}

func zipEquals(zip string) func(ProviderDetails) bool {
	return func(p ProviderDetails) bool {
		return p.ZipCode == zip
	}
}

func filterProviders(in []ProviderDetails, keep func(ProviderDetails) bool) []ProviderDetails {
	out := make([]ProviderDetails, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
