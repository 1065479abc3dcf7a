package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
)

var ErrBuiltinExecutionFailed = errors.New("builtin tool execution failed")

// InsuranceService is the lookup surface the builtin tools need.
type InsuranceService interface {
	GetClaimDetails(ctx context.Context, claimNumber string) (*insurance.ClaimDetails, error)
	GetPlanBenefits(ctx context.Context, planID string) ([]insurance.PlanBenefit, error)
	SearchProviders(ctx context.Context, in insurance.ProviderSearchInput) ([]insurance.ProviderDetails, error)
}

type GetClaimDetailsParams struct {
	ClaimNumber string `json:"claim_number" jsonschema:"The unique identifier for the insurance claim"`
}

type GetPlanBenefitsParams struct {
	PlanID string `json:"plan_id" jsonschema:"The unique identifier for the health insurance plan"`
}

type GetHealthProviderDetailsParams struct {
	ProviderName string `json:"provider_name,omitempty" jsonschema:"Name of the healthcare provider to search for"`
	ZipCode      string `json:"zip_code,omitempty" jsonschema:"ZIP code to search for providers in"`
}

type GetClaimDetailsExecutor struct{ svc InsuranceService }

func NewGetClaimDetailsExecutor(svc InsuranceService) ToolExecutor {
	return &GetClaimDetailsExecutor{svc: svc}
}

func (e *GetClaimDetailsExecutor) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: insurance service not configured", ErrBuiltinExecutionFailed)
	}
	var in GetClaimDetailsParams
	if err := decodeParams(params, &in); err != nil {
		return nil, err
	}

	claim, err := e.svc.GetClaimDetails(ctx, in.ClaimNumber)
	if err != nil {
		return nil, err
	}
	return marshalResult(claim)
}

type GetPlanBenefitsExecutor struct{ svc InsuranceService }

func NewGetPlanBenefitsExecutor(svc InsuranceService) ToolExecutor {
	return &GetPlanBenefitsExecutor{svc: svc}
}

func (e *GetPlanBenefitsExecutor) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: insurance service not configured", ErrBuiltinExecutionFailed)
	}
	var in GetPlanBenefitsParams
	if err := decodeParams(params, &in); err != nil {
		return nil, err
	}

	benefits, err := e.svc.GetPlanBenefits(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	return marshalResult(benefits)
}

type GetHealthProviderDetailsExecutor struct{ svc InsuranceService }

func NewGetHealthProviderDetailsExecutor(svc InsuranceService) ToolExecutor {
	return &GetHealthProviderDetailsExecutor{svc: svc}
}

func (e *GetHealthProviderDetailsExecutor) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: insurance service not configured", ErrBuiltinExecutionFailed)
	}
	var in GetHealthProviderDetailsParams
	if err := decodeParams(params, &in); err != nil {
		return nil, err
	}

	providers, err := e.svc.SearchProviders(ctx, insurance.ProviderSearchInput{
		ProviderName: in.ProviderName,
		ZipCode:      in.ZipCode,
	})
	if err != nil {
		return nil, err
	}
	return marshalResult(providers)
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(params)) == 0 {
		params = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("%w: invalid params: %v", ErrToolValidationFailed, err)
	}
	return nil
}

func marshalResult(v any) (json.RawMessage, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode result: %v", ErrBuiltinExecutionFailed, err)
	}
	return out, nil
}
