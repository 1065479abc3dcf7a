package tool

import (
	"encoding/json"
	"errors"
)

const (
	BuiltinGetClaimDetails          = "get_claim_details"
	BuiltinGetPlanBenefits          = "get_plan_benefits"
	BuiltinGetHealthProviderDetails = "get_health_provider_details"
)

const (
	DescriptionGetClaimDetails = "Retrieve detailed information about an insurance claim by its claim number, " +
		"including status, date of service, amounts and the service performed."
	DescriptionGetPlanBenefits = "Retrieve the benefits covered by a health insurance plan, " +
		"listing each covered service with its coverage and limitations."
	DescriptionGetHealthProviderDetails = "Search the healthcare provider directory by name and/or zip code. " +
		"Name matching is a case-insensitive substring match; zip code must match exactly. " +
		"Omitted filters match every provider."
)

func BuiltinDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        BuiltinGetClaimDetails,
			Title:       "Get claim details",
			Description: DescriptionGetClaimDetails,
			InputSchema: json.RawMessage(`{"type":"object","required":["claim_number"],"properties":{"claim_number":{"type":"string","description":"The unique identifier for the insurance claim"}},"additionalProperties":false}`),
			ReadOnly:    true,
		},
		{
			Name:        BuiltinGetPlanBenefits,
			Title:       "Get plan benefits",
			Description: DescriptionGetPlanBenefits,
			InputSchema: json.RawMessage(`{"type":"object","required":["plan_id"],"properties":{"plan_id":{"type":"string","description":"The unique identifier for the health insurance plan"}},"additionalProperties":false}`),
			ReadOnly:    true,
		},
		{
			Name:        BuiltinGetHealthProviderDetails,
			Title:       "Find healthcare providers",
			Description: DescriptionGetHealthProviderDetails,
			InputSchema: json.RawMessage(`{"type":"object","properties":{"provider_name":{"type":"string","description":"Name of the healthcare provider to search for"},"zip_code":{"type":"string","description":"ZIP code to search for providers in"}},"additionalProperties":false}`),
			ReadOnly:    true,
		},
	}
}

// RegisterBuiltInExecutors registers the three lookup tools backed by svc.
func RegisterBuiltInExecutors(registry *ToolRegistry, svc InsuranceService) error {
	executors := map[string]ToolExecutor{
		BuiltinGetClaimDetails:          NewGetClaimDetailsExecutor(svc),
		BuiltinGetPlanBenefits:          NewGetPlanBenefitsExecutor(svc),
		BuiltinGetHealthProviderDetails: NewGetHealthProviderDetailsExecutor(svc),
	}

	for _, def := range BuiltinDefinitions() {
		if err := registerBuiltinExecutor(registry, def, executors[def.Name]); err != nil {
			return err
		}
	}
	return nil
}

func registerBuiltinExecutor(registry *ToolRegistry, def ToolDefinition, executor ToolExecutor) error {
	if err := registry.Register(def, executor); err != nil && !errors.Is(err, ErrToolExecutorAlreadyRegistered) {
		return err
	}
	return nil
}
