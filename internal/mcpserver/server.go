// Package mcpserver exposes the insurance lookups as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
	"github.com/matiasleandrokruk/healthassist/internal/version"
)

const ServerName = "healthassist"

// PlanBenefitsResult is the structured output of get_plan_benefits.
type PlanBenefitsResult struct {
	PlanID   string                  `json:"plan_id"`
	Benefits []insurance.PlanBenefit `json:"benefits"`
}

// ProviderSearchResult is the structured output of get_health_provider_details.
type ProviderSearchResult struct {
	Providers []insurance.ProviderDetails `json:"providers"`
}

// New builds an MCP server with the read-only lookup tools registered. Names,
// titles and descriptions come from tool.BuiltinDefinitions.
func New(svc tool.InsuranceService, logger zerolog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version.Version}, nil)
	h := &handlers{svc: svc, logger: logger}

	for _, def := range tool.BuiltinDefinitions() {
		switch def.Name {
		case tool.BuiltinGetClaimDetails:
			mcp.AddTool(server, newTool(def), h.getClaimDetails)
		case tool.BuiltinGetPlanBenefits:
			mcp.AddTool(server, newTool(def), h.getPlanBenefits)
		case tool.BuiltinGetHealthProviderDetails:
			mcp.AddTool(server, newTool(def), h.getHealthProviderDetails)
		default:
			logger.Warn().Str("tool", def.Name).Msg("no MCP handler for tool; skipped")
		}
	}

	return server
}

func newTool(def tool.ToolDefinition) *mcp.Tool {
	closedWorld := false
	notDestructive := false
	return &mcp.Tool{
		Name:        def.Name,
		Title:       def.Title,
		Description: def.Description,
		Annotations: &mcp.ToolAnnotations{
			Title:           def.Title,
			ReadOnlyHint:    def.ReadOnly,
			IdempotentHint:  true,
			DestructiveHint: &notDestructive,
			OpenWorldHint:   &closedWorld,
		},
	}
}

type handlers struct {
	svc    tool.InsuranceService
	logger zerolog.Logger
}

func (h *handlers) getClaimDetails(ctx context.Context, _ *mcp.CallToolRequest, in tool.GetClaimDetailsParams) (*mcp.CallToolResult, insurance.ClaimDetails, error) {
	done := h.track(tool.BuiltinGetClaimDetails)
	claim, err := h.svc.GetClaimDetails(ctx, in.ClaimNumber)
	done(err)
	if err != nil {
		return nil, insurance.ClaimDetails{}, err
	}
	return nil, *claim, nil
}

func (h *handlers) getPlanBenefits(ctx context.Context, _ *mcp.CallToolRequest, in tool.GetPlanBenefitsParams) (*mcp.CallToolResult, PlanBenefitsResult, error) {
	done := h.track(tool.BuiltinGetPlanBenefits)
	benefits, err := h.svc.GetPlanBenefits(ctx, in.PlanID)
	done(err)
	if err != nil {
		return nil, PlanBenefitsResult{}, err
	}
	return nil, PlanBenefitsResult{PlanID: in.PlanID, Benefits: benefits}, nil
}

func (h *handlers) getHealthProviderDetails(ctx context.Context, _ *mcp.CallToolRequest, in tool.GetHealthProviderDetailsParams) (*mcp.CallToolResult, ProviderSearchResult, error) {
	done := h.track(tool.BuiltinGetHealthProviderDetails)
	providers, err := h.svc.SearchProviders(ctx, insurance.ProviderSearchInput{
		ProviderName: in.ProviderName,
		ZipCode:      in.ZipCode,
	})
	done(err)
	if err != nil {
		return nil, ProviderSearchResult{}, err
	}
	return nil, ProviderSearchResult{Providers: providers}, nil
}

// track starts a timer for one tool call and returns the func that logs its outcome.
func (h *handlers) track(name string) func(error) {
	callID := uuid.NewString()
	start := time.Now()
	return func(err error) {
		evt := h.logger.Info()
		outcome := "success"
		switch {
		case errors.Is(err, insurance.ErrNotFound):
			evt, outcome = h.logger.Warn().Err(err), "not_found"
		case err != nil:
			evt, outcome = h.logger.Error().Err(err), "error"
		}
		evt.
			Str("call_id", callID).
			Str("tool", name).
			Str("transport", "mcp").
			Str("outcome", outcome).
			Dur("duration", time.Since(start)).
			Msg("tool call")
	}
}
