package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/healthassist/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/healthassist/internal/api/middleware"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
)

// Deps carries the services the router mounts.
type Deps struct {
	Registry *tool.ToolRegistry
	Service  tool.InsuranceService
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger zerolog.Logger
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	if deps.MCP != nil {
		r.Handle("/mcp", deps.MCP)
		r.Handle("/mcp/*", deps.MCP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuditMiddleware(apmiddleware.NewZerologAuditLogger(deps.Logger)))

		toolHandler := handlers.NewToolHandler(deps.Registry)
		r.Route("/tools", func(r chi.Router) {
			r.Get("/", toolHandler.ListTools)      // GET /api/v1/tools
			r.Post("/call", toolHandler.CallTool) // POST /api/v1/tools/call
		})

		insuranceHandler := handlers.NewInsuranceHandler(deps.Service)
		r.Get("/claims/{claim_number}", insuranceHandler.GetClaim)         // GET /api/v1/claims/{claim_number}
		r.Get("/plans/{plan_id}/benefits", insuranceHandler.GetPlanBenefits) // GET /api/v1/plans/{plan_id}/benefits
		r.Get("/providers", insuranceHandler.SearchProviders)              // GET /api/v1/providers
	})

	return r
}
