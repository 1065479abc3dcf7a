package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
)

// InsuranceHandler serves the lookups as plain REST resources.
type InsuranceHandler struct {
	svc tool.InsuranceService
}

func NewInsuranceHandler(svc tool.InsuranceService) *InsuranceHandler {
	return &InsuranceHandler{svc: svc}
}

// GetClaim handles GET /api/v1/claims/{claim_number}.
func (h *InsuranceHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.svc.GetClaimDetails(r.Context(), chi.URLParam(r, "claim_number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, claim)
}

// GetPlanBenefits handles GET /api/v1/plans/{plan_id}/benefits.
func (h *InsuranceHandler) GetPlanBenefits(w http.ResponseWriter, r *http.Request) {
	benefits, err := h.svc.GetPlanBenefits(r.Context(), chi.URLParam(r, "plan_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeList(w, benefits)
}

// SearchProviders handles GET /api/v1/providers?provider_name=&zip_code=.
func (h *InsuranceHandler) SearchProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	providers, err := h.svc.SearchProviders(r.Context(), insurance.ProviderSearchInput{
		ProviderName: q.Get("provider_name"),
		ZipCode:      q.Get("zip_code"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeList(w, providers)
}
