package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
	"github.com/matiasleandrokruk/healthassist/internal/infra/dataset"
)

func mustBuiltinService(t *testing.T) *insurance.Service {
	t.Helper()
	ds, err := dataset.Builtin()
	if err != nil {
		t.Fatalf("dataset.Builtin() error = %v", err)
	}
	return insurance.NewService(ds)
}

func mustBuiltinRegistry(t *testing.T) *tool.ToolRegistry {
	t.Helper()
	r := tool.NewToolRegistry(zerolog.Nop())
	if err := tool.RegisterBuiltInExecutors(r, mustBuiltinService(t)); err != nil {
		t.Fatalf("RegisterBuiltInExecutors() error = %v", err)
	}
	return r
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q; want application/json", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestInsuranceHandler_GetClaim(t *testing.T) {
	t.Parallel()
	h := NewInsuranceHandler(mustBuiltinService(t))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/claims/CLM123456", nil), "claim_number", "CLM123456")
	rr := httptest.NewRecorder()
	h.GetClaim(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	data, _ := decodeBody(t, rr)["data"].(map[string]any)
	if data["claim_number"] != "CLM123456" || data["status"] != "APPROVED" {
		t.Fatalf("unexpected claim payload: %v", data)
	}
}

func TestInsuranceHandler_GetClaim_NotFound(t *testing.T) {
	t.Parallel()
	h := NewInsuranceHandler(mustBuiltinService(t))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/claims/clm123456", nil), "claim_number", "clm123456")
	rr := httptest.NewRecorder()
	h.GetClaim(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusNotFound)
	}
	if got := decodeBody(t, rr)["error"]; got != "claim with number clm123456 not found" {
		t.Fatalf("error = %v", got)
	}
}

func TestInsuranceHandler_GetPlanBenefits(t *testing.T) {
	t.Parallel()
	h := NewInsuranceHandler(mustBuiltinService(t))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/plans/PLAN001/benefits", nil), "plan_id", "PLAN001")
	rr := httptest.NewRecorder()
	h.GetPlanBenefits(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusOK)
	}
	body := decodeBody(t, rr)
	data, _ := body["data"].([]any)
	meta, _ := body["meta"].(map[string]any)
	if len(data) != 4 || meta["total"] != float64(4) {
		t.Fatalf("unexpected list payload: %v", body)
	}
	first, _ := data[0].(map[string]any)
	if first["service"] != "Primary Care Visit" {
		t.Fatalf("first benefit = %v", first)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/plans/PLAN999/benefits", nil), "plan_id", "PLAN999")
	rr = httptest.NewRecorder()
	h.GetPlanBenefits(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusNotFound)
	}
}

func TestInsuranceHandler_SearchProviders(t *testing.T) {
	t.Parallel()
	h := NewInsuranceHandler(mustBuiltinService(t))

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?provider_name=SARAH", 1},
		{"?zip_code=10001", 2},
		{"?provider_name=chen&zip_code=02108", 0},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.SearchProviders(rr, httptest.NewRequest(http.MethodGet, "/api/v1/providers"+tc.query, nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("%q: status=%d want=%d", tc.query, rr.Code, http.StatusOK)
		}
		body := decodeBody(t, rr)
		data, ok := body["data"].([]any)
		if !ok || len(data) != tc.want {
			t.Fatalf("%q: data=%v want %d items", tc.query, body["data"], tc.want)
		}
	}
}

func TestInsuranceHandler_UnexpectedErrorIsOpaque(t *testing.T) {
	t.Parallel()
	h := NewInsuranceHandler(failingService{err: errors.New("connection reset by peer")})

	rr := httptest.NewRecorder()
	h.SearchProviders(rr, httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rr.Body.String(), "connection reset") {
		t.Fatalf("internal detail leaked: %s", rr.Body.String())
	}
}

func TestToolHandler_ListTools(t *testing.T) {
	t.Parallel()
	h := NewToolHandler(mustBuiltinRegistry(t))

	rr := httptest.NewRecorder()
	h.ListTools(rr, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusOK)
	}
	data, ok := decodeBody(t, rr)["data"].([]any)
	if !ok || len(data) != 3 {
		t.Fatalf("expected 3 tools in list, got %v", data)
	}
	first, _ := data[0].(map[string]any)
	if first["name"] != tool.BuiltinGetClaimDetails {
		t.Fatalf("first tool = %v", first)
	}
}

func TestToolHandler_CallTool(t *testing.T) {
	t.Parallel()
	h := NewToolHandler(mustBuiltinRegistry(t))

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"claim", `{"name":"get_claim_details","arguments":{"claim_number":"CLM789012"}}`, http.StatusOK},
		{"providers without arguments", `{"name":"get_health_provider_details"}`, http.StatusOK},
		{"unknown claim", `{"name":"get_claim_details","arguments":{"claim_number":"NOPE"}}`, http.StatusNotFound},
		{"unknown tool", `{"name":"get_weather","arguments":{}}`, http.StatusNotFound},
		{"missing argument", `{"name":"get_plan_benefits","arguments":{}}`, http.StatusBadRequest},
		{"wrong argument type", `{"name":"get_plan_benefits","arguments":{"plan_id":1}}`, http.StatusBadRequest},
		{"missing name", `{"arguments":{}}`, http.StatusBadRequest},
		{"malformed body", `{"name":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			h.CallTool(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tools/call", bytes.NewBufferString(tc.body)))
			if rr.Code != tc.wantStatus {
				t.Fatalf("status=%d want=%d body=%s", rr.Code, tc.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestToolHandler_CallTool_ReturnsExecutorResult(t *testing.T) {
	t.Parallel()
	h := NewToolHandler(mustBuiltinRegistry(t))

	body := `{"name":"get_plan_benefits","arguments":{"plan_id":"PLAN002"}}`
	rr := httptest.NewRecorder()
	h.CallTool(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tools/call", bytes.NewBufferString(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			Tool   string                  `json:"tool"`
			Result []insurance.PlanBenefit `json:"result"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Tool != tool.BuiltinGetPlanBenefits || len(resp.Data.Result) != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

type failingService struct{ err error }

func (s failingService) GetClaimDetails(context.Context, string) (*insurance.ClaimDetails, error) {
	return nil, s.err
}

func (s failingService) GetPlanBenefits(context.Context, string) ([]insurance.PlanBenefit, error) {
	return nil, s.err
}

func (s failingService) SearchProviders(context.Context, insurance.ProviderSearchInput) ([]insurance.ProviderDetails, error) {
	return nil, s.err
}
