// Package insurance provides the member-facing lookups over claims, plan benefit
// schedules and the provider directory.
package insurance

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ClaimStatus is the adjudication state of a claim. Purely descriptive.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusDenied   ClaimStatus = "DENIED"
	ClaimStatusPaid     ClaimStatus = "PAID"
)

// ClaimStatuses lists every known status in declaration order.
func ClaimStatuses() []ClaimStatus {
	return []ClaimStatus{ClaimStatusPending, ClaimStatusApproved, ClaimStatusDenied, ClaimStatusPaid}
}

// Valid reports whether s is one of the known statuses.
func (s ClaimStatus) Valid() bool {
	return slices.Contains(ClaimStatuses(), s)
}

func knownStatuses() string {
	names := make([]string, 0, 4)
	for _, s := range ClaimStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// ParseClaimStatus converts a raw value into a ClaimStatus. Matching is exact.
func ParseClaimStatus(raw string) (ClaimStatus, error) {
	s := ClaimStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown claim status %q (want one of %s)", raw, knownStatuses())
	}
	return s, nil
}

// DateOfServiceLayout is the calendar date format used for dates of service.
const DateOfServiceLayout = "2006-01-02"

// ClaimDetails is the claim record returned by a claim lookup.
type ClaimDetails struct {
	ClaimNumber           string      `json:"claim_number" jsonschema:"Unique identifier for the claim"`
	Status                ClaimStatus `json:"status" jsonschema:"Current status of the claim: PENDING, APPROVED, DENIED or PAID"`
	DateOfService         string      `json:"date_of_service" jsonschema:"Date when the service was provided"`
	ProviderName          string      `json:"provider_name" jsonschema:"Name of the healthcare provider"`
	TotalAmount           float64     `json:"total_amount" jsonschema:"Total claim amount"`
	AmountCovered         float64     `json:"amount_covered" jsonschema:"Amount covered by insurance"`
	PatientResponsibility float64     `json:"patient_responsibility" jsonschema:"Amount to be paid by patient"`
	ServiceDescription    string      `json:"service_description" jsonschema:"Description of the service provided"`
}

// Validate checks the field constraints of a claim record. It does not require
// the amounts to reconcile; see Reconciles.
func (c ClaimDetails) Validate() error {
	if !c.Status.Valid() {
		return fmt.Errorf("claim %q: unknown status %q (want one of %s)", c.ClaimNumber, c.Status, knownStatuses())
	}
	if _, err := time.Parse(DateOfServiceLayout, c.DateOfService); err != nil {
		return fmt.Errorf("claim %q: date_of_service %q is not YYYY-MM-DD", c.ClaimNumber, c.DateOfService)
	}
	amounts := []struct {
		field string
		value float64
	}{
		{"total_amount", c.TotalAmount},
		{"amount_covered", c.AmountCovered},
		{"patient_responsibility", c.PatientResponsibility},
	}
	for _, a := range amounts {
		if a.value < 0 || math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return fmt.Errorf("claim %q: %s must be a non-negative amount, got %v", c.ClaimNumber, a.field, a.value)
		}
	}
	return nil
}

// Reconciles reports whether the covered amount plus the patient responsibility
// equals the total amount, to the cent.
func (c ClaimDetails) Reconciles() bool {
	return toCents(c.AmountCovered)+toCents(c.PatientResponsibility) == toCents(c.TotalAmount)
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// PlanBenefit is one benefit line of a plan's schedule.
type PlanBenefit struct {
	Service     string  `json:"service" jsonschema:"Name of the medical service"`
	Coverage    string  `json:"coverage" jsonschema:"Coverage details, e.g. 100% after deductible"`
	Limitations *string `json:"limitations,omitempty" jsonschema:"Any limitations or restrictions"`
}

// ProviderDetails is a provider directory entry.
type ProviderDetails struct {
	Name                 string   `json:"name" jsonschema:"Provider's full name"`
	Specialty            string   `json:"specialty" jsonschema:"Medical specialty"`
	Address              string   `json:"address" jsonschema:"Practice address"`
	City                 string   `json:"city" jsonschema:"City"`
	State                string   `json:"state" jsonschema:"State"`
	ZipCode              string   `json:"zip_code" jsonschema:"ZIP code"`
	Phone                string   `json:"phone" jsonschema:"Contact phone number"`
	AcceptingNewPatients bool     `json:"accepting_new_patients" jsonschema:"Whether the provider is accepting new patients"`
	Languages            []string `json:"languages" jsonschema:"Languages spoken by the provider"`
}

// Clone returns a deep copy of b.
func (b PlanBenefit) Clone() PlanBenefit {
	if b.Limitations != nil {
		v := *b.Limitations
		b.Limitations = &v
	}
	return b
}

// Clone returns a deep copy of p. Languages is never nil in the copy.
func (p ProviderDetails) Clone() ProviderDetails {
	langs := make([]string, len(p.Languages))
	copy(langs, p.Languages)
	p.Languages = langs
	return p
}

// CloneBenefits deep-copies a benefit schedule, preserving order. The result is
// never nil.
func CloneBenefits(in []PlanBenefit) []PlanBenefit {
	out := make([]PlanBenefit, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}

// CloneProviders deep-copies a provider list, preserving order. The result is
// never nil.
func CloneProviders(in []ProviderDetails) []ProviderDetails {
	out := make([]ProviderDetails, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
