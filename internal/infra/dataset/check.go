package dataset

import (
	"fmt"
	"strings"
)

// Violation codes reported by Check.
const (
	CodeUnreconciled      = "UNRECONCILED"
	CodeEmptyPlan         = "EMPTY-PLAN"
	CodeDuplicateBenefit  = "DUPLICATE-BENEFIT"
	CodeDuplicateProvider = "DUPLICATE-PROVIDER"
)

// Violation is an advisory finding about a loaded dataset. None of them stop
// the data from being served.
type Violation struct {
	Code    string
	Subject string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Subject, v.Message)
}

// Check reports consistency problems in claim, plan then provider order.
func (d *Dataset) Check() []Violation {
	var violations []Violation
	violations = append(violations, d.checkClaims()...)
	violations = append(violations, d.checkPlans()...)
	violations = append(violations, d.checkProviders()...)
	return violations
}

func (d *Dataset) checkClaims() []Violation {
	var violations []Violation
	for _, number := range d.UnreconciledClaims() {
		c := d.claims[number]
		violations = append(violations, Violation{
			Code:    CodeUnreconciled,
			Subject: number,
			Message: fmt.Sprintf("claim amounts do not reconcile: covered %.2f + patient %.2f != total %.2f",
				c.AmountCovered, c.PatientResponsibility, c.TotalAmount),
		})
	}
	return violations
}

func (d *Dataset) checkPlans() []Violation {
	var violations []Violation
	for _, planID := range d.PlanIDs() {
		benefits := d.plans[planID]
		if len(benefits) == 0 {
			violations = append(violations, Violation{
				Code:    CodeEmptyPlan,
				Subject: planID,
				Message: "plan has no benefit lines",
			})
			continue
		}
		seen := make(map[string]bool, len(benefits))
		for _, b := range benefits {
			key := strings.ToLower(strings.TrimSpace(b.Service))
			if seen[key] {
				violations = append(violations, Violation{
					Code:    CodeDuplicateBenefit,
					Subject: planID,
					Message: fmt.Sprintf("service %q is listed more than once", b.Service),
				})
			}
			seen[key] = true
		}
	}
	return violations
}

func (d *Dataset) checkProviders() []Violation {
	var violations []Violation
	seen := make(map[string]bool, len(d.providers))
	for _, p := range d.providers {
		key := strings.ToLower(p.Name) + "|" + p.ZipCode
		if seen[key] {
			violations = append(violations, Violation{
				Code:    CodeDuplicateProvider,
				Subject: p.Name,
				Message: fmt.Sprintf("provider is listed more than once in zip code %q", p.ZipCode),
			})
		}
		seen[key] = true
	}
	return violations
}
