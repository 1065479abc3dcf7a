// Package dataset loads the reference tables (claims, plan benefits, providers)
// and serves them read-only from memory.
// Files are YAML; a ".gz" suffix is decompressed with pgzip.
package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"
	"gopkg.in/yaml.v3"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
)

//go:embed reference.yaml
var referenceYAML []byte

// ErrEmptyDataset is returned when a dataset document has no content at all.
var ErrEmptyDataset = errors.New("dataset is empty")

// Dataset holds the three reference tables. It is never mutated after Load and
// implements insurance.Repository.
type Dataset struct {
	claims    map[string]insurance.ClaimDetails
	plans     map[string][]insurance.PlanBenefit
	providers []insurance.ProviderDetails
}

var _ insurance.Repository = (*Dataset)(nil)

type fileClaim struct {
	Status                string  `yaml:"status"`
	DateOfService         string  `yaml:"date_of_service"`
	ProviderName          string  `yaml:"provider_name"`
	TotalAmount           float64 `yaml:"total_amount"`
	AmountCovered         float64 `yaml:"amount_covered"`
	PatientResponsibility float64 `yaml:"patient_responsibility"`
	ServiceDescription    string  `yaml:"service_description"`
}

type fileBenefit struct {
	Service     string  `yaml:"service"`
	Coverage    string  `yaml:"coverage"`
	Limitations *string `yaml:"limitations"`
}

type fileProvider struct {
	Name                 string   `yaml:"name"`
	Specialty            string   `yaml:"specialty"`
	Address              string   `yaml:"address"`
	City                 string   `yaml:"city"`
	State                string   `yaml:"state"`
	ZipCode              string   `yaml:"zip_code"`
	Phone                string   `yaml:"phone"`
	AcceptingNewPatients bool     `yaml:"accepting_new_patients"`
	Languages            []string `yaml:"languages"`
}

type document struct {
	Claims    map[string]fileClaim     `yaml:"claims"`
	Plans     map[string][]fileBenefit `yaml:"plans"`
	Providers []fileProvider           `yaml:"providers"`
}

// Builtin returns the reference data compiled into the binary.
func Builtin() (*Dataset, error) {
	ds, err := Load(bytes.NewReader(referenceYAML))
	if err != nil {
		return nil, fmt.Errorf("dataset.Builtin: %w", err)
	}
	return ds, nil
}

// LoadFile reads a dataset from path, decompressing it when the name ends in ".gz".
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadFile: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadFile: gzip %q: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	ds, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadFile %q: %w", path, err)
	}
	return ds, nil
}

// Load decodes and validates a YAML dataset document. Unknown fields are rejected.
func Load(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc document) (*Dataset, error) {
	ds := &Dataset{
		claims:    make(map[string]insurance.ClaimDetails, len(doc.Claims)),
		plans:     make(map[string][]insurance.PlanBenefit, len(doc.Plans)),
		providers: make([]insurance.ProviderDetails, 0, len(doc.Providers)),
	}

	for number, c := range doc.Claims {
		claim := insurance.ClaimDetails{
			ClaimNumber:           number,
			Status:                insurance.ClaimStatus(c.Status),
			DateOfService:         c.DateOfService,
			ProviderName:          c.ProviderName,
			TotalAmount:           c.TotalAmount,
			AmountCovered:         c.AmountCovered,
			PatientResponsibility: c.PatientResponsibility,
			ServiceDescription:    c.ServiceDescription,
		}
		if err := claim.Validate(); err != nil {
			return nil, fmt.Errorf("claim %q: %w", number, err)
		}
		ds.claims[number] = claim
	}

	for planID, entries := range doc.Plans {
		benefits := make([]insurance.PlanBenefit, 0, len(entries))
		for i, e := range entries {
			if strings.TrimSpace(e.Service) == "" {
				return nil, fmt.Errorf("plan %q: benefit %d has no service name", planID, i)
			}
			benefits = append(benefits, insurance.PlanBenefit{
				Service:     e.Service,
				Coverage:    e.Coverage,
				Limitations: e.Limitations,
			})
		}
		ds.plans[planID] = benefits
	}

	for i, p := range doc.Providers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("provider %d has no name", i)
		}
		langs := p.Languages
		if langs == nil {
			langs = []string{}
		}
		ds.providers = append(ds.providers, insurance.ProviderDetails{
			Name:                 p.Name,
			Specialty:            p.Specialty,
			Address:              p.Address,
			City:                 p.City,
			State:                p.State,
			ZipCode:              p.ZipCode,
			Phone:                p.Phone,
			AcceptingNewPatients: p.AcceptingNewPatients,
			Languages:            langs,
		})
	}

	return ds, nil
}

// GetClaim returns a copy of the claim stored under claimNumber.
func (d *Dataset) GetClaim(_ context.Context, claimNumber string) (insurance.ClaimDetails, error) {
	claim, ok := d.claims[claimNumber]
	if !ok {
		return insurance.ClaimDetails{}, insurance.ErrNotFound
	}
	return claim, nil
}

// GetPlanBenefits returns a copy of the plan's benefit schedule in stored order.
func (d *Dataset) GetPlanBenefits(_ context.Context, planID string) ([]insurance.PlanBenefit, error) {
	benefits, ok := d.plans[planID]
	if !ok {
		return nil, insurance.ErrNotFound
	}
	return insurance.CloneBenefits(benefits), nil
}

// ListProviders returns a copy of the provider directory in stored order.
func (d *Dataset) ListProviders(_ context.Context) ([]insurance.ProviderDetails, error) {
	return insurance.CloneProviders(d.providers), nil
}

// ClaimNumbers returns every claim identifier, sorted.
func (d *Dataset) ClaimNumbers() []string {
	return sortedKeys(d.claims)
}

// PlanIDs returns every plan identifier, sorted.
func (d *Dataset) PlanIDs() []string {
	return sortedKeys(d.plans)
}

// UnreconciledClaims returns, sorted, the claims whose covered amount and patient
// responsibility do not add up to the total.
func (d *Dataset) UnreconciledClaims() []string {
	var out []string
	for _, number := range d.ClaimNumbers() {
		if !d.claims[number].Reconciles() {
			out = append(out, number)
		}
	}
	return out
}

// Counts returns the size of each table.
func (d *Dataset) Counts() (claims, plans, providers int) {
	return len(d.claims), len(d.plans), len(d.providers)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
