package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/infra/dataset"
)

// Seed replaces the mirrored tables with the contents of ds in one transaction.
// Plan benefits and providers keep their dataset order through a position column.
func Seed(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	for _, table := range []string{"plan_benefit", "health_plan", "claim", "provider"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("seed: clear %s: %w", table, err)
		}
	}

	if err := seedClaims(ctx, tx, ds); err != nil {
		return err
	}
	if err := seedPlans(ctx, tx, ds); err != nil {
		return err
	}
	if err := seedProviders(ctx, tx, ds); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

func seedClaims(ctx context.Context, tx *sql.Tx, ds *dataset.Dataset) error {
	for _, number := range ds.ClaimNumbers() {
		c, err := ds.GetClaim(ctx, number)
		if err != nil {
			return fmt.Errorf("seed: read claim %q: %w", number, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO claim (
				claim_number, status, date_of_service, provider_name,
				total_amount, amount_covered, patient_responsibility, service_description
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, number, string(c.Status), c.DateOfService, c.ProviderName,
			c.TotalAmount, c.AmountCovered, c.PatientResponsibility, c.ServiceDescription)
		if err != nil {
			return fmt.Errorf("seed: insert claim %q: %w", number, err)
		}
	}
	return nil
}

func seedPlans(ctx context.Context, tx *sql.Tx, ds *dataset.Dataset) error {
	for _, planID := range ds.PlanIDs() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO health_plan (plan_id) VALUES (?)`, planID); err != nil {
			return fmt.Errorf("seed: insert plan %q: %w", planID, err)
		}
		benefits, err := ds.GetPlanBenefits(ctx, planID)
		if err != nil {
			return fmt.Errorf("seed: read plan %q: %w", planID, err)
		}
		for i, b := range benefits {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO plan_benefit (plan_id, position, service, coverage, limitations)
				VALUES (?, ?, ?, ?, ?)
			`, planID, i, b.Service, b.Coverage, nullableString(b.Limitations))
			if err != nil {
				return fmt.Errorf("seed: insert benefit %d of plan %q: %w", i, planID, err)
			}
		}
	}
	return nil
}

func seedProviders(ctx context.Context, tx *sql.Tx, ds *dataset.Dataset) error {
	providers, err := ds.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("seed: read providers: %w", err)
	}
	for i, p := range providers {
		languages, err := json.Marshal(p.Languages)
		if err != nil {
			return fmt.Errorf("seed: encode languages of %q: %w", p.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO provider (
				position, name, specialty, address, city, state,
				zip_code, phone, accepting_new_patients, languages
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, i, p.Name, p.Specialty, p.Address, p.City, p.State,
			p.ZipCode, p.Phone, p.AcceptingNewPatients, string(languages))
		if err != nil {
			return fmt.Errorf("seed: insert provider %q: %w", p.Name, err)
		}
	}
	return nil
}

// Repository reads the mirrored reference tables.
type Repository struct {
	db *sql.DB
}

var _ insurance.Repository = (*Repository)(nil)

// NewRepository creates a Repository over an already migrated and seeded db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetClaim returns the claim stored under claimNumber. Matching is exact and
// case-sensitive (BINARY collation).
func (r *Repository) GetClaim(ctx context.Context, claimNumber string) (insurance.ClaimDetails, error) {
	var (
		c      insurance.ClaimDetails
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT claim_number, status, date_of_service, provider_name,
		       total_amount, amount_covered, patient_responsibility, service_description
		FROM claim
		WHERE claim_number = ?
	`, claimNumber).Scan(
		&c.ClaimNumber, &status, &c.DateOfService, &c.ProviderName,
		&c.TotalAmount, &c.AmountCovered, &c.PatientResponsibility, &c.ServiceDescription,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return insurance.ClaimDetails{}, insurance.ErrNotFound
	}
	if err != nil {
		return insurance.ClaimDetails{}, err
	}

	c.Status, err = insurance.ParseClaimStatus(status)
	if err != nil {
		return insurance.ClaimDetails{}, err
	}
	return c, nil
}

// GetPlanBenefits returns the plan's benefit lines in stored order.
func (r *Repository) GetPlanBenefits(ctx context.Context, planID string) ([]insurance.PlanBenefit, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM health_plan WHERE plan_id = ?`, planID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, insurance.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT service, coverage, limitations
		FROM plan_benefit
		WHERE plan_id = ?
		ORDER BY position ASC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]insurance.PlanBenefit, 0)
	for rows.Next() {
		var (
			b           insurance.PlanBenefit
			limitations sql.NullString
		)
		if err := rows.Scan(&b.Service, &b.Coverage, &limitations); err != nil {
			return nil, err
		}
		if limitations.Valid {
			v := limitations.String
			b.Limitations = &v
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProviders returns the provider directory in stored order.
func (r *Repository) ListProviders(ctx context.Context) ([]insurance.ProviderDetails, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, specialty, address, city, state,
		       zip_code, phone, accepting_new_patients, languages
		FROM provider
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]insurance.ProviderDetails, 0)
	for rows.Next() {
		var (
			p            insurance.ProviderDetails
			languagesRaw string
		)
		if err := rows.Scan(
			&p.Name, &p.Specialty, &p.Address, &p.City, &p.State,
			&p.ZipCode, &p.Phone, &p.AcceptingNewPatients, &languagesRaw,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(languagesRaw), &p.Languages); err != nil {
			return nil, fmt.Errorf("decode languages of %q: %w", p.Name, err)
		}
		if p.Languages == nil {
			p.Languages = []string{}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// OpenMirror opens the database at path, applies migrations and seeds it from ds.
// The caller owns the returned *sql.DB.
func OpenMirror(ctx context.Context, path string, ds *dataset.Dataset) (*sql.DB, *Repository, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, nil, err
	}
	if err := MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := Seed(ctx, db, ds); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, NewRepository(db), nil
}
