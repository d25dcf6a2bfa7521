package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-job-assignment/internal/domain"
)

// DriverRepo reads driver eligibility data.
type DriverRepo struct{ db *pgxpool.Pool }

// NewDriverRepo creates a new DriverRepo.
func NewDriverRepo(db *pgxpool.Pool) *DriverRepo { return &DriverRepo{db: db} }

// DriverProfile returns onboarding state and document expiries of a driver, or nil.
func (r *DriverRepo) DriverProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error) {
	var (
		p          domain.DriverProfile
		onboarding string
	)
	err := r.db.QueryRow(ctx, `
        SELECT id, onboarding_status, license_expiry, insurance_expiry
        FROM drivers
        WHERE id = $1
    `, driverID).Scan(&p.ID, &onboarding, &p.LicenseExpiry, &p.InsuranceExpiry)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver %q: %w", driverID, err)
	}
	p.Onboarding = domain.OnboardingStatus(onboarding)

	rows, err := r.db.Query(ctx, `
        SELECT kind, expires_at
        FROM driver_documents
        WHERE driver_id = $1
        ORDER BY id
    `, driverID)
	if err != nil {
		return nil, fmt.Errorf("list documents of driver %q: %w", driverID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			doc  domain.DriverDocument
			kind string
		)
		if err := rows.Scan(&kind, &doc.ExpiresAt); err != nil {
			return nil, err
		}
		doc.Kind = domain.DocumentKind(kind)
		p.Documents = append(p.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}
