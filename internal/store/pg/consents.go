package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
)

// ConsentRepo implementa repository.ConsentRepository sobre Postgres.
type ConsentRepo struct{ pool *pgxpool.Pool }

func (r *ConsentRepo) Upsert(ctx context.Context, rec *model.ConsentRecord) (*model.ConsentRecord, error) {
	if rec.PatientID == "" || rec.OrganizationID == "" {
		return nil, repository.ErrInvalidInput
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	cats := make([]string, 0, len(rec.AllowedCategories))
	for _, c := range rec.AllowedCategories {
		cats = append(cats, string(c))
	}

	const q = `
		INSERT INTO consent_record
			(id, patient_id, organization_id, status, allowed_categories,
			 effective_at, expires_at, policy_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (patient_id, organization_id) DO UPDATE SET
			status = EXCLUDED.status,
			allowed_categories = EXCLUDED.allowed_categories,
			effective_at = EXCLUDED.effective_at,
			expires_at = EXCLUDED.expires_at,
			policy_reference = EXCLUDED.policy_reference,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, q,
		rec.ID, rec.PatientID, rec.OrganizationID, string(rec.Status), cats,
		rec.EffectiveAt, rec.ExpiresAt, rec.PolicyReference,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ConsentRepo) Get(ctx context.Context, patientID, organizationID string) (*model.ConsentRecord, error) {
	const q = `
		SELECT id, patient_id, organization_id, status, allowed_categories,
		       effective_at, expires_at, policy_reference, created_at, updated_at
		FROM consent_record
		WHERE patient_id = $1 AND organization_id = $2`

	rec, err := scanConsent(r.pool.QueryRow(ctx, q, patientID, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func (r *ConsentRepo) ListByPatient(ctx context.Context, patientID string, activeOnly bool, now time.Time) ([]model.ConsentRecord, error) {
	q := `
		SELECT id, patient_id, organization_id, status, allowed_categories,
		       effective_at, expires_at, policy_reference, created_at, updated_at
		FROM consent_record
		WHERE patient_id = $1`
	args := []any{patientID}
	if activeOnly {
		q += ` AND status = 'ACTIVE' AND effective_at <= $2 AND (expires_at IS NULL OR expires_at > $2)`
		args = append(args, now)
	}
	q += ` ORDER BY organization_id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsents(rows)
}

func (r *ConsentRepo) ListExpired(ctx context.Context, now time.Time) ([]model.ConsentRecord, error) {
	const q = `
		SELECT id, patient_id, organization_id, status, allowed_categories,
		       effective_at, expires_at, policy_reference, created_at, updated_at
		FROM consent_record
		WHERE expires_at IS NOT NULL AND expires_at < $1 AND status <> 'EXPIRED'`

	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsents(rows)
}

func (r *ConsentRepo) UpdateStatus(ctx context.Context, patientID, organizationID string, status model.ConsentStatus) error {
	const q = `
		UPDATE consent_record SET status = $3, updated_at = NOW()
		WHERE patient_id = $1 AND organization_id = $2`

	tag, err := r.pool.Exec(ctx, q, patientID, organizationID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ConsentRepo) Revoke(ctx context.Context, patientID, organizationID string) error {
	return r.UpdateStatus(ctx, patientID, organizationID, model.ConsentRevoked)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsent(row rowScanner) (*model.ConsentRecord, error) {
	var (
		rec    model.ConsentRecord
		status string
		cats   []string
	)
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.OrganizationID, &status, &cats,
		&rec.EffectiveAt, &rec.ExpiresAt, &rec.PolicyReference, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = model.ConsentStatus(status)
	rec.AllowedCategories = make([]model.DataCategory, 0, len(cats))
	for _, c := range cats {
		rec.AllowedCategories = append(rec.AllowedCategories, model.DataCategory(c))
	}
	return &rec, nil
}

func collectConsents(rows pgx.Rows) ([]model.ConsentRecord, error) {
	var out []model.ConsentRecord
	for rows.Next() {
		rec, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
