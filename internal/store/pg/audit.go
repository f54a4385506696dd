package pg

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// AuditRepo implementa repository.AuditRepository sobre Postgres.
type AuditRepo struct{ pool *pgxpool.Pool }

func (r *AuditRepo) Append(ctx context.Context, ev *model.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	details, err := json.Marshal(ev.Details)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO audit_event (id, actor, action, resource, outcome, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, q,
		ev.ID, ev.Actor, string(ev.Action), ev.Resource, string(ev.Outcome), details, ev.OccurredAt)
	return err
}

func (r *AuditRepo) ListByActor(ctx context.Context, actor string, limit int) ([]model.AuditEvent, error) {
	const q = `
		SELECT id, actor, action, resource, outcome, details, occurred_at
		FROM audit_event
		WHERE actor = $1
		ORDER BY occurred_at DESC
		LIMIT $2`
	return r.list(ctx, q, actor, limit)
}

func (r *AuditRepo) ListByResource(ctx context.Context, resource string, limit int) ([]model.AuditEvent, error) {
	const q = `
		SELECT id, actor, action, resource, outcome, details, occurred_at
		FROM audit_event
		WHERE resource = $1
		ORDER BY occurred_at DESC
		LIMIT $2`
	return r.list(ctx, q, resource, limit)
}

func (r *AuditRepo) list(ctx context.Context, q, key string, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, q, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditEvent
	for rows.Next() {
		var (
			ev              model.AuditEvent
			action, outcome string
			details         []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Actor, &action, &ev.Resource, &outcome, &details, &ev.OccurredAt); err != nil {
			return nil, err
		}
		ev.Action = model.AuditAction(action)
		ev.Outcome = model.AuditOutcome(outcome)
		if len(details) > 0 {
			_ = json.Unmarshal(details, &ev.Details)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
