// Package memory implementa los repositorios de dominio en memoria.
// Útil para desarrollo y testing; no persiste nada.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
)

// Store agrupa los repositorios en memoria.
type Store struct {
	consents *ConsentRepo
	audit    *AuditRepo
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		consents: &ConsentRepo{recs: make(map[consentKey]*model.ConsentRecord)},
		audit:    &AuditRepo{},
	}
}

func (s *Store) Consents() *ConsentRepo { return s.consents }
func (s *Store) Audit() *AuditRepo      { return s.audit }

type consentKey struct{ patientID, orgID string }

// ConsentRepo implementa repository.ConsentRepository en memoria.
type ConsentRepo struct {
	mu   sync.RWMutex
	recs map[consentKey]*model.ConsentRecord
}

func (r *ConsentRepo) Upsert(_ context.Context, rec *model.ConsentRecord) (*model.ConsentRecord, error) {
	if rec.PatientID == "" || rec.OrganizationID == "" {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := consentKey{rec.PatientID, rec.OrganizationID}
	cp := *rec
	if prev, ok := r.recs[key]; ok {
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
	} else {
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	cp.AllowedCategories = append([]model.DataCategory(nil), rec.AllowedCategories...)
	r.recs[key] = &cp

	out := cp
	return &out, nil
}

func (r *ConsentRepo) Get(_ context.Context, patientID, organizationID string) (*model.ConsentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recs[consentKey{patientID, organizationID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *rec
	out.AllowedCategories = append([]model.DataCategory(nil), rec.AllowedCategories...)
	return &out, nil
}

func (r *ConsentRepo) ListByPatient(_ context.Context, patientID string, activeOnly bool, now time.Time) ([]model.ConsentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ConsentRecord
	for key, rec := range r.recs {
		if key.patientID != patientID {
			continue
		}
		if activeOnly && !rec.IsActiveAt(now) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrganizationID < out[j].OrganizationID })
	return out, nil
}

func (r *ConsentRepo) ListExpired(_ context.Context, now time.Time) ([]model.ConsentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ConsentRecord
	for _, rec := range r.recs {
		if rec.IsExpiredAt(now) && rec.Status != model.ConsentExpired {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *ConsentRepo) UpdateStatus(_ context.Context, patientID, organizationID string, status model.ConsentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recs[consentKey{patientID, organizationID}]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ConsentRepo) Revoke(ctx context.Context, patientID, organizationID string) error {
	return r.UpdateStatus(ctx, patientID, organizationID, model.ConsentRevoked)
}

// AuditRepo implementa repository.AuditRepository en memoria.
type AuditRepo struct {
	mu     sync.RWMutex
	events []model.AuditEvent
}

func (r *AuditRepo) Append(_ context.Context, ev *model.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *AuditRepo) ListByActor(_ context.Context, actor string, limit int) ([]model.AuditEvent, error) {
	return r.filter(func(ev *model.AuditEvent) bool { return ev.Actor == actor }, limit), nil
}

func (r *AuditRepo) ListByResource(_ context.Context, resource string, limit int) ([]model.AuditEvent, error) {
	return r.filter(func(ev *model.AuditEvent) bool { return ev.Resource == resource }, limit), nil
}

func (r *AuditRepo) filter(match func(*model.AuditEvent) bool, limit int) []model.AuditEvent {
	if limit <= 0 {
		limit = 100
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.AuditEvent
	// más recientes primero
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if match(&r.events[i]) {
			out = append(out, r.events[i])
		}
	}
	return out
}
