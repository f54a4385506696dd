// Package consent implementa la verificación y gestión de consent records,
// con cache de resultados y filtrado de recursos por categoría.
package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bridgehealth/consentbridge/internal/audit"
	"github.com/bridgehealth/consentbridge/internal/cache"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// maxEffectiveFuture es el horizonte máximo de una fecha efectiva.
const maxEffectiveFuture = 365 * 24 * time.Hour

// Service verifica y administra consents.
type Service struct {
	repo     repository.ConsentRepository
	cache    cache.Client
	cacheTTL time.Duration
	audit    *audit.Recorder
	now      func() time.Time
}

// NewService crea el consent service. cache puede ser nil (sin cache).
func NewService(repo repository.ConsentRepository, c cache.Client, ttl time.Duration, rec *audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		cacheTTL: ttl,
		audit:    rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func cacheKey(patientID, organizationID string) string {
	return "consent:patient:" + patientID + ":org:" + organizationID
}

// Verify responde si la organización tiene consent vigente del paciente.
// Los resultados se cachean por (patient, org); cualquier escritura invalida.
func (s *Service) Verify(ctx context.Context, patientID, organizationID string) (*model.VerificationResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"), logger.Op("consent.Verify"),
		logger.PatientID(patientID), logger.OrganizationID(organizationID),
	)

	if strings.TrimSpace(patientID) == "" || strings.TrimSpace(organizationID) == "" {
		return model.VerificationInvalidResult(patientID, organizationID,
			"patient id and organization id are required"), nil
	}

	if s.cache != nil {
		if b, err := s.cache.Get(ctx, cacheKey(patientID, organizationID)); err == nil {
			var res model.VerificationResult
			if json.Unmarshal(b, &res) == nil {
				log.Debug("verification served from cache")
				return &res, nil
			}
		}
	}

	res, err := s.verifyUncached(ctx, patientID, organizationID)
	if err != nil {
		return nil, err
	}

	// Las respuestas cacheadas replican un resultado ya auditado.
	if s.audit != nil {
		s.audit.ConsentCheck(ctx, organizationID, res)
	}

	if s.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey(patientID, organizationID), b, s.cacheTTL)
		}
	}
	return res, nil
}

func (s *Service) verifyUncached(ctx context.Context, patientID, organizationID string) (*model.VerificationResult, error) {
	rec, err := s.repo.Get(ctx, patientID, organizationID)
	if repository.IsNotFound(err) {
		return model.VerificationNotFoundResult(patientID, organizationID), nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if rec.IsExpiredAt(now) {
		// Marcar expirado en el store si todavía figura con otro status.
		if rec.Status != model.ConsentExpired {
			if uerr := s.repo.UpdateStatus(ctx, patientID, organizationID, model.ConsentExpired); uerr != nil {
				logger.From(ctx).Warn("could not mark consent expired", logger.Err(uerr))
			}
		}
		return model.VerificationExpiredResult(patientID, organizationID, rec.ExpiresAt), nil
	}

	switch rec.Status {
	case model.ConsentActive:
		if rec.IsActiveAt(now) {
			return model.VerificationValidResult(rec), nil
		}
		return model.VerificationInvalidResult(patientID, organizationID, "consent is not yet effective"), nil
	case model.ConsentRevoked:
		return model.VerificationRevokedResult(patientID, organizationID), nil
	case model.ConsentSuspended:
		return model.VerificationInvalidResult(patientID, organizationID, "consent is currently suspended"), nil
	case model.ConsentDenied:
		return model.VerificationInvalidResult(patientID, organizationID, "consent has been denied"), nil
	case model.ConsentPending:
		return model.VerificationInvalidResult(patientID, organizationID, "consent is pending approval"), nil
	default:
		return model.VerificationInvalidResult(patientID, organizationID,
			fmt.Sprintf("unknown consent status %q", rec.Status)), nil
	}
}

// VerifyForCategories verifica el consent y además chequea las categorías
// pedidas. Con cats vacío equivale a Verify.
func (s *Service) VerifyForCategories(ctx context.Context, patientID, organizationID string, cats []model.DataCategory) (*model.VerificationResult, error) {
	res, err := s.Verify(ctx, patientID, organizationID)
	if err != nil || !res.Valid() || len(cats) == 0 {
		return res, err
	}

	rec := &model.ConsentRecord{AllowedCategories: res.AllowedCategories}
	var denied []model.DataCategory
	for _, c := range cats {
		if !rec.Allows(c) {
			denied = append(denied, c)
		}
	}
	if len(denied) > 0 {
		res.DeniedCategories = denied
		res.Reason = fmt.Sprintf("access denied for categories: %v", denied)
	}
	return res, nil
}

// GetActive retorna el consent vigente, o ErrNotFound si no hay uno activo.
func (s *Service) GetActive(ctx context.Context, patientID, organizationID string) (*model.ConsentRecord, error) {
	rec, err := s.repo.Get(ctx, patientID, organizationID)
	if err != nil {
		return nil, err
	}
	if !rec.IsActiveAt(s.now()) {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

// ListActiveForPatient lista los consents vigentes de un paciente.
func (s *Service) ListActiveForPatient(ctx context.Context, patientID string) ([]model.ConsentRecord, error) {
	return s.repo.ListByPatient(ctx, patientID, true, s.now())
}

// Get retorna el consent (en cualquier estado).
func (s *Service) Get(ctx context.Context, patientID, organizationID string) (*model.ConsentRecord, error) {
	return s.repo.Get(ctx, patientID, organizationID)
}

// Grant crea o reemplaza un consent luego de validar la política.
func (s *Service) Grant(ctx context.Context, actor string, rec *model.ConsentRecord) (*model.ConsentRecord, error) {
	if err := s.ValidatePolicy(rec); err != nil {
		return nil, err
	}
	out, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, rec.PatientID, rec.OrganizationID)
	if s.audit != nil {
		s.audit.ConsentChange(ctx, actor, rec.PatientID, rec.OrganizationID, "granted")
	}
	return out, nil
}

// Revoke revoca el consent del par (patient, org).
func (s *Service) Revoke(ctx context.Context, actor, patientID, organizationID string) error {
	if err := s.repo.Revoke(ctx, patientID, organizationID); err != nil {
		return err
	}
	s.invalidate(ctx, patientID, organizationID)
	if s.audit != nil {
		s.audit.ConsentChange(ctx, actor, patientID, organizationID, "revoked")
	}
	return nil
}

// Renew reactiva un consent revocado, suspendido o expirado con una nueva
// ventana de validez.
func (s *Service) Renew(ctx context.Context, actor, patientID, organizationID string, effectiveAt time.Time, expiresAt *time.Time) (*model.ConsentRecord, error) {
	rec, err := s.repo.Get(ctx, patientID, organizationID)
	if err != nil {
		return nil, err
	}
	if err := rec.Renew(effectiveAt, expiresAt); err != nil {
		return nil, err
	}
	if err := s.ValidatePolicy(rec); err != nil {
		return nil, err
	}
	out, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, patientID, organizationID)
	if s.audit != nil {
		s.audit.ConsentChange(ctx, actor, patientID, organizationID, "renewed")
	}
	return out, nil
}

// ProcessExpired marca EXPIRED los consents vencidos. Retorna cuántos tocó.
func (s *Service) ProcessExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range expired {
		if err := s.repo.UpdateStatus(ctx, rec.PatientID, rec.OrganizationID, model.ConsentExpired); err != nil {
			logger.From(ctx).Warn("expiry sweep: update failed",
				logger.PatientID(rec.PatientID), logger.OrganizationID(rec.OrganizationID), logger.Err(err))
			continue
		}
		s.invalidate(ctx, rec.PatientID, rec.OrganizationID)
		n++
	}
	if n > 0 {
		logger.From(ctx).Info("expired consents processed", logger.Count(n))
	}
	return n, nil
}

// RunSweeper corre ProcessExpired cada interval hasta que el contexto cierre.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.ProcessExpired(ctx); err != nil {
				logger.From(ctx).Error("expiry sweep failed", logger.Err(err))
			}
		}
	}
}

// ValidatePolicy aplica las reglas de consistencia de un consent record.
func (s *Service) ValidatePolicy(rec *model.ConsentRecord) error {
	if rec == nil {
		return fmt.Errorf("consent record is required")
	}
	if strings.TrimSpace(rec.PatientID) == "" || strings.TrimSpace(rec.OrganizationID) == "" {
		return fmt.Errorf("patient id and organization id are required")
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("invalid consent status %q", rec.Status)
	}
	if rec.EffectiveAt.IsZero() {
		return fmt.Errorf("effective date is required")
	}
	if rec.EffectiveAt.After(s.now().Add(maxEffectiveFuture)) {
		return fmt.Errorf("effective date is too far in the future")
	}
	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(rec.EffectiveAt) {
		return fmt.Errorf("expiration date is before effective date")
	}
	if rec.Status == model.ConsentActive && len(rec.AllowedCategories) == 0 {
		return fmt.Errorf("active consent must specify allowed categories")
	}
	for _, c := range rec.AllowedCategories {
		if !c.Valid() {
			return fmt.Errorf("unknown data category %q", c)
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, patientID, organizationID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cacheKey(patientID, organizationID))
	}
}
