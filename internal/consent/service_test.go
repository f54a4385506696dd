package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/audit"
	cachemem "github.com/bridgehealth/consentbridge/internal/cache/memory"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	storemem "github.com/bridgehealth/consentbridge/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *storemem.Store) {
	t.Helper()
	st := storemem.New()
	svc := NewService(st.Consents(), cachemem.New(time.Minute), time.Minute, audit.NewRecorder(st.Audit()))
	return svc, st
}

func activeRecord(patientID, orgID string, cats ...model.DataCategory) *model.ConsentRecord {
	if len(cats) == 0 {
		cats = []model.DataCategory{model.CategoryAll}
	}
	return &model.ConsentRecord{
		PatientID:         patientID,
		OrganizationID:    orgID,
		Status:            model.ConsentActive,
		AllowedCategories: cats,
		EffectiveAt:       time.Now().UTC().Add(-time.Hour),
	}
}

func TestService_Verify_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Verify(context.Background(), "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.VerificationNotFound, res.Outcome)
	require.False(t, res.Valid())
}

func TestService_Verify_MissingIDs(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Verify(context.Background(), "", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.VerificationInvalid, res.Outcome)
}

func TestService_Verify_Statuses(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		status model.ConsentStatus
		want   model.VerificationOutcome
	}{
		{model.ConsentActive, model.VerificationValid},
		{model.ConsentRevoked, model.VerificationRevoked},
		{model.ConsentSuspended, model.VerificationInvalid},
		{model.ConsentDenied, model.VerificationInvalid},
		{model.ConsentPending, model.VerificationInvalid},
	}
	for i, tc := range cases {
		rec := activeRecord("PAT-1", "ORG-1")
		rec.OrganizationID = "ORG-" + string(rune('A'+i))
		rec.Status = tc.status
		_, err := st.Consents().Upsert(ctx, rec)
		require.NoError(t, err)

		res, err := svc.Verify(ctx, rec.PatientID, rec.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, tc.want, res.Outcome, "status %s", tc.status)
	}
}

func TestService_Verify_ExpiredMarksRecord(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	rec := activeRecord("PAT-1", "ORG-1")
	past := time.Now().UTC().Add(-time.Minute)
	rec.ExpiresAt = &past
	_, err := st.Consents().Upsert(ctx, rec)
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.VerificationExpired, res.Outcome)

	// El record queda marcado EXPIRED en el store.
	stored, err := st.Consents().Get(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.ConsentExpired, stored.Status)
}

func TestService_Verify_Cached(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := st.Consents().Upsert(ctx, activeRecord("PAT-1", "ORG-1"))
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.True(t, res.Valid())

	// Escritura directa al store, sin pasar por el service: el cache
	// sigue sirviendo el resultado anterior.
	require.NoError(t, st.Consents().UpdateStatus(ctx, "PAT-1", "ORG-1", model.ConsentRevoked))
	res, err = svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.True(t, res.Valid(), "el resultado cacheado sigue vigente")

	// Revoke vía service invalida el cache.
	require.NoError(t, svc.Revoke(ctx, "tester", "PAT-1", "ORG-1"))
	res, err = svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.VerificationRevoked, res.Outcome)
}

func TestService_VerifyForCategories(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := st.Consents().Upsert(ctx, activeRecord("PAT-1", "ORG-1", model.CategoryAll))
	require.NoError(t, err)

	res, err := svc.VerifyForCategories(ctx, "PAT-1", "ORG-1",
		[]model.DataCategory{model.CategoryLabResults, model.CategoryMedications})
	require.NoError(t, err)
	require.True(t, res.Valid())
	require.Empty(t, res.DeniedCategories)

	// ALL no cubre categorías restringidas.
	res, err = svc.VerifyForCategories(ctx, "PAT-1", "ORG-1",
		[]model.DataCategory{model.CategoryMentalHealth})
	require.NoError(t, err)
	require.Equal(t, []model.DataCategory{model.CategoryMentalHealth}, res.DeniedCategories)

	// Lista vacía equivale a Verify.
	res, err = svc.VerifyForCategories(ctx, "PAT-1", "ORG-1", nil)
	require.NoError(t, err)
	require.True(t, res.Valid())
	require.Empty(t, res.DeniedCategories)
}

func TestService_GrantRevokeRenew(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	out, err := svc.Grant(ctx, "PAT-1", activeRecord("PAT-1", "ORG-1", model.CategoryLabResults))
	require.NoError(t, err)
	require.NotEmpty(t, out.ID)
	require.Equal(t, model.ConsentActive, out.Status)

	res, err := svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.True(t, res.Valid())

	require.NoError(t, svc.Revoke(ctx, "PAT-1", "PAT-1", "ORG-1"))
	res, err = svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.VerificationRevoked, res.Outcome)

	renewed, err := svc.Renew(ctx, "PAT-1", "PAT-1", "ORG-1", time.Now().UTC(), nil)
	require.NoError(t, err)
	require.Equal(t, model.ConsentActive, renewed.Status)

	res, err = svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.True(t, res.Valid())
}

func TestService_Renew_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Renew(ctx, "x", "PAT-missing", "ORG-1", time.Now().UTC(), nil)
	require.True(t, repository.IsNotFound(err))

	_, err = svc.Grant(ctx, "PAT-1", activeRecord("PAT-1", "ORG-1"))
	require.NoError(t, err)

	_, err = svc.Renew(ctx, "x", "PAT-1", "ORG-1", time.Now().UTC(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot be renewed")
}

func TestService_ValidatePolicy(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now().UTC()

	require.Error(t, svc.ValidatePolicy(nil))

	rec := activeRecord("PAT-1", "ORG-1")
	require.NoError(t, svc.ValidatePolicy(rec))

	missing := *rec
	missing.PatientID = " "
	require.Error(t, svc.ValidatePolicy(&missing))

	badStatus := *rec
	badStatus.Status = model.ConsentStatus("LIMBO")
	require.Error(t, svc.ValidatePolicy(&badStatus))

	noEffective := *rec
	noEffective.EffectiveAt = time.Time{}
	require.Error(t, svc.ValidatePolicy(&noEffective))

	farFuture := *rec
	farFuture.EffectiveAt = now.Add(2 * 365 * 24 * time.Hour)
	require.Error(t, svc.ValidatePolicy(&farFuture))

	inverted := *rec
	before := rec.EffectiveAt.Add(-time.Hour)
	inverted.ExpiresAt = &before
	require.Error(t, svc.ValidatePolicy(&inverted))

	noCats := *rec
	noCats.AllowedCategories = nil
	require.Error(t, svc.ValidatePolicy(&noCats), "un consent ACTIVE sin categorías no dice nada")

	badCat := *rec
	badCat.AllowedCategories = []model.DataCategory{"GENOMICS"}
	require.Error(t, svc.ValidatePolicy(&badCat))
}

func TestService_ProcessExpired(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	expired := activeRecord("PAT-1", "ORG-1")
	expired.ExpiresAt = &past
	_, err := st.Consents().Upsert(ctx, expired)
	require.NoError(t, err)

	_, err = st.Consents().Upsert(ctx, activeRecord("PAT-2", "ORG-1"))
	require.NoError(t, err)

	n, err := svc.ProcessExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stored, err := st.Consents().Get(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.Equal(t, model.ConsentExpired, stored.Status)

	// Segunda pasada: nada que hacer.
	n, err = svc.ProcessExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_ListActiveForPatient(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := st.Consents().Upsert(ctx, activeRecord("PAT-1", "ORG-B"))
	require.NoError(t, err)
	_, err = st.Consents().Upsert(ctx, activeRecord("PAT-1", "ORG-A"))
	require.NoError(t, err)

	revoked := activeRecord("PAT-1", "ORG-C")
	revoked.Status = model.ConsentRevoked
	_, err = st.Consents().Upsert(ctx, revoked)
	require.NoError(t, err)

	recs, err := svc.ListActiveForPatient(ctx, "PAT-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "ORG-A", recs[0].OrganizationID, "orden estable por organización")
	require.Equal(t, "ORG-B", recs[1].OrganizationID)
}

func TestService_Verify_RecordsConsentCheck(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := st.Consents().Upsert(ctx, activeRecord("PAT-1", "ORG-1"))
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	require.True(t, res.Valid())

	events, err := st.Audit().ListByResource(ctx, "patient:PAT-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.AuditConsentCheck, events[0].Action)
	require.Equal(t, "ORG-1", events[0].Actor)
	require.Equal(t, model.AuditSuccess, events[0].Outcome)

	// La respuesta cacheada no duplica el evento.
	_, err = svc.Verify(ctx, "PAT-1", "ORG-1")
	require.NoError(t, err)
	events, err = st.Audit().ListByResource(ctx, "patient:PAT-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Una verificación que falla queda como FAILURE.
	_, err = svc.Verify(ctx, "PAT-2", "ORG-1")
	require.NoError(t, err)
	events, err = st.Audit().ListByResource(ctx, "patient:PAT-2", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.AuditFailure, events[0].Outcome)
}
