package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	storemem "github.com/bridgehealth/consentbridge/internal/store/memory"
)

func TestRecorder_Authorization(t *testing.T) {
	st := storemem.New()
	rec := NewRecorder(st.Audit())
	ctx := context.Background()

	rec.Authorization(ctx, "dr-1", model.PermReadPatientData, true, nil)
	rec.Authorization(ctx, "dr-1", model.PermBreakGlass, false, map[string]any{"roles": []string{"PHYSICIAN"}})

	evs, err := st.Audit().ListByActor(ctx, "dr-1", 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	// Más recientes primero.
	require.Equal(t, model.AuditFailure, evs[0].Outcome)
	require.Equal(t, "permission:"+string(model.PermBreakGlass), evs[0].Resource)
	require.Equal(t, model.AuditSuccess, evs[1].Outcome)

	require.NotEmpty(t, evs[0].ID)
	require.False(t, evs[0].OccurredAt.IsZero())
	require.Equal(t, string(model.PermBreakGlass), evs[0].Details["permission"])
}

func TestRecorder_ConsentLifecycleEvents(t *testing.T) {
	st := storemem.New()
	rec := NewRecorder(st.Audit())
	ctx := context.Background()

	rec.ConsentChange(ctx, "PAT-1", "PAT-1", "ORG-1", "granted")
	rec.ConsentChange(ctx, "PAT-1", "PAT-1", "ORG-1", "revoked")
	rec.ConsentCheck(ctx, "dr-1", &model.VerificationResult{
		PatientID: "PAT-1", OrganizationID: "ORG-1", Outcome: model.VerificationRevoked,
	})
	rec.BreakGlass(ctx, "dr-er", "PAT-1", nil)

	evs, err := st.Audit().ListByResource(ctx, "patient:PAT-1", 10)
	require.NoError(t, err)
	require.Len(t, evs, 4)

	require.Equal(t, model.AuditBreakGlass, evs[0].Action)
	require.Equal(t, model.AuditSuccess, evs[0].Outcome)
	require.Equal(t, true, evs[0].Details["emergency_override"])

	require.Equal(t, model.AuditConsentCheck, evs[1].Action)
	require.Equal(t, model.AuditFailure, evs[1].Outcome)
}
