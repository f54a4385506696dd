package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/audit"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	storemem "github.com/bridgehealth/consentbridge/internal/store/memory"
)

// stubVerifier devuelve un resultado fijo, registrando la última consulta.
type stubVerifier struct {
	result *model.VerificationResult
	err    error

	lastPatient string
	lastOrg     string
	lastCats    []model.DataCategory
	calls       int
}

func (s *stubVerifier) VerifyForCategories(_ context.Context, patientID, organizationID string, cats []model.DataCategory) (*model.VerificationResult, error) {
	s.calls++
	s.lastPatient, s.lastOrg, s.lastCats = patientID, organizationID, cats
	return s.result, s.err
}

func validResult(patientID, orgID string) *model.VerificationResult {
	return &model.VerificationResult{
		PatientID:      patientID,
		OrganizationID: orgID,
		Outcome:        model.VerificationValid,
	}
}

func physician(userID string) *model.Principal {
	return &model.Principal{
		UserID:         userID,
		OrganizationID: "ORG-001",
		Roles:          []model.HealthcareRole{model.RolePhysician},
	}
}

func TestEngine_Evaluate_IdentityAndInput(t *testing.T) {
	sv := &stubVerifier{result: validResult("PAT-1", "ORG-001")}
	eng := NewEngine(New(nil), sv)
	ctx := context.Background()

	d, err := eng.Evaluate(ctx, AccessRequest{PatientID: "PAT-1", OrganizationID: "ORG-001"})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
	require.Contains(t, d.Reason, "principal")

	d, err = eng.Evaluate(ctx, AccessRequest{Principal: physician("dr-1"), OrganizationID: "ORG-001"})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)

	d, err = eng.Evaluate(ctx, AccessRequest{
		Principal: physician("dr-1"), PatientID: "PAT-1", OrganizationID: "ORG-001",
		Category: model.DataCategory("BOGUS"),
	})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
	require.Contains(t, d.Reason, "category")

	require.Zero(t, sv.calls, "ningún DENY temprano debe tocar el consent service")
}

func TestEngine_Evaluate_RoleWithoutReadPermission(t *testing.T) {
	sv := &stubVerifier{result: validResult("PAT-1", "ORG-001")}
	eng := NewEngine(New(nil), sv)

	for _, role := range []model.HealthcareRole{model.RoleAPIClient, model.RoleDataAnalyst} {
		p := &model.Principal{UserID: "svc-1", Roles: []model.HealthcareRole{role}}
		d, err := eng.Evaluate(context.Background(), AccessRequest{
			Principal: p, PatientID: "PAT-1", OrganizationID: "ORG-001",
		})
		require.NoError(t, err)
		require.Equal(t, DecisionDeny, d.Decision, "rol %s", role)
	}
	require.Zero(t, sv.calls)
}

func TestEngine_Evaluate_PatientSelfAccess(t *testing.T) {
	sv := &stubVerifier{result: validResult("PAT-7", "ORG-001")}
	eng := NewEngine(New(nil), sv)

	self := &model.Principal{
		UserID: "PAT-7", OrganizationID: "ORG-001",
		Roles: []model.HealthcareRole{model.RolePatient},
	}

	d, err := eng.Evaluate(context.Background(), AccessRequest{
		Principal: self, PatientID: "PAT-7", OrganizationID: "ORG-001",
	})
	require.NoError(t, err)
	require.Equal(t, DecisionPermit, d.Decision)
	require.Zero(t, sv.calls, "el acceso propio no requiere consent inter-org")

	// Mismo rol, otro paciente: fuera de alcance.
	d, err = eng.Evaluate(context.Background(), AccessRequest{
		Principal: self, PatientID: "PAT-8", OrganizationID: "ORG-001",
	})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
}

func TestEngine_Evaluate_ProxyScope(t *testing.T) {
	sv := &stubVerifier{result: validResult("PAT-100", "ORG-001")}
	eng := NewEngine(New(nil), sv)

	proxy := &model.Principal{
		UserID: "PROXY-1", OrganizationID: "ORG-001",
		Roles:              []model.HealthcareRole{model.RolePatientProxy},
		AuthorizedPatients: []string{"PAT-100"},
	}

	d, err := eng.Evaluate(context.Background(), AccessRequest{
		Principal: proxy, PatientID: "PAT-100", OrganizationID: "ORG-001",
	})
	require.NoError(t, err)
	require.Equal(t, DecisionPermit, d.Decision)

	d, err = eng.Evaluate(context.Background(), AccessRequest{
		Principal: proxy, PatientID: "PAT-200", OrganizationID: "ORG-001",
	})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
}

func TestEngine_Evaluate_TefcaExchange(t *testing.T) {
	sv := &stubVerifier{result: validResult("PAT-1", "ORG-QHIN")}
	eng := NewEngine(New(nil), sv)

	nurse := &model.Principal{UserID: "rn-1", Roles: []model.HealthcareRole{model.RoleNurse}}
	d, err := eng.Evaluate(context.Background(), AccessRequest{
		Principal: nurse, PatientID: "PAT-1", OrganizationID: "ORG-QHIN", TefcaExchange: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
	require.Contains(t, d.Reason, "TEFCA")

	participant := &model.Principal{UserID: "qhin-1", Roles: []model.HealthcareRole{model.RoleTefcaParticipant}}
	d, err = eng.Evaluate(context.Background(), AccessRequest{
		Principal: participant, PatientID: "PAT-1", OrganizationID: "ORG-QHIN", TefcaExchange: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionPermit, d.Decision)
}

func TestEngine_Evaluate_MFA(t *testing.T) {
	sv := &stubVerifier{result: validResult("PAT-1", "ORG-001")}
	eng := NewEngine(New(nil), sv)

	p := physician("dr-1")
	d, err := eng.Evaluate(context.Background(), AccessRequest{
		Principal: p, PatientID: "PAT-1", OrganizationID: "ORG-001", RequireMFA: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
	require.Contains(t, d.Reason, "multi-factor")

	p.MFACompleted = true
	d, err = eng.Evaluate(context.Background(), AccessRequest{
		Principal: p, PatientID: "PAT-1", OrganizationID: "ORG-001", RequireMFA: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionPermit, d.Decision)
}

func TestEngine_Evaluate_BreakGlass(t *testing.T) {
	// El verifier devuelve consent revocado: el override debe ignorarlo.
	sv := &stubVerifier{result: &model.VerificationResult{
		PatientID: "PAT-1", OrganizationID: "ORG-001",
		Outcome: model.VerificationRevoked, Reason: "consent has been revoked",
	}}
	eng := NewEngine(New(nil), sv)

	attending := &model.Principal{UserID: "dr-er", Roles: []model.HealthcareRole{model.RoleAttendingPhysician}}
	d, err := eng.Evaluate(context.Background(), AccessRequest{
		Principal: attending, PatientID: "PAT-1", OrganizationID: "ORG-001", EmergencyOverride: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionPermit, d.Decision)
	require.True(t, d.BreakGlass)
	require.Zero(t, sv.calls, "break-glass no consulta consent")

	// NURSE no tiene el permiso de override.
	nurse := &model.Principal{UserID: "rn-1", Roles: []model.HealthcareRole{model.RoleNurse}}
	d, err = eng.Evaluate(context.Background(), AccessRequest{
		Principal: nurse, PatientID: "PAT-1", OrganizationID: "ORG-001", EmergencyOverride: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionDeny, d.Decision)
	require.False(t, d.BreakGlass)
}

func TestEngine_Evaluate_ConsentOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid consent denies", func(t *testing.T) {
		sv := &stubVerifier{result: &model.VerificationResult{
			PatientID: "PAT-1", OrganizationID: "ORG-001",
			Outcome: model.VerificationRevoked, Reason: "consent has been revoked",
		}}
		eng := NewEngine(New(nil), sv)

		d, err := eng.Evaluate(ctx, AccessRequest{
			Principal: physician("dr-1"), PatientID: "PAT-1", OrganizationID: "ORG-001",
		})
		require.NoError(t, err)
		require.Equal(t, DecisionDeny, d.Decision)
		require.NotNil(t, d.Consent)
		require.Equal(t, model.VerificationRevoked, d.Consent.Outcome)
	})

	t.Run("denied category denies", func(t *testing.T) {
		res := validResult("PAT-1", "ORG-001")
		res.DeniedCategories = []model.DataCategory{model.CategoryMentalHealth}
		sv := &stubVerifier{result: res}
		eng := NewEngine(New(nil), sv)

		d, err := eng.Evaluate(ctx, AccessRequest{
			Principal: physician("dr-1"), PatientID: "PAT-1", OrganizationID: "ORG-001",
			Category: model.CategoryMentalHealth,
		})
		require.NoError(t, err)
		require.Equal(t, DecisionDeny, d.Decision)
		require.Equal(t, []model.DataCategory{model.CategoryMentalHealth}, sv.lastCats)
	})

	t.Run("valid consent permits", func(t *testing.T) {
		sv := &stubVerifier{result: validResult("PAT-1", "ORG-001")}
		eng := NewEngine(New(nil), sv)

		d, err := eng.Evaluate(ctx, AccessRequest{
			Principal: physician("dr-1"), PatientID: "PAT-1", OrganizationID: "ORG-001",
			Category: model.CategoryLabResults,
		})
		require.NoError(t, err)
		require.Equal(t, DecisionPermit, d.Decision)
		require.NotNil(t, d.Consent)
		require.Equal(t, "PAT-1", sv.lastPatient)
		require.Equal(t, "ORG-001", sv.lastOrg)
	})

	t.Run("verifier error propagates", func(t *testing.T) {
		sv := &stubVerifier{err: errors.New("store down")}
		eng := NewEngine(New(nil), sv)

		_, err := eng.Evaluate(ctx, AccessRequest{
			Principal: physician("dr-1"), PatientID: "PAT-1", OrganizationID: "ORG-001",
		})
		require.Error(t, err)
	})
}

func TestAuthorizer_CanAccessPatientData(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	admin := &model.Principal{UserID: "root", Roles: []model.HealthcareRole{model.RoleSystemAdmin}}
	require.True(t, a.CanAccessPatientData(ctx, admin, "PAT-1"))
	require.False(t, a.CanAccessPatientData(ctx, admin, ""))
	require.False(t, a.CanAccessPatientData(ctx, nil, "PAT-1"))

	// Un admin que además es paciente no queda limitado a sí mismo.
	adminPatient := &model.Principal{
		UserID: "PAT-9",
		Roles:  []model.HealthcareRole{model.RolePatient, model.RoleSystemAdmin},
	}
	require.True(t, a.CanAccessPatientData(ctx, adminPatient, "PAT-1"))
}

func TestEngine_BreakGlass_RecordsAuditEvent(t *testing.T) {
	ctx := context.Background()
	st := storemem.New()
	rec := audit.NewRecorder(st.Audit())
	sv := &stubVerifier{result: validResult("PAT-9", "ORG-001")}
	eng := NewEngine(New(rec), sv)

	attending := &model.Principal{
		UserID:         "dr-er",
		OrganizationID: "ORG-001",
		Roles:          []model.HealthcareRole{model.RoleAttendingPhysician},
	}
	d, err := eng.Evaluate(ctx, AccessRequest{
		Principal: attending, PatientID: "PAT-9", OrganizationID: "ORG-001",
		Category: model.CategoryLabResults, EmergencyOverride: true,
	})
	require.NoError(t, err)
	require.Equal(t, DecisionPermit, d.Decision)
	require.True(t, d.BreakGlass)
	require.Zero(t, sv.calls, "break-glass no consulta consent")

	// El override queda en el trail atado al paciente.
	events, err := st.Audit().ListByResource(ctx, "patient:PAT-9", 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	ev := events[0]
	require.Equal(t, model.AuditBreakGlass, ev.Action)
	require.Equal(t, "dr-er", ev.Actor)
	require.Equal(t, model.AuditSuccess, ev.Outcome)
	require.Equal(t, true, ev.Details["emergency_override"])
	require.Equal(t, "ORG-001", ev.Details["organization_id"])
}
