package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

func TestMatrix_ReadPatientData(t *testing.T) {
	// Roles administrativos puros y clientes de API no leen datos clínicos.
	for _, role := range []model.HealthcareRole{model.RoleAPIClient, model.RoleDataAnalyst} {
		require.False(t, RoleHasPermission(role, model.PermReadPatientData), "rol %s", role)
	}

	for _, role := range []model.HealthcareRole{
		model.RoleSystemAdmin, model.RoleAttendingPhysician, model.RolePhysician,
		model.RoleNurse, model.RolePharmacist, model.RoleTechnician,
		model.RoleHealthInfoManager, model.RoleComplianceOfficer,
		model.RoleTefcaParticipant, model.RoleTefcaAdmin,
		model.RolePatient, model.RolePatientProxy,
	} {
		require.True(t, RoleHasPermission(role, model.PermReadPatientData), "rol %s", role)
	}
}

func TestMatrix_BreakGlass(t *testing.T) {
	permitted := map[model.HealthcareRole]bool{
		model.RoleSystemAdmin:        true,
		model.RoleAttendingPhysician: true,
	}
	for _, role := range model.AllRoles {
		require.Equal(t, permitted[role], RoleHasPermission(role, model.PermBreakGlass), "rol %s", role)
	}
}

func TestMatrix_TefcaQuery(t *testing.T) {
	permitted := map[model.HealthcareRole]bool{
		model.RoleSystemAdmin:        true,
		model.RoleAttendingPhysician: true,
		model.RolePhysician:          true,
		model.RoleTefcaParticipant:   true,
		model.RoleTefcaAdmin:         true,
	}
	for _, role := range model.AllRoles {
		require.Equal(t, permitted[role], RoleHasPermission(role, model.PermTefcaQuery), "rol %s", role)
	}
}

func TestMatrix_PatientSelfService(t *testing.T) {
	// Pacientes y proxies gestionan sus propios consents.
	for _, role := range []model.HealthcareRole{model.RolePatient, model.RolePatientProxy} {
		require.True(t, RoleHasPermission(role, model.PermReadConsent), "rol %s", role)
		require.True(t, RoleHasPermission(role, model.PermWriteConsent), "rol %s", role)
		require.False(t, RoleHasPermission(role, model.PermManageConsent), "rol %s", role)
	}
}

func TestPermissionsForRoles_Union(t *testing.T) {
	union := PermissionsForRoles([]model.HealthcareRole{model.RoleTechnician, model.RoleDataAnalyst})

	set := make(map[model.Permission]struct{}, len(union))
	for _, p := range union {
		_, dup := set[p]
		require.False(t, dup, "permiso repetido %s", p)
		set[p] = struct{}{}
	}

	require.Contains(t, set, model.PermReadPatientData) // del técnico
	require.Contains(t, set, model.PermBulkData)        // del analista
	require.Contains(t, set, model.PermAPIAccess)       // de ambos, una vez
}

func TestPermissionsForRole_Copy(t *testing.T) {
	a := PermissionsForRole(model.RoleNurse)
	require.NotEmpty(t, a)
	a[0] = model.Permission("tampered")

	b := PermissionsForRole(model.RoleNurse)
	require.NotEqual(t, a[0], b[0], "la matriz no debe ser mutable desde afuera")
}
