package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthcareRole_Parse(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseHealthcareRole(string(r))
		require.NoError(t, err)
		require.Equal(t, r, got)
	}

	_, err := ParseHealthcareRole("SUPERUSER")
	require.Error(t, err)
	_, err = ParseHealthcareRole("physician")
	require.Error(t, err)
}

func TestHealthcareRole_Classification(t *testing.T) {
	require.True(t, RoleSystemAdmin.Administrative())
	require.True(t, RoleTefcaAdmin.Administrative())
	require.True(t, RoleComplianceOfficer.Administrative())
	require.False(t, RolePhysician.Administrative())

	require.True(t, RoleAttendingPhysician.Clinical())
	require.True(t, RoleNurse.Clinical())
	require.False(t, RoleDataAnalyst.Clinical())
	require.False(t, RolePatient.Clinical())
}

func TestDataCategory_Restricted(t *testing.T) {
	require.True(t, CategoryMentalHealth.Restricted())
	require.True(t, CategorySubstanceUse.Restricted())

	for _, c := range AllCategories {
		if c == CategoryMentalHealth || c == CategorySubstanceUse {
			continue
		}
		require.False(t, c.Restricted(), "categoría %s no debería ser restringida", c)
	}
}

func TestParseDataCategory(t *testing.T) {
	got, err := ParseDataCategory("LAB_RESULTS")
	require.NoError(t, err)
	require.Equal(t, CategoryLabResults, got)

	_, err = ParseDataCategory("GENOMICS")
	require.Error(t, err)
}

func TestPrincipal_HasRole_MayActFor(t *testing.T) {
	p := Principal{
		UserID:             "PROXY-001",
		Roles:              []HealthcareRole{RolePatientProxy},
		AuthorizedPatients: []string{"PAT-000100", "PAT-000101"},
	}

	require.True(t, p.HasRole(RolePatientProxy))
	require.False(t, p.HasRole(RolePatient))

	require.True(t, p.MayActFor("PAT-000100"))
	require.True(t, p.MayActFor("PAT-000101"))
	require.False(t, p.MayActFor("PAT-000999"))
}
