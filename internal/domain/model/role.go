package model

import "fmt"

// HealthcareRole identifies a class of actor in the exchange network.
// Role names follow TEFCA participant vocabulary.
type HealthcareRole string

const (
	// System roles
	RoleSystemAdmin HealthcareRole = "SYSTEM_ADMIN"
	RoleAPIClient   HealthcareRole = "API_CLIENT"

	// Provider roles
	RoleAttendingPhysician HealthcareRole = "ATTENDING_PHYSICIAN"
	RolePhysician          HealthcareRole = "PHYSICIAN"
	RoleNurse              HealthcareRole = "NURSE"
	RolePharmacist         HealthcareRole = "PHARMACIST"
	RoleTechnician         HealthcareRole = "TECHNICIAN"

	// Administrative roles
	RoleHealthInfoManager HealthcareRole = "HEALTH_INFO_MANAGER"
	RoleComplianceOfficer HealthcareRole = "COMPLIANCE_OFFICER"
	RoleDataAnalyst       HealthcareRole = "DATA_ANALYST"

	// TEFCA network roles
	RoleTefcaParticipant HealthcareRole = "TEFCA_PARTICIPANT"
	RoleTefcaAdmin       HealthcareRole = "TEFCA_ADMIN"

	// Patient access
	RolePatient      HealthcareRole = "PATIENT"
	RolePatientProxy HealthcareRole = "PATIENT_PROXY"
)

// AllRoles lists every valid role.
var AllRoles = []HealthcareRole{
	RoleSystemAdmin, RoleAPIClient,
	RoleAttendingPhysician, RolePhysician, RoleNurse, RolePharmacist, RoleTechnician,
	RoleHealthInfoManager, RoleComplianceOfficer, RoleDataAnalyst,
	RoleTefcaParticipant, RoleTefcaAdmin,
	RolePatient, RolePatientProxy,
}

var roleSet = func() map[HealthcareRole]struct{} {
	m := make(map[HealthcareRole]struct{}, len(AllRoles))
	for _, r := range AllRoles {
		m[r] = struct{}{}
	}
	return m
}()

// Valid reports whether the role belongs to the enum.
func (r HealthcareRole) Valid() bool {
	_, ok := roleSet[r]
	return ok
}

// Administrative reports whether the role carries administrative privileges.
func (r HealthcareRole) Administrative() bool {
	return r == RoleSystemAdmin || r == RoleTefcaAdmin || r == RoleComplianceOfficer
}

// Clinical reports whether the role belongs to direct patient care.
func (r HealthcareRole) Clinical() bool {
	switch r {
	case RoleAttendingPhysician, RolePhysician, RoleNurse, RolePharmacist:
		return true
	}
	return false
}

// ParseHealthcareRole validates and converts a raw string.
func ParseHealthcareRole(s string) (HealthcareRole, error) {
	r := HealthcareRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown healthcare role %q", s)
	}
	return r, nil
}
