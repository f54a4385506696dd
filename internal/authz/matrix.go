package authz

import "github.com/bridgehealth/consentbridge/internal/domain/model"

// rolePermissions is the static RBAC matrix. Roles are additive: a principal
// with several roles gets the union of their permission sets.
var rolePermissions = map[model.HealthcareRole][]model.Permission{
	model.RoleSystemAdmin: {
		model.PermReadPatientData, model.PermWritePatientData, model.PermDeletePatientData,
		model.PermReadConsent, model.PermWriteConsent, model.PermManageConsent,
		model.PermReadAuditLogs, model.PermWriteAuditLogs, model.PermManageAudit,
		model.PermManageUsers, model.PermManageSystem, model.PermViewMetrics,
		model.PermAPIAccess, model.PermBulkData, model.PermSystemAPI, model.PermBreakGlass,
		model.PermTefcaQuery, model.PermTefcaRespond, model.PermTefcaAdmin,
	},
	model.RoleAPIClient: {
		model.PermAPIAccess, model.PermSystemAPI, model.PermWriteAuditLogs,
	},
	model.RoleAttendingPhysician: {
		model.PermReadPatientData, model.PermWritePatientData,
		model.PermReadConsent, model.PermWriteConsent,
		model.PermAPIAccess, model.PermBreakGlass,
		model.PermTefcaQuery, model.PermTefcaRespond,
	},
	model.RolePhysician: {
		model.PermReadPatientData, model.PermWritePatientData,
		model.PermReadConsent, model.PermWriteConsent,
		model.PermAPIAccess,
		model.PermTefcaQuery, model.PermTefcaRespond,
	},
	model.RoleNurse: {
		model.PermReadPatientData, model.PermWritePatientData,
		model.PermReadConsent, model.PermWriteConsent,
		model.PermAPIAccess,
	},
	model.RolePharmacist: {
		model.PermReadPatientData, model.PermReadConsent, model.PermAPIAccess,
	},
	model.RoleTechnician: {
		model.PermReadPatientData, model.PermAPIAccess,
	},
	model.RoleHealthInfoManager: {
		model.PermReadPatientData, model.PermWritePatientData,
		model.PermReadConsent, model.PermWriteConsent, model.PermManageConsent,
		model.PermReadAuditLogs, model.PermAPIAccess, model.PermBulkData,
	},
	model.RoleComplianceOfficer: {
		model.PermReadPatientData, model.PermReadConsent,
		model.PermReadAuditLogs, model.PermWriteAuditLogs, model.PermManageAudit,
		model.PermViewMetrics, model.PermAPIAccess,
	},
	model.RoleDataAnalyst: {
		model.PermReadAuditLogs, model.PermViewMetrics,
		model.PermAPIAccess, model.PermBulkData,
	},
	model.RoleTefcaParticipant: {
		model.PermReadPatientData, model.PermReadConsent, model.PermAPIAccess,
		model.PermTefcaQuery, model.PermTefcaRespond,
	},
	model.RoleTefcaAdmin: {
		model.PermReadPatientData, model.PermWritePatientData,
		model.PermReadConsent, model.PermWriteConsent, model.PermManageConsent,
		model.PermReadAuditLogs, model.PermManageAudit, model.PermManageUsers,
		model.PermViewMetrics, model.PermAPIAccess, model.PermBulkData,
		model.PermTefcaQuery, model.PermTefcaRespond, model.PermTefcaAdmin,
	},
	model.RolePatient: {
		model.PermReadPatientData, model.PermReadConsent, model.PermWriteConsent,
		model.PermAPIAccess,
	},
	model.RolePatientProxy: {
		model.PermReadPatientData, model.PermReadConsent, model.PermWriteConsent,
		model.PermAPIAccess,
	},
}

// PermissionsForRole retorna el set de permisos de un rol.
func PermissionsForRole(role model.HealthcareRole) []model.Permission {
	return append([]model.Permission(nil), rolePermissions[role]...)
}

// PermissionsForRoles returns the union of permission sets for the roles.
func PermissionsForRoles(roles []model.HealthcareRole) []model.Permission {
	seen := make(map[model.Permission]struct{})
	var out []model.Permission
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// RoleHasPermission reports whether the single role grants the permission.
func RoleHasPermission(role model.HealthcareRole, perm model.Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
