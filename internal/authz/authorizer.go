// Package authz implementa RBAC sobre roles healthcare y el motor de
// decisión de acceso (roles + consent + MFA + break-glass).
package authz

import (
	"context"

	"github.com/bridgehealth/consentbridge/internal/audit"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// Authorizer responde chequeos de roles y permisos, auditando cada uno.
type Authorizer struct {
	audit *audit.Recorder
}

// New crea un Authorizer. El recorder puede ser nil en tests.
func New(rec *audit.Recorder) *Authorizer {
	return &Authorizer{audit: rec}
}

// HasPermission verifica un permiso y deja constancia en el audit trail.
func (a *Authorizer) HasPermission(ctx context.Context, p *model.Principal, perm model.Permission) bool {
	if p == nil {
		return false
	}
	granted := false
	for _, role := range p.Roles {
		if RoleHasPermission(role, perm) {
			granted = true
			break
		}
	}
	if a.audit != nil {
		a.audit.Authorization(ctx, p.UserID, perm, granted, map[string]any{
			"roles": rolesAsStrings(p.Roles),
		})
	}
	return granted
}

// HasAnyPermission verifica que tenga al menos uno de los permisos.
func (a *Authorizer) HasAnyPermission(ctx context.Context, p *model.Principal, perms ...model.Permission) bool {
	for _, perm := range perms {
		if a.HasPermission(ctx, p, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions verifica que tenga todos los permisos.
func (a *Authorizer) HasAllPermissions(ctx context.Context, p *model.Principal, perms ...model.Permission) bool {
	if len(perms) == 0 {
		return false
	}
	for _, perm := range perms {
		if !a.HasPermission(ctx, p, perm) {
			return false
		}
	}
	return true
}

// CanAccessPatientData aplica las reglas de alcance por rol:
// pacientes sólo ven lo propio, proxies sólo sus pacientes autorizados,
// el resto necesita el permiso de lectura.
func (a *Authorizer) CanAccessPatientData(ctx context.Context, p *model.Principal, patientID string) bool {
	if p == nil || patientID == "" {
		return false
	}
	if !a.HasPermission(ctx, p, model.PermReadPatientData) {
		return false
	}
	if p.HasRole(model.RolePatient) && !p.HasRole(model.RoleSystemAdmin) {
		return p.UserID == patientID
	}
	if p.HasRole(model.RolePatientProxy) {
		return p.MayActFor(patientID)
	}
	return true
}

func rolesAsStrings(roles []model.HealthcareRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
