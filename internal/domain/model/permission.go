package model

// Permission is a fine-grained capability checked on every protected
// operation. Roles map to permission sets in the authz package.
type Permission string

const (
	PermReadPatientData   Permission = "read:patient-data"
	PermWritePatientData  Permission = "write:patient-data"
	PermDeletePatientData Permission = "delete:patient-data"

	PermReadConsent   Permission = "read:consent"
	PermWriteConsent  Permission = "write:consent"
	PermManageConsent Permission = "manage:consent"

	PermReadAuditLogs  Permission = "read:audit-logs"
	PermWriteAuditLogs Permission = "write:audit-logs"
	PermManageAudit    Permission = "manage:audit"

	PermManageUsers  Permission = "manage:users"
	PermManageSystem Permission = "manage:system"
	PermViewMetrics  Permission = "view:system-metrics"
	PermAPIAccess    Permission = "access:api"
	PermBulkData     Permission = "access:bulk-data"
	PermSystemAPI    Permission = "access:system-api"
	PermBreakGlass   Permission = "access:break-glass"

	PermTefcaQuery   Permission = "tefca:query"
	PermTefcaRespond Permission = "tefca:respond"
	PermTefcaAdmin   Permission = "tefca:admin"
)
