package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazid360"

	UserLookupRoute = "/v1/users/{ref}"
	SelfLookupRoute = "/v1/me"
	WhoamiRoute     = "/v1/whoami"

	DebugClaimsRoute = "/v1/debug/claims"

	AuditDecisionsRoute = "/v1/audit/decisions"
)
