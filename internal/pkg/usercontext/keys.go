package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyUserID        = "user_id"
	KeyUserEmail     = "user_email"
	KeyUserRole      = "user_role"
	KeyTenantSlug    = "tenant_slug"
	KeyTenantName    = "tenant_name"
	KeyAccountType   = "account_type"
	KeyFromProtected = "from_protected"
)
