package constants

// Static route constants
const (
	HomeRoute         = "/"
	LoginRoute        = "/login"
	RegisterRoute     = "/register"
	LogoutRoute       = "/logout"
	TokenRoute        = "/token"
	BillingRoute      = "/billing"
	TransactionsRoute = "/transactions"
	AdminRoute        = "/admin"
	APIRoute          = "/api"
	WebhooksRoute     = "/webhooks"
)
