package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/database"
	"github.com/strefex/strefex/internal/pkg/env"
	"github.com/strefex/strefex/internal/pkg/hcaptcha"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/security"
	"github.com/strefex/strefex/internal/pkg/session"
	"github.com/strefex/strefex/internal/pkg/tenantkv"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// HandleAuthRegister renders the registration form and creates the user and
// tenant on POST. The first user of a company domain creates the tenant and
// becomes its admin; later users join as regular members.
func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Render("auth/register", fiber.Map{
			"Title":           "Register",
			"CSRF":            c.Locals("csrf"),
			"HCaptchaSiteKey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
			"FlashData":       flash.Get(c),
		}, "layouts/main")
	}

	fm := fiber.Map{"type": "error"}

	name := c.FormValue("name")
	email := c.FormValue("email")
	password := c.FormValue("password")
	companyName := c.FormValue("company_name")
	accountType := c.FormValue("account_type")

	tenantSlug := models.TenantSlugFromEmail(email)
	if tenantSlug == "" {
		fm["message"] = "A valid company email address is required"
		return flash.WithError(c, fm).Redirect("/register")
	}

	if accountType != "" && !plans.ValidAccountType(accountType) {
		fm["message"] = "Unknown account type"
		return flash.WithError(c, fm).Redirect("/register")
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response")); err != nil || !ok {
			fm["message"] = "Captcha verification failed, please try again"
			return flash.WithError(c, fm).Redirect("/register")
		}
	}

	r := repos()

	role := "user"
	if _, err := r.Tenant.GetBySlug(tenantSlug); errors.Is(err, gorm.ErrRecordNotFound) {
		// First member of a new company becomes its admin.
		role = string(principal.RoleAdmin)
	}

	tenant, err := r.Tenant.GetOrCreate(tenantSlug, companyName, accountType)
	if err != nil {
		fm["message"] = "There is a problem with the registration process"
		return flash.WithError(c, fm).Redirect("/register")
	}

	user, err := models.CreateUser(name, email, password, tenantSlug, role)
	if err != nil {
		fm["message"] = fmt.Sprintf("Invalid registration data: %s", err)
		return flash.WithError(c, fm).Redirect("/register")
	}
	if err := r.User.Create(user); err != nil {
		fm["message"] = "There is a problem with the registration process"
		return flash.WithError(c, fm).Redirect("/register")
	}

	// Subscription row exists from day one so entitlement reads never
	// create state.
	if _, err := r.Subscription.GetOrCreate(tenantSlug, tenant.AccountType); err != nil {
		fm["message"] = "There is a problem with the registration process"
		return flash.WithError(c, fm).Redirect("/register")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Account created, you can sign in now.",
	}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleAuthLogin renders the login form and signs the user in on POST.
func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Render("auth/login", fiber.Map{
			"Title":     "Sign in",
			"CSRF":      c.Locals("csrf"),
			"FlashData": flash.Get(c),
		}, "layouts/main")
	}

	fm := fiber.Map{"type": "error"}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	user, err := repos().User.GetByEmail(c.FormValue("email"))
	if err != nil {
		fm["message"] = "There is a problem with the login process"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.CheckPassword(c.FormValue("password")) {
		fm["message"] = "There is a problem with the login process"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.IsActive() {
		fm["message"] = "This account is disabled"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := establishSession(c, user); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}
	return flash.WithSuccess(c, fm).Redirect("/")
}

// establishSession replaces any existing session with the given user's
// context. The old session is destroyed before the new keys are written, so
// a login on top of another tenant's session can never mix contexts.
func establishSession(c *fiber.Ctx, user *models.User) error {
	store := session.GetSessionStore()

	old, err := store.Get(c)
	if err == nil {
		_ = old.Destroy()
	}

	sess, err := store.Get(c)
	if err != nil {
		return err
	}

	tenantName := user.TenantSlug
	accountType := "seller"
	if tenant, err := repos().Tenant.GetBySlug(user.TenantSlug); err == nil {
		tenantName = tenant.Name
		accountType = tenant.AccountType
	}

	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUserEmail, user.Email)
	sess.Set(usercontext.KeyUserRole, user.Role)
	sess.Set(usercontext.KeyTenantSlug, user.TenantSlug)
	sess.Set(usercontext.KeyTenantName, tenantName)
	sess.Set(usercontext.KeyAccountType, accountType)

	return sess.Save()
}

// HandleAuthLogout destroys the session and clears the cached tenant state.
func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	tenantSlug := usercontext.GetTenantSlug(c)

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	tenantkv.Delete(tenantkv.SubscriptionKey, tenantSlug)

	c.Locals(usercontext.KeyFromProtected, false)

	fm = fiber.Map{
		"type":    "success",
		"message": "Signed out.",
	}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleOAuthCallback completes the provider flow and logs the user in.
// The tenant is always derived from the verified work email domain.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	if u.Email == "" {
		return c.Status(fiber.StatusBadRequest).SendString("OAuth provider returned no email address")
	}

	r := repos()
	user, err := r.User.GetByEmail(u.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tenantSlug := models.TenantSlugFromEmail(u.Email)
		role := "user"
		if _, terr := r.Tenant.GetBySlug(tenantSlug); errors.Is(terr, gorm.ErrRecordNotFound) {
			role = string(principal.RoleAdmin)
		}
		if _, terr := r.Tenant.GetOrCreate(tenantSlug, "", ""); terr != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create tenant failed: %v", terr))
		}

		// Password is a random placeholder, OAuth accounts never use it.
		placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
		user, err = models.CreateUser(firstNonEmpty(u.Name, u.NickName, u.Email), u.Email, placeholder, tenantSlug, role)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
		}
		if err := r.User.Create(user); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
		}
		if _, err := r.Subscription.GetOrCreate(tenantSlug, ""); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create subscription failed: %v", err))
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("lookup failed: %v", err))
	}

	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).SendString("account is disabled")
	}

	linkProviderAccount(user, u.Provider, u.UserID, u.AccessToken, u.RefreshToken, u.ExpiresAt)

	if err := establishSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("session failed: %v", err))
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	return c.Redirect("/", fiber.StatusSeeOther)
}

// linkProviderAccount upserts the external identity for a user. Token
// refresh keeps the stored credentials current on every sign-in.
func linkProviderAccount(user *models.User, provider, providerUserID, accessToken, refreshToken string, expiresAt time.Time) {
	if provider == "" || providerUserID == "" {
		return
	}
	db := database.GetDB()

	var account models.ProviderAccount
	err := db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = models.ProviderAccount{
			UserID:         user.ID,
			Provider:       provider,
			ProviderUserID: providerUserID,
		}
	} else if err != nil {
		return
	}

	account.UserID = user.ID
	account.AccessToken = accessToken
	account.RefreshToken = refreshToken
	if !expiresAt.IsZero() {
		account.ExpiresAt = &expiresAt
	}
	_ = db.Save(&account).Error
}

// HandleOAuthLogout terminates a goth provider session if one exists.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	return HandleAuthLogout(c)
}

// HandleAPIToken issues a bearer token for the logged-in session so API
// clients can authenticate without a cookie.
func HandleAPIToken(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	secret := env.GetEnv("JWT_SECRET", "")
	token, expiresAt, err := security.GenerateAPIToken(userCtx.UserID, userCtx.Email, userCtx.Principal(), secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "token generation failed"})
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "User"
}
