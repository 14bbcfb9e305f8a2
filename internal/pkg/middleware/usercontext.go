package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/database"
	"github.com/strefex/strefex/internal/pkg/entitlements"
	"github.com/strefex/strefex/internal/pkg/grants"
	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/session"
	"github.com/strefex/strefex/internal/pkg/tenantkv"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

func anonymous(c *fiber.Ctx) error {
	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		IsLoggedIn: false,
		Role:       principal.RoleGuest,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	return c.Next()
}

// UserContextMiddleware resolves the session into a UserContext for every
// request. Expired trials are reconciled here, on session resolution, so
// entitlement reads further down stay effect-free.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth uses its own fiber session store on /auth/*; skip ours there to
	// prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous(c)
	}

	userID := sessionUserID(sess.Get(usercontext.KeyUserID))
	if userID == 0 {
		return anonymous(c)
	}

	email := session.GetSessionValue(c, usercontext.KeyUserEmail)
	role := principal.Role(session.GetSessionValue(c, usercontext.KeyUserRole))
	if !principal.Valid(role) {
		role = principal.RoleUser
	}
	tenantSlug := session.GetSessionValue(c, usercontext.KeyTenantSlug)
	if tenantSlug == "" {
		tenantSlug = models.TenantSlugFromEmail(email)
	}

	accountType := session.GetSessionValue(c, usercontext.KeyAccountType)
	if accountType == "" {
		accountType = resolveAccountType(tenantSlug)
		_ = session.SetSessionValue(c, usercontext.KeyAccountType, accountType)
	}

	userCtx := usercontext.UserContext{
		UserID:      userID,
		Email:       email,
		IsLoggedIn:  true,
		Role:        role,
		TenantSlug:  tenantSlug,
		TenantName:  session.GetSessionValue(c, usercontext.KeyTenantName),
		AccountType: accountType,
	}
	c.Locals(usercontext.KeyUserContext, userCtx)
	c.Locals(usercontext.KeyFromProtected, true)

	reconcileTrialOnce(c, tenantSlug)

	return c.Next()
}

// reconcileTrialOnce downgrades a lapsed trial the first time a session
// touches the tenant. The tenantkv marker keeps the check from hitting the
// database on every request; losing the marker only costs a redundant
// no-op reconcile.
func reconcileTrialOnce(c *fiber.Ctx, tenantSlug string) {
	var checked bool
	if tenantkv.GetJSON(tenantkv.SubscriptionKey+"-checked", tenantSlug, &checked) && checked {
		return
	}
	db := database.GetDB()
	if db == nil {
		return
	}
	repos := repository.NewRepositories(db)
	svc := entitlements.NewService(repos.Subscription, grants.NewService(repos.FeatureGrant, repos.Subscription))
	if sub, _, err := svc.ReconcileExpiredTrial(tenantSlug); err == nil {
		tenantkv.SetJSON(tenantkv.SubscriptionKey, tenantSlug, sub, session.SessionTTL)
		tenantkv.SetJSON(tenantkv.SubscriptionKey+"-checked", tenantSlug, true, session.SessionTTL)
	}
}

// sessionUserID tolerates the integer widenings the session codec applies.
func sessionUserID(v interface{}) uint {
	switch id := v.(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	case uint64:
		return uint(id)
	case int64:
		if id > 0 {
			return uint(id)
		}
	case float64:
		if id > 0 {
			return uint(id)
		}
	case string:
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			return uint(n)
		}
	}
	return 0
}

func resolveAccountType(tenantSlug string) string {
	db := database.GetDB()
	if db == nil {
		return "seller"
	}
	tenant, err := repository.NewTenantRepository(db).GetBySlug(tenantSlug)
	if err != nil {
		return "seller"
	}
	return tenant.AccountType
}
