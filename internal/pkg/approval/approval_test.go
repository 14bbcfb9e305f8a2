package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
)

type activatorSpy struct {
	tenant string
	planID string
	status string
	calls  int
}

func (a *activatorSpy) SetPlan(tenantSlug, planID, status string) (*models.Subscription, error) {
	a.tenant, a.planID, a.status = tenantSlug, planID, status
	a.calls++
	return &models.Subscription{TenantSlug: tenantSlug, PlanID: planID, Status: status}, nil
}

func newTestService(t *testing.T) (*Service, *activatorSpy, repository.TransactionRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))

	txs := repository.NewTransactionRepository(db)
	spy := &activatorSpy{}
	return NewService(txs, spy), spy, txs
}

var (
	acmeUser    = principal.Principal{Role: principal.RoleUser, TenantID: "acme.com", UserID: "john@acme.com"}
	acmeAdmin   = principal.Principal{Role: principal.RoleAdmin, TenantID: "acme.com", UserID: "boss@acme.com"}
	otherAdmin  = principal.Principal{Role: principal.RoleAdmin, TenantID: "other.com", UserID: "boss@other.com"}
	acmeAuditor = principal.Principal{Role: principal.RoleAuditorInternal, TenantID: "acme.com", UserID: "audit@acme.com"}
	platformOps = principal.Principal{Role: principal.RoleSuperadmin, TenantID: "platform", UserID: "ops@strefex.com"}
)

func upgradeRequest() CreateRequest {
	return CreateRequest{
		Kind:        models.TxKindPlanUpgrade,
		Amount:      45,
		PlanFrom:    plans.PlanBasic,
		PlanTo:      plans.PlanStandard,
		AccountType: plans.AccountSeller,
		PayerEmail:  "john@acme.com",
		RequestedBy: "john@acme.com",
		TenantSlug:  "acme.com",
	}
}

func TestCreateAssignsIDsAndStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusRequested, tx.Status)
	assert.Regexp(t, `^TXN-\d{4}-\d{6}$`, tx.PublicID)
	assert.Regexp(t, `^INV-\d{4}-\d{4}$`, tx.InvoiceID)
	assert.Equal(t, 1, tx.Version)

	tx2, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)
	assert.NotEqual(t, tx.PublicID, tx2.PublicID)
}

func TestCreateStepsPastTakenIDs(t *testing.T) {
	svc, _, txs := newTestService(t)

	first, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	// Occupy the public id the next create will derive from the row count,
	// as a racing creator would.
	year := time.Now().Year()
	taken := &models.Transaction{
		PublicID:   models.FormatTransactionID(year, 3),
		InvoiceID:  models.FormatInvoiceID(year, 3),
		Kind:       models.TxKindPlanUpgrade,
		Status:     models.TxStatusRequested,
		TenantSlug: "acme.com",
		Version:    1,
	}
	require.NoError(t, txs.Create(taken))

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)
	assert.Equal(t, models.FormatTransactionID(year, 4), tx.PublicID)
	assert.NotEqual(t, first.PublicID, tx.PublicID)
}

func TestCreatePermissionGuards(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(acmeAuditor, upgradeRequest())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	guest := principal.Anonymous()
	_, err = svc.Create(guest, upgradeRequest())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// A member of one tenant cannot file for another.
	_, err = svc.Create(otherAdmin, upgradeRequest())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// The platform operator can.
	_, err = svc.Create(platformOps, upgradeRequest())
	assert.NoError(t, err)
}

func TestDirectCreateSkipsCompanySteps(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := upgradeRequest()
	req.Direct = true

	_, err := svc.Create(acmeUser, req)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	tx, err := svc.Create(acmeAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPendingPlatform, tx.Status)
	assert.Equal(t, acmeAdmin.UserID, tx.PaidBy)
	assert.NotNil(t, tx.PaidAt)
}

func TestFullPipelineHappyPath(t *testing.T) {
	svc, spy, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	tx, err = svc.CompanyApprove(acmeAdmin, tx.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusCompanyApproved, tx.Status)
	assert.Equal(t, acmeAdmin.UserID, tx.CompanyApprovedBy)
	assert.NotNil(t, tx.CompanyApprovedAt)

	tx, err = svc.MarkPaid(acmeAdmin, tx.PublicID, "bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPendingPlatform, tx.Status)
	assert.Equal(t, "bank_transfer", tx.Method)
	assert.NotNil(t, tx.PaidAt)

	tx, err = svc.PlatformApprove(platformOps, tx.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPaid, tx.Status)
	assert.Equal(t, platformOps.UserID, tx.PlatformApprovedBy)

	require.Equal(t, 1, spy.calls)
	assert.Equal(t, "acme.com", spy.tenant)
	assert.Equal(t, plans.PlanStandard, spy.planID)
	assert.Equal(t, models.SubStatusActive, spy.status)
}

func TestTransitionPermissionGuards(t *testing.T) {
	svc, _, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	_, err = svc.CompanyApprove(acmeUser, tx.PublicID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.CompanyApprove(acmeAuditor, tx.PublicID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.CompanyApprove(otherAdmin, tx.PublicID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Superadmin may stand in for the company admin.
	tx, err = svc.CompanyApprove(platformOps, tx.PublicID)
	require.NoError(t, err)

	_, err = svc.MarkPaid(acmeAdmin, tx.PublicID, "")
	require.NoError(t, err)

	// Platform transitions are superadmin-only, even for the company admin.
	_, err = svc.PlatformApprove(acmeAdmin, tx.PublicID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.PlatformReject(acmeAdmin, tx.PublicID, "no")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTransitionsRequireExpectedState(t *testing.T) {
	svc, _, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	// Payment before company approval.
	_, err = svc.MarkPaid(acmeAdmin, tx.PublicID, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	// Platform approval straight from requested.
	_, err = svc.PlatformApprove(platformOps, tx.PublicID)
	assert.ErrorIs(t, err, ErrInvalidState)

	tx, err = svc.CompanyApprove(acmeAdmin, tx.PublicID)
	require.NoError(t, err)

	// Approving twice.
	_, err = svc.CompanyApprove(acmeAdmin, tx.PublicID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRejectionsAreTerminal(t *testing.T) {
	svc, spy, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)
	tx, err = svc.CompanyReject(acmeAdmin, tx.PublicID, "budget freeze")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusRejectedByCompany, tx.Status)
	assert.Equal(t, "budget freeze", tx.RejectionReason)

	_, err = svc.CompanyApprove(acmeAdmin, tx.PublicID)
	assert.ErrorIs(t, err, ErrInvalidState)

	tx2, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)
	_, err = svc.CompanyApprove(acmeAdmin, tx2.PublicID)
	require.NoError(t, err)
	_, err = svc.MarkPaid(acmeAdmin, tx2.PublicID, "")
	require.NoError(t, err)
	tx2, err = svc.PlatformReject(platformOps, tx2.PublicID, "suspicious payment")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusRejectedByPlatform, tx2.Status)

	_, err = svc.PlatformApprove(platformOps, tx2.PublicID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, spy.calls)
}

func TestStaleTransitionIsRefused(t *testing.T) {
	svc, _, txs := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	// Two actors load the same row; the second write loses.
	stale, err := txs.GetByPublicID(tx.PublicID)
	require.NoError(t, err)

	_, err = svc.CompanyApprove(acmeAdmin, tx.PublicID)
	require.NoError(t, err)

	stale.Status = models.TxStatusRejectedByCompany
	err = txs.UpdateWithVersion(stale)
	assert.ErrorIs(t, err, ErrStaleTransaction)
}

func TestUnknownTransaction(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CompanyApprove(acmeAdmin, "TXN-2026-999999")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(platformOps, "TXN-2026-999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetEnforcesVisibility(t *testing.T) {
	svc, _, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	got, err := svc.Get(acmeUser, tx.PublicID)
	require.NoError(t, err)
	assert.Equal(t, tx.PublicID, got.PublicID)

	_, err = svc.Get(otherAdmin, tx.PublicID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// A plain user in the same tenant who neither filed nor was assigned.
	peer := principal.Principal{Role: principal.RoleUser, TenantID: "acme.com", UserID: "jane@acme.com"}
	_, err = svc.Get(peer, tx.PublicID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestQueriesAndRevenue(t *testing.T) {
	svc, _, _ := newTestService(t)

	tx, err := svc.Create(acmeUser, upgradeRequest())
	require.NoError(t, err)

	pending, err := svc.PendingCompanyRequests(acmeAdmin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.CompanyApprove(acmeAdmin, tx.PublicID)
	require.NoError(t, err)
	awaiting, err := svc.AwaitingPayment(acmeAdmin)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)

	_, err = svc.MarkPaid(acmeAdmin, tx.PublicID, "")
	require.NoError(t, err)
	platformQueue, err := svc.PendingPlatformApprovalsRaw(platformOps)
	require.NoError(t, err)
	require.Len(t, platformQueue, 1)

	_, err = svc.PendingPlatformApprovalsRaw(acmeAdmin)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.PlatformApprove(platformOps, tx.PublicID)
	require.NoError(t, err)

	revenue, err := svc.TotalRevenue(platformOps)
	require.NoError(t, err)
	assert.InDelta(t, 45, revenue, 0.001)

	otherRevenue, err := svc.TotalRevenue(otherAdmin)
	require.NoError(t, err)
	assert.Zero(t, otherRevenue)
}
