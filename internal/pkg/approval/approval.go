// Package approval drives subscription-upgrade transactions through the
// multi-step approval pipeline:
//
//	requested -> company_approved -> pending_platform_approval -> paid
//
// with terminal rejection branches at the company and platform steps.
// Company-side transitions require admin rank within the transaction's
// tenant; platform-side transitions require superadmin. Every transition is
// written with an optimistic version check, so a transition attempted from a
// stale state is refused instead of silently overwriting a concurrent
// writer.
package approval

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
)

var (
	// ErrPermissionDenied is returned when the acting principal lacks the
	// role (or tenant membership) a transition requires.
	ErrPermissionDenied = errors.New("principal may not perform this transition")
	// ErrInvalidState is returned when the transaction is not in the source
	// state the transition expects. Rejected transactions are terminal; a
	// new request must be created to retry.
	ErrInvalidState = errors.New("transaction is not in the expected state")
	// ErrStaleTransaction mirrors the repository's optimistic-lock refusal.
	ErrStaleTransaction = repository.ErrStaleTransaction
	// ErrNotFound is returned when no transaction carries the given id.
	ErrNotFound = errors.New("transaction not found")
)

// idAllocRetries bounds how many taken public ids Create steps past before
// giving up.
const idAllocRetries = 3

// SubscriptionActivator applies the side effect of the paid transition: the
// target tenant's subscription moves to the approved plan, active.
type SubscriptionActivator interface {
	SetPlan(tenantSlug, planID, status string) (*models.Subscription, error)
}

// Service owns all pipeline transitions.
type Service struct {
	txs       repository.TransactionRepository
	activator SubscriptionActivator
	now       func() time.Time
}

// NewService creates an approval service.
func NewService(txs repository.TransactionRepository, activator SubscriptionActivator) *Service {
	return &Service{txs: txs, activator: activator, now: time.Now}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRequest describes a new transaction.
type CreateRequest struct {
	Kind        string
	Service     string
	Amount      float64
	Method      string
	PlanFrom    string
	PlanTo      string
	AccountType string
	PayerEmail  string
	RequestedBy string
	TenantSlug  string
	// Direct skips the company approval steps and enters the pipeline at
	// pending_platform_approval. Only company admins and superadmins may
	// create direct upgrades.
	Direct bool
}

// Create records a new transaction. Plan upgrades enter at requested, or at
// pending_platform_approval for a direct admin/superadmin-initiated upgrade;
// no other entry point exists.
func (s *Service) Create(p principal.Principal, req CreateRequest) (*models.Transaction, error) {
	if principal.IsAuditor(p.Role) || !principal.CanEdit(p.Role) {
		return nil, ErrPermissionDenied
	}
	tenant := req.TenantSlug
	if tenant == "" {
		tenant = p.TenantID
	}
	if !p.IsSuperadmin() && !p.SameTenant(tenant) {
		return nil, ErrPermissionDenied
	}

	status := models.TxStatusRequested
	if req.Direct {
		if !p.IsSuperadmin() && !principal.AtLeast(p.Role, principal.RoleAdmin) {
			return nil, ErrPermissionDenied
		}
		status = models.TxStatusPendingPlatform
	}

	seq, err := s.txs.NextSequence()
	if err != nil {
		return nil, fmt.Errorf("allocate transaction id: %w", err)
	}
	now := s.now()

	// The sequence is derived from the table, so a concurrent creator (or a
	// gap left by an old row) can yield a taken id. Step past it and retry.
	for attempt := uint(0); attempt <= idAllocRetries; attempt++ {
		tx := &models.Transaction{
			PublicID:    models.FormatTransactionID(now.Year(), seq+attempt),
			InvoiceID:   models.FormatInvoiceID(now.Year(), seq+attempt),
			Kind:        req.Kind,
			Service:     req.Service,
			Amount:      req.Amount,
			Method:      req.Method,
			Status:      status,
			TenantSlug:  tenant,
			PayerEmail:  req.PayerEmail,
			RequestedBy: req.RequestedBy,
			AccountType: req.AccountType,
			PlanFrom:    req.PlanFrom,
			PlanTo:      req.PlanTo,
			Version:     1,
		}
		if req.Kind == models.TxKindServicePayment {
			tx.TaskStatus = models.TaskUnassigned
		}
		if req.Direct {
			tx.PaidBy = p.UserID
			tx.PaidAt = &now
		}
		err := s.txs.Create(tx)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTransactionID) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("allocate transaction id: no free sequence after %d attempts", idAllocRetries+1)
}

func (s *Service) loadForTransition(publicID, wantStatus string) (*models.Transaction, error) {
	tx, err := s.txs.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if models.IsTerminalTxStatus(tx.Status) || tx.Status != wantStatus {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, tx.Status)
	}
	return tx, nil
}

func (s *Service) requireCompanyAdmin(p principal.Principal, tx *models.Transaction) error {
	if p.IsSuperadmin() {
		return nil
	}
	if principal.IsAuditor(p.Role) || !principal.AtLeast(p.Role, principal.RoleAdmin) || !p.SameTenant(tx.TenantSlug) {
		return ErrPermissionDenied
	}
	return nil
}

// CompanyApprove moves requested -> company_approved. Company admins only.
func (s *Service) CompanyApprove(p principal.Principal, publicID string) (*models.Transaction, error) {
	tx, err := s.loadForTransition(publicID, models.TxStatusRequested)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompanyAdmin(p, tx); err != nil {
		return nil, err
	}
	now := s.now()
	tx.Status = models.TxStatusCompanyApproved
	tx.CompanyApprovedBy = p.UserID
	tx.CompanyApprovedAt = &now
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CompanyReject moves requested -> rejected_by_company. Terminal.
func (s *Service) CompanyReject(p principal.Principal, publicID, reason string) (*models.Transaction, error) {
	tx, err := s.loadForTransition(publicID, models.TxStatusRequested)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompanyAdmin(p, tx); err != nil {
		return nil, err
	}
	tx.Status = models.TxStatusRejectedByCompany
	tx.RejectedBy = p.UserID
	tx.RejectionReason = reason
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// MarkPaid moves company_approved -> pending_platform_approval once the
// company admin has completed payment.
func (s *Service) MarkPaid(p principal.Principal, publicID, method string) (*models.Transaction, error) {
	tx, err := s.loadForTransition(publicID, models.TxStatusCompanyApproved)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompanyAdmin(p, tx); err != nil {
		return nil, err
	}
	now := s.now()
	tx.Status = models.TxStatusPendingPlatform
	if method != "" {
		tx.Method = method
	}
	tx.PaidBy = p.UserID
	tx.PaidAt = &now
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// PlatformApprove moves pending_platform_approval -> paid and activates the
// approved plan on the target tenant's subscription. Superadmin only.
func (s *Service) PlatformApprove(p principal.Principal, publicID string) (*models.Transaction, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	tx, err := s.loadForTransition(publicID, models.TxStatusPendingPlatform)
	if err != nil {
		return nil, err
	}
	now := s.now()
	tx.Status = models.TxStatusPaid
	tx.PlatformApprovedBy = p.UserID
	tx.PlatformApprovedAt = &now
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	if tx.Kind == models.TxKindPlanUpgrade || tx.Kind == models.TxKindPlanDowngrade {
		planID := plans.ByID(tx.PlanTo).ID
		if _, err := s.activator.SetPlan(tx.TenantSlug, planID, models.SubStatusActive); err != nil {
			return tx, fmt.Errorf("activate plan %s for %s: %w", planID, tx.TenantSlug, err)
		}
	}
	return tx, nil
}

// PlatformReject moves pending_platform_approval -> rejected_by_platform.
// Terminal. Superadmin only.
func (s *Service) PlatformReject(p principal.Principal, publicID, reason string) (*models.Transaction, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	tx, err := s.loadForTransition(publicID, models.TxStatusPendingPlatform)
	if err != nil {
		return nil, err
	}
	tx.Status = models.TxStatusRejectedByPlatform
	tx.RejectedBy = p.UserID
	tx.RejectionReason = reason
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
