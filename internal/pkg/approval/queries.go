package approval

import (
	"errors"

	"gorm.io/gorm"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/visibility"
)

// Get loads a single transaction and refuses principals that would not see
// it through the visibility filter.
func (s *Service) Get(p principal.Principal, publicID string) (*models.Transaction, error) {
	tx, err := s.txs.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	visible := visibility.Filter(p, []models.Transaction{*tx})
	if len(visible) == 0 {
		return nil, ErrPermissionDenied
	}
	return tx, nil
}

// ListVisible returns every transaction the principal may see.
func (s *Service) ListVisible(p principal.Principal) ([]models.Transaction, error) {
	var (
		txs []models.Transaction
		err error
	)
	if p.Role == principal.RoleSuperadmin || p.Role == principal.RoleAuditorExternal {
		txs, err = s.txs.ListAll()
	} else {
		txs, err = s.txs.ListByTenant(p.TenantID)
	}
	if err != nil {
		return nil, err
	}
	return visibility.Filter(p, txs), nil
}

// PendingCompanyRequests lists plan upgrades awaiting company approval in
// the principal's tenant.
func (s *Service) PendingCompanyRequests(p principal.Principal) ([]models.Transaction, error) {
	return s.listVisibleByStatus(p, models.TxKindPlanUpgrade, models.TxStatusRequested)
}

// AwaitingPayment lists company-approved upgrades the admin still has to pay.
func (s *Service) AwaitingPayment(p principal.Principal) ([]models.Transaction, error) {
	return s.listVisibleByStatus(p, models.TxKindPlanUpgrade, models.TxStatusCompanyApproved)
}

// PendingPlatformApprovals lists upgrades awaiting platform approval within
// the principal's visibility.
func (s *Service) PendingPlatformApprovals(p principal.Principal) ([]models.Transaction, error) {
	return s.listVisibleByStatus(p, models.TxKindPlanUpgrade, models.TxStatusPendingPlatform)
}

func (s *Service) listVisibleByStatus(p principal.Principal, kind, status string) ([]models.Transaction, error) {
	txs, err := s.ListVisible(p)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Kind == kind && tx.Status == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

// PendingPlatformApprovalsRaw lists pending platform approvals across all
// tenants. Raw accessor: superadmin platform views only.
func (s *Service) PendingPlatformApprovalsRaw(p principal.Principal) ([]models.Transaction, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	txs, err := s.txs.ListByStatus(models.TxStatusPendingPlatform)
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, tx := range txs {
		if tx.Kind == models.TxKindPlanUpgrade {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ServiceTasksRaw lists service-payment transactions platform-wide for the
// fulfillment dashboard. Raw accessor: superadmin only.
func (s *Service) ServiceTasksRaw(p principal.Principal) ([]models.Transaction, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	return s.txs.ListByKind(models.TxKindServicePayment)
}

// TotalRevenue sums paid transactions within the principal's visibility.
func (s *Service) TotalRevenue(p principal.Principal) (float64, error) {
	txs, err := s.ListVisible(p)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, tx := range txs {
		if tx.Status == models.TxStatusPaid {
			sum += tx.Amount
		}
	}
	return sum, nil
}

// PendingPayments lists in-flight transactions within the principal's
// visibility: anything requested, approved or awaiting platform approval.
func (s *Service) PendingPayments(p principal.Principal) ([]models.Transaction, error) {
	txs, err := s.ListVisible(p)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		switch tx.Status {
		case models.TxStatusRequested, models.TxStatusCompanyApproved, models.TxStatusPendingPlatform:
			out = append(out, tx)
		}
	}
	return out, nil
}
