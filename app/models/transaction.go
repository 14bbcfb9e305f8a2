package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Transaction kinds.
const (
	TxKindPlanUpgrade    = "plan_upgrade"
	TxKindPlanDowngrade  = "plan_downgrade"
	TxKindServicePayment = "service_payment"
	TxKindRenewal        = "renewal"
)

// Plan-upgrade approval statuses. Status only moves forward along the
// pipeline; the two rejection statuses are terminal.
const (
	TxStatusRequested          = "requested"
	TxStatusCompanyApproved    = "company_approved"
	TxStatusPendingPlatform    = "pending_platform_approval"
	TxStatusPaid               = "paid"
	TxStatusRejectedByCompany  = "rejected_by_company"
	TxStatusRejectedByPlatform = "rejected_by_platform"

	// txStatusPendingLegacy is the pre-migration spelling of
	// pending_platform_approval still present in old rows. It is normalized
	// on read and never written.
	txStatusPendingLegacy = "pending_approval"
)

// Service-payment task statuses.
const (
	TaskUnassigned = "unassigned"
	TaskAssigned   = "assigned"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

// Transaction is an approval record: a plan change, service payment or
// renewal moving through the multi-step approval pipeline. TenantSlug is
// immutable once set. Version backs the optimistic-concurrency check on
// every transition.
type Transaction struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PublicID   string `gorm:"uniqueIndex;type:varchar(32);not null" json:"public_id"`
	InvoiceID  string `gorm:"type:varchar(32);not null" json:"invoice_id"`
	Kind       string `gorm:"type:varchar(32);not null;index" json:"kind"`
	Service    string `gorm:"type:varchar(255)" json:"service"`
	Amount     float64 `gorm:"not null;default:0" json:"amount"`
	Method     string `gorm:"type:varchar(32)" json:"method"`
	Status     string `gorm:"type:varchar(40);not null;index" json:"status"`
	TenantSlug string `gorm:"type:varchar(191);not null;index" json:"tenant_slug"`

	PayerEmail  string `gorm:"type:varchar(200)" json:"payer_email"`
	RequestedBy string `gorm:"type:varchar(200)" json:"requested_by"`
	AccountType string `gorm:"type:varchar(20)" json:"account_type"`
	PlanFrom    string `gorm:"type:varchar(50)" json:"plan_from"`
	PlanTo      string `gorm:"type:varchar(50)" json:"plan_to"`

	CompanyApprovedBy  string     `gorm:"type:varchar(200)" json:"company_approved_by"`
	CompanyApprovedAt  *time.Time `gorm:"type:timestamp;default:null" json:"company_approved_at"`
	PaidBy             string     `gorm:"type:varchar(200)" json:"paid_by"`
	PaidAt             *time.Time `gorm:"type:timestamp;default:null" json:"paid_at"`
	PlatformApprovedBy string     `gorm:"type:varchar(200)" json:"platform_approved_by"`
	PlatformApprovedAt *time.Time `gorm:"type:timestamp;default:null" json:"platform_approved_at"`
	RejectedBy         string     `gorm:"type:varchar(200)" json:"rejected_by"`
	RejectionReason    string     `gorm:"type:text" json:"rejection_reason"`

	// Service-payment task workflow.
	TaskStatus     string     `gorm:"type:varchar(20)" json:"task_status"`
	AssignedTo     string     `gorm:"type:varchar(200)" json:"assigned_to"`
	AssignedToName string     `gorm:"type:varchar(200)" json:"assigned_to_name"`
	AssignedBy     string     `gorm:"type:varchar(200)" json:"assigned_by"`
	AssignedAt     *time.Time `gorm:"type:timestamp;default:null" json:"assigned_at"`

	Version   int            `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AfterFind normalizes the legacy pending status spelling so the rest of the
// codebase only ever sees the canonical value.
func (t *Transaction) AfterFind(_ *gorm.DB) error {
	if t.Status == txStatusPendingLegacy {
		t.Status = TxStatusPendingPlatform
	}
	return nil
}

// NormalizeTxStatus maps legacy status spellings to canonical ones.
func NormalizeTxStatus(status string) string {
	if status == txStatusPendingLegacy {
		return TxStatusPendingPlatform
	}
	return status
}

// IsTerminalTxStatus reports whether no further pipeline transition may
// change the status.
func IsTerminalTxStatus(status string) bool {
	switch NormalizeTxStatus(status) {
	case TxStatusPaid, TxStatusRejectedByCompany, TxStatusRejectedByPlatform:
		return true
	}
	return false
}

// RecordTenant implements the visibility record interface.
func (t Transaction) RecordTenant() string { return t.TenantSlug }

// RecordCreator returns the requesting identity when the transaction was
// user-initiated, the payer otherwise.
func (t Transaction) RecordCreator() string {
	if t.RequestedBy != "" {
		return t.RequestedBy
	}
	return t.PayerEmail
}

// RecordAssignee implements the visibility record interface.
func (t Transaction) RecordAssignee() string { return t.AssignedTo }

// FormatTransactionID renders the public transaction id for a sequence value.
func FormatTransactionID(year int, seq uint) string {
	return fmt.Sprintf("TXN-%d-%06d", year, seq%1000000)
}

// FormatInvoiceID renders the invoice id for a sequence value.
func FormatInvoiceID(year int, seq uint) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq%10000)
}
