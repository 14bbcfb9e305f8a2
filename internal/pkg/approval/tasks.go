package approval

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/principal"
)

// ErrNoAssignee is returned when a task transition requires an assignee and
// none is attached.
var ErrNoAssignee = errors.New("task has no assignee")

// taskOrder fixes the forward-only progression of service-payment tasks.
var taskOrder = map[string]int{
	models.TaskUnassigned: 0,
	models.TaskAssigned:   1,
	models.TaskInProgress: 2,
	models.TaskCompleted:  3,
}

// AssignTask attaches (or reattaches) an assignee to a service-payment
// transaction. Reassignment is allowed at any time before completion.
// Platform superadmins only: the fulfillment team works platform-wide.
func (s *Service) AssignTask(p principal.Principal, publicID, assigneeEmail, assigneeName string) (*models.Transaction, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	if assigneeEmail == "" {
		return nil, errors.New("assignee email is required")
	}
	tx, err := s.txs.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tx.Kind != models.TxKindServicePayment {
		return nil, fmt.Errorf("%w: not a service payment", ErrInvalidState)
	}
	if tx.TaskStatus == models.TaskCompleted {
		return nil, fmt.Errorf("%w: task already completed", ErrInvalidState)
	}
	now := s.now()
	if tx.TaskStatus == models.TaskUnassigned || tx.TaskStatus == "" {
		tx.TaskStatus = models.TaskAssigned
	}
	tx.AssignedTo = assigneeEmail
	if assigneeName != "" {
		tx.AssignedToName = assigneeName
	} else {
		tx.AssignedToName = assigneeEmail
	}
	tx.AssignedBy = p.UserID
	tx.AssignedAt = &now
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateTaskStatus advances a service-payment task. Progress beyond
// unassigned requires an assignee, and the status only moves forward.
func (s *Service) UpdateTaskStatus(p principal.Principal, publicID, taskStatus string) (*models.Transaction, error) {
	if principal.IsAuditor(p.Role) {
		return nil, ErrPermissionDenied
	}
	next, ok := taskOrder[taskStatus]
	if !ok {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidState, taskStatus)
	}
	tx, err := s.txs.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tx.Kind != models.TxKindServicePayment {
		return nil, fmt.Errorf("%w: not a service payment", ErrInvalidState)
	}
	if !p.IsSuperadmin() && tx.AssignedTo != p.UserID {
		return nil, ErrPermissionDenied
	}
	if next > taskOrder[models.TaskUnassigned] && tx.AssignedTo == "" {
		return nil, ErrNoAssignee
	}
	if next <= taskOrder[tx.TaskStatus] {
		return nil, fmt.Errorf("%w: cannot move %s -> %s", ErrInvalidState, tx.TaskStatus, taskStatus)
	}
	tx.TaskStatus = taskStatus
	if err := s.txs.UpdateWithVersion(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
