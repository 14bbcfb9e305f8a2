package controllers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/billingprovider"
	"github.com/strefex/strefex/internal/pkg/database"
	"github.com/strefex/strefex/internal/pkg/env"
	"github.com/strefex/strefex/internal/pkg/mail"
	"github.com/strefex/strefex/internal/pkg/metrics/counter"
	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// HandleTransactions lists every transaction the session may see. The
// visibility filter inside the service decides what that is per role.
func HandleTransactions(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)

	txs, err := approvalService().ListVisible(p)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load transactions"}).Redirect("/")
	}

	return c.Render("transactions/index", fiber.Map{
		"Title":        "Transactions",
		"Transactions": txs,
		"FlashData":    flash.Get(c),
	}, "layouts/main")
}

// HandleTransactionShow renders a single transaction.
func HandleTransactionShow(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)

	tx, err := approvalService().Get(p, c.Params("id"))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Transaction not found"}).Redirect("/transactions")
	}

	return c.Render("transactions/show", fiber.Map{
		"Title":       tx.PublicID,
		"Transaction": tx,
		"CanApprove":  principal.AtLeast(p.Role, principal.RoleAdmin) && !principal.IsAuditor(p.Role),
		"FlashData":   flash.Get(c),
	}, "layouts/main")
}

// HandleTransactionCompanyApprove moves requested -> company_approved.
func HandleTransactionCompanyApprove(c *fiber.Ctx) error {
	return transition(c, "Request approved.", func(p principal.Principal, id string) error {
		_, err := approvalService().CompanyApprove(p, id)
		return err
	})
}

// HandleTransactionCompanyReject terminally rejects a request at the
// company step.
func HandleTransactionCompanyReject(c *fiber.Ctx) error {
	reason := c.FormValue("reason")
	return transition(c, "Request rejected.", func(p principal.Principal, id string) error {
		_, err := approvalService().CompanyReject(p, id, reason)
		return err
	})
}

// HandleTransactionMarkPaid moves company_approved -> pending_platform_approval.
func HandleTransactionMarkPaid(c *fiber.Ctx) error {
	method := c.FormValue("method", "invoice")
	return transition(c, "Payment recorded, awaiting platform approval.", func(p principal.Principal, id string) error {
		_, err := approvalService().MarkPaid(p, id, method)
		return err
	})
}

// HandleTransactionPlatformApprove finalizes the purchase and activates the
// plan. Platform superadmins only.
func HandleTransactionPlatformApprove(c *fiber.Ctx) error {
	return transition(c, "Transaction approved and plan activated.", func(p principal.Principal, id string) error {
		tx, err := approvalService().PlatformApprove(p, id)
		if err != nil {
			return err
		}
		notifyPayer(tx, "Purchase approved",
			fmt.Sprintf("<p>Your transaction %s has been approved and your plan is now active.</p>", tx.PublicID))
		return nil
	})
}

// HandleTransactionPlatformReject terminally rejects at the platform step.
func HandleTransactionPlatformReject(c *fiber.Ctx) error {
	reason := c.FormValue("reason")
	return transition(c, "Transaction rejected.", func(p principal.Principal, id string) error {
		tx, err := approvalService().PlatformReject(p, id, reason)
		if err != nil {
			return err
		}
		notifyPayer(tx, "Purchase rejected",
			fmt.Sprintf("<p>Your transaction %s was rejected: %s</p>", tx.PublicID, tx.RejectionReason))
		return nil
	})
}

// notifyPayer emails the paying identity about a platform decision. Mail is
// best effort and never blocks or fails the transition.
func notifyPayer(tx *models.Transaction, subject, body string) {
	if !mail.Enabled() || tx.PayerEmail == "" {
		return
	}
	go func(to, subject, body string) {
		if err := mail.SendMail(to, subject, body); err != nil {
			log.Printf("approval notification to %s failed: %v", to, err)
		}
	}(tx.PayerEmail, subject, body)
}

// HandleTaskAssign attaches a fulfillment assignee to a service payment.
func HandleTaskAssign(c *fiber.Ctx) error {
	email := c.FormValue("assignee_email")
	name := c.FormValue("assignee_name")
	return transition(c, "Task assigned.", func(p principal.Principal, id string) error {
		_, err := approvalService().AssignTask(p, id, email, name)
		return err
	})
}

// HandleTaskStatus advances a service-payment task.
func HandleTaskStatus(c *fiber.Ctx) error {
	status := c.FormValue("task_status")
	return transition(c, "Task updated.", func(p principal.Principal, id string) error {
		_, err := approvalService().UpdateTaskStatus(p, id, status)
		return err
	})
}

func transition(c *fiber.Ctx, successMsg string, run func(p principal.Principal, id string) error) error {
	p := usercontext.GetPrincipal(c)
	id := c.Params("id")
	target := "/transactions/" + id

	if err := run(p, id); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": err.Error()}).Redirect(target)
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": successMsg}).Redirect(target)
}

// HandleBillingWebhook receives provider payment notifications. A confirmed
// payment moves the referenced transaction from company_approved to
// pending_platform_approval, same as a manual mark-paid by the company
// admin would.
func HandleBillingWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	secret := env.GetEnv("BILLING_WEBHOOK_SECRET", "")
	if !billingprovider.VerifyWebhookSignature(payload, c.Get("X-Billing-Signature"), secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "invalid signature"})
	}

	event, err := billingprovider.ParseWebhookPaymentEvent(payload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	record, fresh := recordWebhookEvent(event, payload)
	if !fresh {
		// Providers redeliver; a replayed event is acknowledged, not
		// reapplied.
		return c.JSON(fiber.Map{"received": true, "applied": false, "duplicate": true})
	}
	_ = counter.AddWebhookDelivery()

	if billingprovider.StatusToLocal(event.Status) != models.SubStatusActive {
		// Declined or pending payments change nothing; the transaction
		// stays where it is.
		finishWebhookEvent(record, "")
		return c.JSON(fiber.Map{"received": true, "applied": false})
	}

	tx, err := repos().Transaction.GetByInvoiceID(event.InvoiceRef)
	if err != nil {
		finishWebhookEvent(record, "unknown invoice "+event.InvoiceRef)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "unknown invoice"})
	}

	// The provider acts with platform authority when confirming payments.
	system := principal.Principal{
		Role:     principal.RoleSuperadmin,
		TenantID: "platform",
		UserID:   "billing-webhook",
	}
	if _, err := approvalService().MarkPaid(system, tx.PublicID, "provider"); err != nil {
		log.Printf("billing webhook: mark paid failed for %s: %v", tx.PublicID, err)
		finishWebhookEvent(record, err.Error())
		return serviceError(c, err)
	}

	finishWebhookEvent(record, "")
	return c.JSON(fiber.Map{"received": true, "applied": true})
}

// recordWebhookEvent stores the delivery for the idempotency check. The
// second return is false when the provider event id was seen before.
func recordWebhookEvent(event *billingprovider.WebhookPaymentEvent, payload []byte) (*models.BillingWebhookEvent, bool) {
	db := database.GetDB()

	var existing models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", "billing", event.EventID).First(&existing).Error; err == nil {
		return &existing, false
	}

	record := &models.BillingWebhookEvent{
		Provider:        "billing",
		ProviderEventID: event.EventID,
		EventType:       event.EventType,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	}
	if err := db.Create(record).Error; err != nil {
		// A concurrent delivery won the insert race on the unique index.
		return record, false
	}
	return record, true
}

func finishWebhookEvent(record *models.BillingWebhookEvent, processingError string) {
	now := time.Now()
	record.ProcessedAt = &now
	record.ProcessingError = processingError
	_ = database.GetDB().Save(record).Error
}
