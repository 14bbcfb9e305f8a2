package billingprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// WebhookPaymentEvent is the normalized shape of a provider payment webhook.
// InvoiceRef matches the invoice id stamped on the local transaction.
type WebhookPaymentEvent struct {
	EventID    string
	EventType  string
	InvoiceRef string
	TenantRef  string
	Amount     float64
	Status     string
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature header the
// provider attaches to webhook deliveries.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// ParseWebhookPaymentEvent decodes a payment webhook payload.
func ParseWebhookPaymentEvent(payload []byte) (*WebhookPaymentEvent, error) {
	type rawPayload struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			InvoiceRef string  `json:"invoice_ref"`
			TenantRef  string  `json:"tenant_ref"`
			Amount     float64 `json:"amount"`
			Status     string  `json:"status"`
		} `json:"data"`
	}

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	out := &WebhookPaymentEvent{
		EventID:    strings.TrimSpace(raw.ID),
		EventType:  strings.TrimSpace(raw.Type),
		InvoiceRef: strings.TrimSpace(raw.Data.InvoiceRef),
		TenantRef:  strings.TrimSpace(raw.Data.TenantRef),
		Amount:     raw.Data.Amount,
		Status:     strings.TrimSpace(raw.Data.Status),
	}
	if out.EventID == "" {
		return nil, errors.New("webhook payload missing event id")
	}
	if out.InvoiceRef == "" {
		return nil, errors.New("webhook payload missing invoice ref")
	}
	return out, nil
}
