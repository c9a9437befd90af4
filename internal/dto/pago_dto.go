package dto

import "encoding/json"

// ─── Requests ────────────────────────────────────────────────────────────────

// CheckoutPagoRequest asks for a signed payment-initiation payload for a
// pending factura.
type CheckoutPagoRequest struct {
	FacturaID     string  `json:"factura_id"     validate:"required,uuid"`
	CorreoCliente string  `json:"correo_cliente" validate:"required,email"`
	RedirectURL   *string `json:"redirect_url"   validate:"omitempty,url"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// CheckoutPagoResponse carries everything the client needs to open the
// gateway's hosted checkout.
type CheckoutPagoResponse struct {
	PublicKey          string `json:"public_key"`
	Currency           string `json:"currency"`
	AmountInCents      int64  `json:"amount_in_cents"`
	Reference          string `json:"reference"`
	SignatureIntegrity string `json:"signature_integrity"`
	RedirectURL        string `json:"redirect_url"`
	CustomerEmail      string `json:"customer_email"`
}

// ─── Webhook payload (gateway schema) ────────────────────────────────────────

// WebhookEvent mirrors the gateway's event envelope. Data is kept raw so the
// checksum can be rebuilt from the exact nested fields the event names.
type WebhookEvent struct {
	Event       string           `json:"event"`
	Data        json.RawMessage  `json:"data"`
	SentAt      string           `json:"sent_at"`
	Timestamp   int64            `json:"timestamp"`
	Signature   WebhookSignature `json:"signature"`
	Environment string           `json:"environment"`
}

type WebhookSignature struct {
	Properties []string `json:"properties"`
	Checksum   string   `json:"checksum"`
}

// WebhookTransaction is the portion of data.transaction the pipeline needs.
type WebhookTransaction struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	AmountInCents     int64  `json:"amount_in_cents"`
	PaymentMethodType string `json:"payment_method_type"`
}
