package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"apolo/internal/apierror"
	"apolo/internal/config"
	"apolo/internal/dto"
	"apolo/internal/model"
	"apolo/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var decimalCien = decimal.NewFromInt(100)

// Gateway transaction statuses (Wompi schema).
const (
	TransaccionAprobada  = "APPROVED"
	TransaccionRechazada = "DECLINED"
	TransaccionAnulada   = "VOIDED"
	TransaccionError     = "ERROR"
)

// PagoService is the payment gateway adapter: it signs outbound
// payment-initiation payloads and verifies + applies inbound webhooks.
type PagoService interface {
	GenerarCheckout(ctx context.Context, req dto.CheckoutPagoRequest) (*dto.CheckoutPagoResponse, error)
	ProcesarWebhook(ctx context.Context, event dto.WebhookEvent) error

	// FirmaIntegridad is exposed so the webhook round-trip is testable
	// against the adapter's own signing function.
	FirmaIntegridad(reference string, amountInCents int64, currency string) string
}

type pagoService struct {
	facturaRepo repository.FacturaRepository
	checkout    CheckoutService
	cfg         *config.Config
}

func NewPagoService(facturaRepo repository.FacturaRepository, checkout CheckoutService, cfg *config.Config) PagoService {
	return &pagoService{facturaRepo: facturaRepo, checkout: checkout, cfg: cfg}
}

// FirmaIntegridad computes the outbound signature the gateway validates:
// SHA256(reference + amountInCents + currency + integrityKey), hex-encoded.
func (s *pagoService) FirmaIntegridad(reference string, amountInCents int64, currency string) string {
	cadena := fmt.Sprintf("%s%d%s%s", reference, amountInCents, currency, s.cfg.WompiIntegrityKey)
	sum := sha256.Sum256([]byte(cadena))
	return hex.EncodeToString(sum[:])
}

// GenerarCheckout builds the signed payload the client hands to the gateway's
// hosted checkout. The factura must be a priced Pendiente draft: the amount
// is its frozen grand total in minor units.
func (s *pagoService) GenerarCheckout(ctx context.Context, req dto.CheckoutPagoRequest) (*dto.CheckoutPagoResponse, error) {
	facturaID, err := uuid.Parse(req.FacturaID)
	if err != nil {
		return nil, fmt.Errorf("%w: factura_id invalido", apierror.ErrInvalidState)
	}
	factura, err := s.facturaRepo.FindByID(ctx, facturaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: factura", apierror.ErrNotFound)
		}
		return nil, err
	}
	if factura.EstadoPedido != model.EstadoPendiente {
		return nil, fmt.Errorf("%w: la factura no esta pendiente de pago", apierror.ErrInvalidState)
	}
	if !factura.Total.IsPositive() {
		return nil, fmt.Errorf("%w: la factura no tiene total", apierror.ErrInvalidState)
	}

	reference := factura.ID.String()
	amountInCents := factura.Total.Mul(decimalCien).IntPart()

	redirect := s.cfg.WompiRedirectURL
	if req.RedirectURL != nil {
		redirect = *req.RedirectURL
	}

	return &dto.CheckoutPagoResponse{
		PublicKey:          s.cfg.WompiPublicKey,
		Currency:           s.cfg.WompiCurrency,
		AmountInCents:      amountInCents,
		Reference:          reference,
		SignatureIntegrity: s.FirmaIntegridad(reference, amountInCents, s.cfg.WompiCurrency),
		RedirectURL:        redirect,
		CustomerEmail:      req.CorreoCliente,
	}, nil
}

// ProcesarWebhook verifies the event checksum and applies the status
// transition. An authentic, well-formed event always returns nil even when
// the referenced factura does not exist — the gateway would otherwise retry
// forever. Only signature failures and malformed payloads are errors.
func (s *pagoService) ProcesarWebhook(ctx context.Context, event dto.WebhookEvent) error {
	if err := s.verificarChecksum(event); err != nil {
		return err
	}

	if event.Event != "transaction.updated" {
		log.Info().Str("event", event.Event).Msg("webhook: event type ignored")
		return nil
	}

	var data struct {
		Transaction *dto.WebhookTransaction `json:"transaction"`
	}
	if err := json.Unmarshal(event.Data, &data); err != nil || data.Transaction == nil {
		return fmt.Errorf("%w: evento sin transaccion", apierror.ErrInvalidState)
	}
	trx := data.Transaction

	facturaID, err := uuid.Parse(trx.Reference)
	if err != nil {
		log.Warn().Str("reference", trx.Reference).Msg("webhook: reference is not a factura id, ignoring")
		return nil
	}

	info := TransaccionInfo{ID: trx.ID, Estado: trx.Status, Metodo: trx.PaymentMethodType}

	switch trx.Status {
	case TransaccionAprobada:
		err = s.checkout.CompletarPorPasarela(ctx, facturaID, info)
	case TransaccionRechazada:
		err = s.checkout.MarcarEstado(ctx, facturaID, model.EstadoRechazada, info)
	case TransaccionAnulada:
		err = s.checkout.MarcarEstado(ctx, facturaID, model.EstadoCancelada, info)
	case TransaccionError:
		err = s.checkout.MarcarEstado(ctx, facturaID, model.EstadoErrorPago, info)
	default:
		// PENDING and any status the gateway invents later are intermediate:
		// the factura stays Pendiente until a final status arrives.
		log.Info().
			Str("factura_id", facturaID.String()).
			Str("status", trx.Status).
			Msg("webhook: estado intermedio, sin cambios")
		return nil
	}

	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			log.Warn().Str("reference", trx.Reference).Msg("webhook: factura not found, acknowledging anyway")
			return nil
		}
		return err
	}

	log.Info().
		Str("factura_id", facturaID.String()).
		Str("status", trx.Status).
		Msg("webhook: estado aplicado")
	return nil
}

// verificarChecksum rebuilds the event checksum: the string values of the
// nested data fields named by signature.properties, in order, then the
// timestamp, then the events secret — SHA256 hex over the concatenation.
func (s *pagoService) verificarChecksum(event dto.WebhookEvent) error {
	if event.Signature.Checksum == "" || len(event.Signature.Properties) == 0 {
		return fmt.Errorf("%w: evento sin firma", apierror.ErrBadSignature)
	}

	// UseNumber keeps numeric fields in their wire representation: the
	// checksum is computed over the digits the gateway sent, not over a
	// float64 round-trip.
	dec := json.NewDecoder(bytes.NewReader(event.Data))
	dec.UseNumber()
	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("%w: data ilegible", apierror.ErrBadSignature)
	}

	var b strings.Builder
	for _, prop := range event.Signature.Properties {
		valor, ok := valorAnidado(data, prop)
		if !ok {
			return fmt.Errorf("%w: propiedad %q ausente", apierror.ErrBadSignature, prop)
		}
		b.WriteString(valor)
	}
	fmt.Fprintf(&b, "%d", event.Timestamp)
	b.WriteString(s.cfg.WompiEventsKey)

	sum := sha256.Sum256([]byte(b.String()))
	esperado := hex.EncodeToString(sum[:])
	if !strings.EqualFold(esperado, event.Signature.Checksum) {
		return fmt.Errorf("%w: checksum no coincide", apierror.ErrBadSignature)
	}
	return nil
}

// valorAnidado resolves a dotted path ("transaction.amount_in_cents") inside
// the decoded data object and renders the leaf as the gateway would.
func valorAnidado(data map[string]interface{}, path string) (string, bool) {
	partes := strings.Split(path, ".")
	var actual interface{} = data
	for _, p := range partes {
		m, ok := actual.(map[string]interface{})
		if !ok {
			return "", false
		}
		actual, ok = m[p]
		if !ok {
			return "", false
		}
	}
	switch v := actual.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}
