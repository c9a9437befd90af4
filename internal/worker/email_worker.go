package worker

// email_worker.go
// Processes invoice-email jobs from QueueEmail: loads the factura, renders
// the PDF and sends it through SMTP behind the circuit breaker. Jobs that
// exhaust their retries land in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"apolo/internal/infra"
	"apolo/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxEmailAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	FacturaID string `json:"factura_id"`
	ToEmail   string `json:"to_email"`
}

// EmailWorker renders and sends invoice receipts.
type EmailWorker struct {
	facturaRepo    repository.FacturaRepository
	mailer         *infra.Mailer
	cb             *infra.CircuitBreaker
	pdfStoragePath string
	tiendaNombre   string
}

func NewEmailWorker(
	facturaRepo repository.FacturaRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	pdfStoragePath string,
	tiendaNombre string,
) *EmailWorker {
	return &EmailWorker{
		facturaRepo:    facturaRepo,
		mailer:         mailer,
		cb:             cb,
		pdfStoragePath: pdfStoragePath,
		tiendaNombre:   tiendaNombre,
	}
}

// Process handles one invoice-email job:
//  1. Parse EmailJobPayload from the job envelope
//  2. Fetch the factura with its detail snapshots
//  3. Generate the PDF invoice
//  4. Send it through SMTP behind the circuit breaker, with backoff
//  5. Move the job to the DLQ when every attempt fails
func (w *EmailWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	facturaID, err := uuid.Parse(payload.FacturaID)
	if err != nil {
		log.Error().Str("factura_id", payload.FacturaID).Msg("email_worker: invalid factura_id")
		return
	}

	factura, err := w.facturaRepo.FindByID(ctx, facturaID)
	if err != nil {
		log.Error().Err(err).Str("factura_id", payload.FacturaID).Msg("email_worker: factura not found")
		return
	}

	pdfPath, err := infra.GenerateFacturaPDF(factura, w.tiendaNombre, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Str("factura_id", payload.FacturaID).Msg("email_worker: PDF generation failed")
		SendToDLQ(ctx, rdb, QueueEmail, "email", raw, fmt.Sprintf("pdf generation: %v", err), 1)
		return
	}

	subject := fmt.Sprintf("%s — Factura de tu compra", w.tiendaNombre)
	body := fmt.Sprintf("Adjunto encontraras la factura de tu compra.\nTotal: $%s", factura.Total.StringFixed(2))

	sendErr := withRetry(ctx, maxEmailAttempts, func(attempt int) error {
		err := w.cb.Execute(func() error {
			return w.mailer.SendFactura(payload.ToEmail, subject, body, pdfPath)
		})
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("factura_id", payload.FacturaID).
				Msg("email_worker: send attempt failed, retrying")
		}
		return err
	})

	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", payload.ToEmail).Msg("email_worker: failed after all retries")
		SendToDLQ(ctx, rdb, QueueEmail, "email", raw,
			fmt.Sprintf("smtp failed after %d attempts: %v", maxEmailAttempts, sendErr), maxEmailAttempts)
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("factura_id", payload.FacturaID).Msg("email_worker: factura sent")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
