package worker

// expiry_cron.go
// Background goroutine that periodically deletes Pendiente facturas older
// than the configured deadline. Expired drafts never held stock, so the
// sweep is a plain delete — no restitution step.

import (
	"context"
	"time"

	"apolo/internal/repository"

	"github.com/rs/zerolog/log"
)

// ExpiryCronConfig holds the dependencies for the sweep goroutine.
type ExpiryCronConfig struct {
	FacturaRepo repository.FacturaRepository
	Intervalo   time.Duration
	Expiracion  time.Duration
}

// StartExpiryCron launches a goroutine that ticks every Intervalo and
// reclaims facturas whose Fecha is older than Expiracion. It respects the
// context for graceful shutdown.
func StartExpiryCron(ctx context.Context, cfg ExpiryCronConfig) {
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()

		log.Info().
			Dur("intervalo", cfg.Intervalo).
			Dur("expiracion", cfg.Expiracion).
			Msg("expiry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_cron: shutting down")
				return
			case <-ticker.C:
				limite := time.Now().Add(-cfg.Expiracion)
				eliminadas, err := cfg.FacturaRepo.BarrerExpiradas(ctx, limite)
				if err != nil {
					log.Error().Err(err).Msg("expiry_cron: sweep failed")
					continue
				}
				if eliminadas > 0 {
					log.Info().Int64("eliminadas", eliminadas).Msg("expiry_cron: expired facturas reclaimed")
				}
			}
		}
	}()
}
