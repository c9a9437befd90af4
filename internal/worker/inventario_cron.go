package worker

// inventario_cron.go
// Daily goroutine that records an inventory snapshot at the configured hour,
// attributed to the system rather than a staff member.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Snapshotter is the slice of the inventory service the cron needs.
type Snapshotter interface {
	GenerarSnapshotSistema(ctx context.Context) error
}

// StartInventarioCron launches a goroutine that fires once a day at hora
// (local time, 0-23) and records an automatic inventory snapshot.
func StartInventarioCron(ctx context.Context, snap Snapshotter, hora int) {
	go func() {
		log.Info().Int("hora", hora).Msg("inventario_cron: started")
		for {
			espera := hastaProximaHora(time.Now(), hora)
			select {
			case <-ctx.Done():
				log.Info().Msg("inventario_cron: shutting down")
				return
			case <-time.After(espera):
				if err := snap.GenerarSnapshotSistema(ctx); err != nil {
					log.Error().Err(err).Msg("inventario_cron: snapshot failed")
				} else {
					log.Info().Msg("inventario_cron: daily snapshot recorded")
				}
			}
		}
	}()
}

// hastaProximaHora returns the wait until the next occurrence of hora,
// always in the future so a snapshot never double-fires within one day.
func hastaProximaHora(ahora time.Time, hora int) time.Duration {
	proxima := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), hora, 0, 0, 0, ahora.Location())
	if !proxima.After(ahora) {
		proxima = proxima.Add(24 * time.Hour)
	}
	return proxima.Sub(ahora)
}
