package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apolo/internal/config"
	"apolo/internal/infra"
	"apolo/internal/repository"
	"apolo/internal/router"
	"apolo/internal/service"
	"apolo/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Background goroutines are wired here (composition root) so they share
	// the process lifecycle and shut down with the HTTP server.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	facturaRepo := repository.NewFacturaRepository(db)

	emailWorker := worker.NewEmailWorker(facturaRepo, mailer, smtpCB, cfg.PDFStoragePath, cfg.TiendaNombre)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, emailWorker)

	worker.StartExpiryCron(ctx, worker.ExpiryCronConfig{
		FacturaRepo: facturaRepo,
		Intervalo:   time.Duration(cfg.BarridoIntervaloSeg) * time.Second,
		Expiracion:  time.Duration(cfg.ExpiracionPedidoMin) * time.Minute,
	})

	if cfg.InventarioHora >= 0 {
		inventarioSvc := service.NewInventarioService(
			repository.NewInventarioRepository(db),
			repository.NewProductoRepository(db),
			repository.NewCalcomaniaRepository(db),
		)
		worker.StartInventarioCron(ctx, inventarioSvc, cfg.InventarioHora)
	}

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Apolo backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
