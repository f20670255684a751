// Command docstored runs the document store with its diagnostics HTTP
// surface: health and readiness probes, Prometheus metrics, and tenant
// setup inspection.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	docstore "github.com/docex/go-docstore-backend"
	"github.com/docex/go-docstore-backend/internal/config"
	httpapi "github.com/docex/go-docstore-backend/internal/http"
	"github.com/docex/go-docstore-backend/internal/observability"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	store, err := docstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()
	if err := store.Initialize(ctx, "docstored"); err != nil {
		log.Fatal().Err(err).Msg("store initialization failed")
	}

	if cfg.OTEL.Enabled {
		shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			log.Fatal().Err(err).Msg("otel setup failed")
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutCtx); err != nil {
				log.Warn().Err(err).Msg("otel shutdown failed")
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, store.Manager(), cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("diagnostics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
