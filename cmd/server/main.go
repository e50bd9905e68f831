package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/avelex/watchparty/internal/adapters/http"
	wssignal "github.com/avelex/watchparty/internal/adapters/signal"
	"github.com/avelex/watchparty/internal/app"
	"github.com/avelex/watchparty/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	store := app.NewRoomStore()
	janitor := app.NewJanitor(cfg.UploadDir, store,
		app.WithSchedule(cfg.JanitorSpec),
		app.WithDeferral(cfg.JanitorDefer),
		app.WithTTLs(cfg.AssetTTL, cfg.AssetTTLEmpty),
	)
	playback := app.NewPlayback(store, janitor)
	ctrl := wssignal.NewController(store, playback, cfg.PingPeriod)

	if err := janitor.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start janitor")
	}

	r := router.SetupRouter(ctx, cfg, store, playback, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("watchparty server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	janitor.Stop()
	log.Info().Msg("Server exited gracefully")
}
