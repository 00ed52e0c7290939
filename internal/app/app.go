package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/recipechat-server/internal/auth"
	"github.com/vovakirdan/recipechat-server/internal/config"
	"github.com/vovakirdan/recipechat-server/internal/core"
	"github.com/vovakirdan/recipechat-server/internal/metrics"
	"github.com/vovakirdan/recipechat-server/internal/store"
	"github.com/vovakirdan/recipechat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/recipechat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *transporthttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	jwtConfig := &auth.JWTConfig{
		Secret:    []byte(cfg.JWTSecret),
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.JWTTTL,
		DevMode:   cfg.DevMode,
	}
	verifier, err := auth.NewVerifier(jwtConfig)
	if err != nil {
		return nil, fmt.Errorf("init verifier: %w", err)
	}
	if verifier.DevMode() {
		logger.Warn().Msg("dev mode enabled: websocket tokens are NOT signature-checked")
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, jwtConfig)

	registry := core.NewRegistry(cfg.MaxConnections)
	registry.OnChange(func(size int) {
		metrics.ActiveConnections.Set(float64(size))
	})

	dispatcher := core.NewDispatcher(registry, cfg.SendTimeout, cfg.BroadcastFanout, logger)
	bridge := core.NewBridge(st, dispatcher, core.BridgeConfig{
		MaxTextLength:  cfg.MaxTextLength,
		DefaultHistory: cfg.HistoryLimit,
		MaxHistory:     cfg.MaxHistory,
	}, logger)

	server := transporthttp.NewServer(registry, bridge, verifier, authService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)

		// Shutdown does not wait for hijacked websocket connections; drain
		// them before the store goes away.
		if wsErr := a.server.WS.Shutdown(shutdownCtx); wsErr != nil {
			a.log.Warn().Err(wsErr).Msg("websocket handlers still running")
		}

		a.cleanup()
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
