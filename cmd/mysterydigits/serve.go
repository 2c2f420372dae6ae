package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/mysterydigits/internal/game"
	"github.com/verte-zerg/mysterydigits/internal/generator"
	"github.com/verte-zerg/mysterydigits/internal/model"
	"github.com/verte-zerg/mysterydigits/internal/server"
	"github.com/verte-zerg/mysterydigits/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local game service",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveCORSOrigin, "cors-origin", "", "allowed browser origin (empty disables CORS)")
	cmd.Flags().StringVar(&serveLogLevel, "log-level", defaultLogLevel, "log level")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyStringConfig(cmd, "cors-origin", &serveCORSOrigin, fileCfg.Serve.CORSOrigin)
	applyStringConfig(cmd, "log-level", &serveLogLevel, fileCfg.Serve.LogLevel)

	cfg := model.ServeConfig{
		Addr:       strings.TrimSpace(serveAddr),
		CORSOrigin: strings.TrimSpace(serveCORSOrigin),
		LogLevel:   serveLogLevel,
	}
	if err := validateServeConfig(cfg); err != nil {
		return err
	}
	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(lvl).With().Timestamp().Logger()

	engine := game.NewEngine(generator.New(), clockwork.NewRealClock())
	srv := server.New(engine, store.New(), logger, cfg.CORSOrigin)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("cors_origin", cfg.CORSOrigin).Msg("starting game service")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func validateServeConfig(cfg model.ServeConfig) error {
	if cfg.Addr == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	if cfg.CORSOrigin != "" && !strings.HasPrefix(cfg.CORSOrigin, "http://") && !strings.HasPrefix(cfg.CORSOrigin, "https://") {
		return fmt.Errorf("--cors-origin must start with http:// or https://")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level must be a zerolog level: %w", err)
	}
	return nil
}
