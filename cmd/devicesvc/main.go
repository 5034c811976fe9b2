// Command devicesvc serves the device API.
//
// Usage:
//
//	devicesvc -config configs/devicesvc.yaml
//	devicesvc -config configs/devicesvc.yaml -issue-token alice
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-device-cache/internal/auth"
	"github.com/goliatone/go-device-cache/internal/config"
	"github.com/goliatone/go-device-cache/internal/logging"
	"github.com/goliatone/go-device-cache/pkg/di"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "devicesvc: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("devicesvc", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to the YAML configuration file")
	issueToken := fs.String("issue-token", "", "print a bearer token for `subject` and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if *issueToken != "" {
		return printToken(cfg, *issueToken)
	}

	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building service: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      container.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("http server shutdown failed", zap.Error(shutdownErr))
	}
	if closeErr := container.Close(shutdownCtx); closeErr != nil {
		logger.Error("closing service failed", zap.Error(closeErr))
	}
	return err
}

// printToken issues a token with the configured signing key, for local use
// against an auth-enabled deployment.
func printToken(cfg *config.Config, subject string) error {
	if !cfg.Auth.Enabled {
		return errors.New("auth is disabled; set auth.enabled and " + config.EnvPrefix + "JWT_SECRET")
	}

	authenticator, err := auth.New(auth.Config{
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Secret:   []byte(cfg.Auth.Secret),
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	token, err := authenticator.Issue(subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
