package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcleanup "github.com/ventionteams/medfast-credentials/internal/auth/cleanup"
	"github.com/ventionteams/medfast-credentials/internal/common/bootstrap"
	commonhttp "github.com/ventionteams/medfast-credentials/internal/common/http"
	srv "github.com/ventionteams/medfast-credentials/internal/common/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewCredentialsApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start credentials service: %v\n", err)
		os.Exit(1)
	}
	log := app.Log
	cfg := app.Config

	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	go authcleanup.StartCleanup(cleanupCtx, app.Refresh, cfg.CleanupInterval, log, authcleanup.StoreRefreshTokens)
	go authcleanup.StartCleanup(cleanupCtx, app.Ephemeral, cfg.CleanupInterval, log, authcleanup.StoreEphemeralTokens)

	checks := map[string]commonhttp.HealthCheck{}
	if app.Pool != nil {
		checks["database"] = func(ctx context.Context) error {
			conn, err := app.Pool.Acquire(ctx)
			if err != nil {
				return err
			}
			defer conn.Release()
			return conn.Conn().Ping(ctx)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/health", commonhttp.HealthHandler(log, checks))
	mux.Handle("/metrics", promhttp.Handler())

	server := srv.NewServer(srv.DefaultConfig(cfg.HTTPPort), commonhttp.BuildBaseHandler("credentials", log, mux))

	hooks := []srv.ShutdownHook{
		func(context.Context) error {
			log.Infof("credentials service: stopping cleanup goroutines")
			cancelCleanup()
			return nil
		},
	}
	for i := len(app.Hooks) - 1; i >= 0; i-- {
		hooks = append(hooks, app.Hooks[i])
	}

	if err := srv.Run(ctx, server, log, "credentials", hooks); err != nil {
		log.Errorf("credentials service exited with error: %v", err)
		os.Exit(1)
	}
}
