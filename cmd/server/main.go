package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/lightbnb/lightbnb/internal/logging"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/api"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tendant/chi-demo/app"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Println(config.UsageText("LightBnB API server"))
		return
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := cfg.BuildService(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("database_type", cfg.DatabaseType).Msg("failed to create service")
	}
	defer cleanup()

	logger := logging.With("api")
	handler := api.NewHandler(svc, api.Config{
		JWTSecret:          cfg.Auth.JWTSecret,
		TokenTTL:           cfg.Auth.TokenTTL,
		LoginRateLimit:     cfg.Auth.LoginRateLimit,
		LoginRateWindow:    cfg.Auth.LoginRateWindow,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:      cfg.Environment == "production",
		Logger:             &logger,
	})

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	server.R.Handle("/metrics", promhttp.Handler())

	server.R.Group(func(r chi.Router) {
		r.Use(handler.Middleware()...)
		handler.RegisterRoutes(r)
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Str("database_type", cfg.DatabaseType).
			Msg("LightBnB server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
