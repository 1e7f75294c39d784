package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close()

	policy, err := authz.NewPolicy()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load authorization policy")
	}

	// Initialize Router
	mux := handler.NewRouter(cfg, policy, newServices(repo, policy))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Server stopped")
}

func newServices(repo *sqlite.SQLiteRepository, policy *authz.Policy) handler.Services {
	return handler.Services{
		Clicks:   services.NewClickService(repo),
		Stats:    services.NewStatsService(repo),
		Projects: services.NewProjectService(repo, policy),
		Members:  services.NewMemberService(repo, policy),
		Links:    services.NewLinkService(repo, policy),
	}
}
