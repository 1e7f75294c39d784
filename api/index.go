package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	policy := authz.MustPolicy()
	mux = handler.NewRouter(cfg, policy, handler.Services{
		Clicks:   services.NewClickService(repo),
		Stats:    services.NewStatsService(repo),
		Projects: services.NewProjectService(repo, policy),
		Members:  services.NewMemberService(repo, policy),
		Links:    services.NewLinkService(repo, policy),
	})
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
