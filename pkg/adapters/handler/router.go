package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

// Services bundles what the router dispatches to.
type Services struct {
	Clicks   ports.ClickService
	Stats    ports.StatsService
	Projects ports.ProjectService
	Members  ports.MemberService
	Links    ports.LinkService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, policy *authz.Policy, svc Services) http.Handler {
	// Initialize Handlers
	clicks := NewClickHandler(svc.Clicks)
	stats := NewStatsHandler(svc.Stats)
	catalog := NewCatalogHandler(svc.Projects, svc.Members, svc.Links)
	authHandler := NewAuthHandler(cfg, svc.Members)

	mw := NewMiddleware(cfg, policy)
	ingest := func(h http.HandlerFunc) http.HandlerFunc { return mw.Require(authz.IngestClick, h) }
	read := func(h http.HandlerFunc) http.HandlerFunc { return mw.Require(authz.ReadStats, h) }
	write := func(h http.HandlerFunc) http.HandlerFunc { return mw.Require(authz.WriteCatalog, h) }

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)
	mux.Handle("GET /api/v1/me", mw.Authenticate(http.HandlerFunc(authHandler.Me)))

	// Click ingestion
	mux.HandleFunc("GET /go/{id}", ingest(clicks.Redirect))
	mux.HandleFunc("GET /track", ingest(clicks.Track))

	// Reporting
	mux.HandleFunc("GET /api/v1/summary", read(stats.Summary))
	mux.HandleFunc("GET /api/v1/stats", read(stats.Global))
	mux.HandleFunc("GET /api/v1/leaderboard", read(stats.GlobalLeaderboard))
	mux.HandleFunc("GET /api/v1/members", read(stats.Members))
	mux.HandleFunc("GET /api/v1/links/{id}/stats", read(stats.Link))
	mux.HandleFunc("GET /api/v1/projects", read(catalog.ListProjects))
	mux.HandleFunc("GET /api/v1/projects/{id}", read(catalog.GetProject))
	mux.HandleFunc("GET /api/v1/projects/{id}/stats", read(stats.Project))
	mux.HandleFunc("GET /api/v1/projects/{id}/leaderboard", read(stats.ProjectLeaderboard))
	mux.HandleFunc("GET /api/v1/projects/{id}/members", read(stats.ProjectMembers))
	mux.HandleFunc("GET /api/v1/projects/{id}/owners/{ownerID}/links", read(catalog.OwnerLinks))

	// Catalog writes
	mux.HandleFunc("POST /api/v1/projects", write(catalog.CreateProject))
	mux.HandleFunc("DELETE /api/v1/projects/{id}", write(catalog.DeleteProject))
	mux.HandleFunc("POST /api/v1/projects/{id}/members", write(catalog.AddProjectMember))
	mux.HandleFunc("POST /api/v1/projects/{id}/links", write(catalog.CreateLink))
	mux.HandleFunc("POST /api/v1/members", write(catalog.CreateMember))

	return RequestLogger(mux)
}
