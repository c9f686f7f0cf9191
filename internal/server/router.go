// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/server/handlers"
	"github.com/maruel/mdtree/internal/server/ratelimit"
)

// NewRouter creates and configures the HTTP router.
// Serves API endpoints at /api/* and Prometheus metrics at /metrics.
// limits may be nil to disable rate limiting.
func NewRouter(svc *handlers.Services, cfg *handlers.Config, limits *ratelimit.Config) http.Handler {
	mux := &http.ServeMux{}
	maxBody := cfg.Server.MaxRequestBodyBytes

	hh := &handlers.HealthHandler{Cfg: cfg}
	th := &handlers.TreeHandler{Svc: svc, Cfg: cfg}
	mh := &handlers.MutationHandler{Svc: svc, Cfg: cfg}
	uh := &handlers.UploadHandler{Svc: svc, Cfg: cfg}
	ph := &handlers.PreviewHandler{Svc: svc}

	// Health check
	mux.Handle("GET /api/health", Wrap(hh.Health, maxBody))

	// Tree read
	mux.Handle("GET /api/tree", Wrap(th.Tree, maxBody))
	mux.Handle("GET /api/content", Wrap(th.Content, maxBody))

	// Tree mutations
	mux.Handle("POST /api/files", Wrap(mh.CreateFile, maxBody))
	mux.Handle("POST /api/folders", Wrap(mh.CreateFolder, maxBody))
	mux.Handle("POST /api/nodes/delete", Wrap(mh.Delete, maxBody))
	mux.Handle("POST /api/nodes/move", Wrap(mh.Move, maxBody))
	mux.HandleFunc("POST /api/upload", uh.Upload)

	// Previews
	mux.HandleFunc("GET /api/preview/{path...}", ph.Preview)

	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = metrics.Middleware(mux)
	if limits != nil {
		h = limits.Middleware(h)
	}
	return requestMetadata(h)
}
