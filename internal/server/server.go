package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"homedash/internal/connectivity"
	"homedash/internal/dashboard"
	"homedash/internal/history"
	"homedash/internal/monitor"
)

//go:embed static/*
var embeddedStatic embed.FS

// TargetChecker runs an on-demand orchestrated check.
type TargetChecker interface {
	Check(ctx context.Context, rawURL string) connectivity.Result
}

// Dependencies are the collaborators the HTTP layer serves from.
type Dependencies struct {
	Logger  hclog.Logger
	Store   *dashboard.Store
	Board   *monitor.StatusBoard
	Checker TargetChecker
	// History is optional; without it the history and uptime routes return
	// empty results.
	History *history.Recorder
	Clock   clock.Clock
	// AllowedOrigins enables CORS for the listed origins. "*" allows any.
	AllowedOrigins []string
}

// Validate ensures the required dependencies are set.
func (d Dependencies) Validate() error {
	var errs []error
	if d.Store == nil {
		errs = append(errs, errors.New("dashboard store is required"))
	}
	if d.Board == nil {
		errs = append(errs, errors.New("status board is required"))
	}
	if d.Checker == nil {
		errs = append(errs, errors.New("target checker is required"))
	}
	return errors.Join(errs...)
}

// Server wraps HTTP serving of API, websocket feed and static assets.
type Server struct {
	logger     hclog.Logger
	httpServer *http.Server
	staticFS   fs.FS
	store      *dashboard.Store
	board      *monitor.StatusBoard
	checker    TargetChecker
	history    *history.Recorder
	clock      clock.Clock
	origins    []string
}

// New creates a configured HTTP server for the dashboard.
func New(addr string, deps Dependencies) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = hclog.NewNullLogger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets missing: %w", err)
	}

	s := &Server{
		logger:   deps.Logger.Named("http"),
		staticFS: staticFS,
		store:    deps.Store,
		board:    deps.Board,
		checker:  deps.Checker,
		history:  deps.History,
		clock:    deps.Clock,
		origins:  deps.AllowedOrigins,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.logRequests)
	if len(s.origins) > 0 {
		r.Use(corsHandler(s.origins))
		s.logger.Info("CORS enabled", "origins", s.origins)
	}

	fileServer := http.FileServer(http.FS(s.staticFS))
	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	r.Get("/favicon.ico", s.handleFavicon)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/apps", func(r chi.Router) {
			r.Get("/", s.handleListApps)
			r.Post("/", s.handleAddApp)
			r.Post("/reset", s.handleResetApps)
			r.Get("/{id}", s.handleGetApp)
			r.Put("/{id}", s.handleUpdateApp)
			r.Delete("/{id}", s.handleDeleteApp)
		})
		r.Get("/categories", s.handleCategories)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Post("/settings/reset", s.handleResetSettings)
		r.Post("/reset", s.handleResetAll)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/status", s.handleStatus)
		r.Get("/summary", s.handleSummary)
		r.Get("/history", s.handleHistory)
		r.Get("/uptime", s.handleUptime)
		r.Post("/check", s.handleCheck)
		r.Get("/ws", s.handleStatusWS)
	})
	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	credentials := true
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowed = []string{"*"}
			credentials = false
			break
		}
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: credentials,
		MaxAge:           300,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data, err := fs.ReadFile(s.staticFS, "index.html")
	if err != nil {
		http.Error(w, "index missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleFavicon(w http.ResponseWriter, _ *http.Request) {
	icon, err := fs.ReadFile(s.staticFS, "favicon.svg")
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(icon)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps store errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrAppNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidConfig), errors.Is(err, dashboard.ErrUnsupportedFormat), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
