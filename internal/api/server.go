package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/IshaanNene/shelfwatch/internal/catalog"
	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/storage"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// Runner runs one crawl session.
type Runner interface {
	Run(ctx context.Context, pages int) (catalog.Stats, error)
}

// SessionFactory builds a session runner. A non-empty proxyURL routes
// the session's page fetches through that proxy.
type SessionFactory func(proxyURL string) (Runner, error)

// Server exposes the HTTP trigger surface for the crawler.
type Server struct {
	mux      *http.ServeMux
	cfg      *config.Config
	sessions SessionFactory
	store    storage.RecordStore
	logger   *slog.Logger
	srv      *http.Server

	// Sessions are sequential; concurrent triggers queue here.
	crawlMu sync.Mutex
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, sessions SessionFactory, store storage.RecordStore, logger *slog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		logger:   logger.With("component", "api_server"),
	}

	s.registerRoutes()
	return s
}

// Handler returns the route handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the API server until it is shut down.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("API server starting", "addr", s.cfg.API.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/scrape", s.withToken(s.handleScrape))
	s.mux.HandleFunc("GET /api/v1/catalogue", s.withToken(s.handleCatalogue))
}

// withToken rejects requests whose X-Token header does not match the
// configured token. The check runs before anything else, so an
// unauthorized request never triggers network activity.
func (s *Server) withToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != s.cfg.API.Token {
			s.logger.Warn("request rejected: bad token", "path", r.URL.Path, "remote", r.RemoteAddr)
			s.jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": types.ErrInvalidToken.Error()})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

type scrapeResponse struct {
	Status   string `json:"status"`
	Pages    int    `json:"pages"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	pages := 1
	if raw := r.URL.Query().Get("pages"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "pages must be an integer"})
			return
		}
		pages = parsed
	}
	if err := config.ValidatePages(pages, s.cfg.Crawl.MaxPages); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	runner, err := s.sessions(r.URL.Query().Get("proxy"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, types.ErrNoProxies) {
			status = http.StatusBadRequest
		}
		s.jsonResponse(w, status, map[string]string{"error": err.Error()})
		return
	}

	s.crawlMu.Lock()
	stats, err := runner.Run(r.Context(), pages)
	s.crawlMu.Unlock()

	if err != nil {
		if errors.Is(err, types.ErrPageBounds) {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("scrape request failed", "pages", pages, "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.jsonResponse(w, http.StatusOK, scrapeResponse{
		Status:   "completed",
		Pages:    pages,
		Inserted: stats.Inserted,
		Updated:  stats.Updated,
		Skipped:  stats.Skipped,
	})
}

func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Load(r.Context())
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	s.jsonResponse(w, http.StatusOK, products)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
