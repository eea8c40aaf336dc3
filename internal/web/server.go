package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telegram-fragment-bot/internal/fragment"
	"telegram-fragment-bot/internal/logging"
)

// Server publishes fragments over HTTP. It is what BaseURL points at when
// the bot serves its own files.
type Server struct {
	store  *fragment.Store
	server *http.Server
}

func NewServer(addr string, store *fragment.Store) *Server {
	s := &Server{store: store}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes returns the router, exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/{dir}/{file}", s.handleFragment)
	return r
}

// Start blocks until the server stops. A clean shutdown returns nil.
func (s *Server) Start() error {
	logging.Log.Info().Str("addr", s.server.Addr).Msg("fragment server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	kind, ok := fragment.KindByDir(chi.URLParam(r, "dir"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, ok := strings.CutSuffix(chi.URLParam(r, "file"), kind.Ext())
	if !ok || !fragment.ValidID(id) {
		http.NotFound(w, r)
		return
	}

	content, err := s.store.Read(r.Context(), kind, id)
	switch {
	case errors.Is(err, fragment.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		logging.Log.Error().Err(err).Str("kind", kind.String()).Str("id", id).Msg("read fragment failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if kind == fragment.Name {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(content))
}
