package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/integrationprobe/internal/domain"
	apimw "github.com/hamed0406/integrationprobe/internal/httpapi/middleware"
	"github.com/hamed0406/integrationprobe/internal/registry"
	"github.com/hamed0406/integrationprobe/internal/repo"
)

const maxJSONBody = 64 << 10

const missingFieldsMessage = "Missing integrationId or config"

// Dispatcher is satisfied by *dispatch.Router.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.ProbeRequest) domain.ProbeResult
}

// WatchRunner is satisfied by *scheduler.Rechecker.
type WatchRunner interface {
	RunOnce(ctx context.Context) int
}

type Server struct {
	Logger   *zap.Logger
	Router   Dispatcher
	Registry *registry.Registry
	History  repo.HistoryStore
	Watch    WatchRunner // optional
}

// Options configures the outer middleware stack.
type Options struct {
	Keys           apimw.Keys
	AllowedOrigins []string // empty allows any origin
	PublicRPM      int
	PublicBurst    int
}

func NewServer(l *zap.Logger, d Dispatcher, reg *registry.Registry, hs repo.HistoryStore) *Server {
	return &Server{Logger: l, Router: d, Registry: reg, History: hs}
}

func (s *Server) Handler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(corsHandler(opts.AllowedOrigins))
	r.Use(apimw.RequestID)
	r.Use(apimw.RequestLogger(s.Logger))
	r.Use(apimw.Recover(s.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RequireAny(opts.Keys))
		r.Use(apimw.RateLimit(opts.PublicRPM, opts.PublicBurst))
		r.Use(limitJSONBody)

		r.Post("/integrations/test", s.handleTest)
		r.Get("/integrations", s.handleListIntegrations)
		r.Get("/results/latest", s.handleLatest)
		r.Get("/results/{integrationId}", s.handleHistory)

		r.With(apimw.RequireAdmin(opts.Keys)).Post("/watch/run", s.handleWatchRun)
	})
	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", apimw.RequestIDHeader},
		ExposedHeaders: []string{apimw.RequestIDHeader},
		MaxAge:         300,
	})
}

func limitJSONBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProbeRequest(r.Body)
	if err != nil {
		s.Logger.Error("probe_request_decode_error",
			zap.String("request_id", apimw.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		status := http.StatusInternalServerError
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}
	if !req.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: missingFieldsMessage})
		return
	}

	res := s.Router.Dispatch(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}

type integrationView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Strategy registry.Tag   `json:"strategy"`
	Defaults map[string]any `json:"defaults,omitempty"`
}

func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	entries := s.Registry.Entries()
	out := make([]integrationView, 0, len(entries))
	for _, e := range entries {
		v := integrationView{ID: e.ID, Name: e.Name, Strategy: e.Strategy.Tag()}
		switch st := e.Strategy.(type) {
		case registry.TCPStrategy:
			v.Defaults = map[string]any{"host": st.DefaultHost, "port": st.DefaultPort}
		case registry.HTTPStrategy:
			if st.DefaultURL != "" {
				v.Defaults = map[string]any{"url": st.DefaultURL}
			}
		case registry.CompositeStrategy:
			v.Defaults = map[string]any{"endpoints": st.Endpoints}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.History.Latest(r.Context())
	if err != nil {
		s.internalError(w, r, "history_latest_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "integrationId")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	rows, err := s.History.ListByIntegration(r.Context(), id, limit)
	if err != nil {
		s.internalError(w, r, "history_list_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleWatchRun(w http.ResponseWriter, r *http.Request) {
	if s.Watch == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no watchlist configured"})
		return
	}
	start := time.Now()
	n := s.Watch.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"probed":      n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, event string, err error) {
	s.Logger.Error(event,
		zap.String("request_id", apimw.RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}
