package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pong/internal/domain"
	"github.com/hamed0406/pong/internal/httpapi/middleware"
	"github.com/hamed0406/pong/internal/metrics"
	"github.com/hamed0406/pong/internal/repo"
)

const shutdownTimeout = 5 * time.Second

// StatusSource is the read side of the status store.
type StatusSource interface {
	repo.StatusReader
	List() []domain.TargetStatus
}

type Server struct {
	Logger   *zap.Logger
	Status   StatusSource
	Registry *prometheus.Registry
}

func NewServer(l *zap.Logger, status StatusSource) *Server {
	return &Server{Logger: l, Status: status, Registry: metrics.NewRegistry(status)}
}

// Router serves /health openly; /metrics and /api/* require one of tokens
// when any are configured.
func (s *Server) Router(tokens []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RequestLog(s.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireToken(tokens))
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{
			ErrorLog:      zap.NewStdLog(s.Logger),
			ErrorHandling: promhttp.ContinueOnError,
		}))
		r.Get("/api/status", s.handleListStatus)
		r.Get("/api/status/{taskType}", s.handleGetStatus)
	})
	return r
}

func (s *Server) handleListStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Status.List())
}

// handleGetStatus looks up one key: /api/status/tcp?target=db:5432
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	typ, err := domain.ParseTaskType(chi.URLParam(r, "taskType"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	target := r.URL.Query().Get("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target is required"})
		return
	}
	st, ok := s.Status.Get(domain.KeyOf(typ, target))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "never checked"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe binds every address before serving any, so a bad bind
// fails startup. It returns after ctx is cancelled and the servers have
// shut down.
func (s *Server) ListenAndServe(ctx context.Context, addrs []string, h http.Handler) error {
	var lns []net.Listener
	for _, a := range addrs {
		ln, err := net.Listen("tcp", a)
		if err != nil {
			for _, l := range lns {
				l.Close()
			}
			return fmt.Errorf("listen %s: %w", a, err)
		}
		lns = append(lns, ln)
	}
	return s.Serve(ctx, lns, h)
}

func (s *Server) Serve(ctx context.Context, lns []net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.Logger),
	}
	errCh := make(chan error, len(lns))
	for _, ln := range lns {
		s.Logger.Info("api_listen", zap.String("addr", ln.Addr().String()))
		go func(ln net.Listener) {
			errCh <- srv.Serve(ln)
		}(ln)
	}

	remaining := len(lns)
	var errs error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		// one listener died; take the rest down with it
		remaining--
		errs = multierr.Append(errs, err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errs = multierr.Append(errs, srv.Shutdown(sctx))
	for ; remaining > 0; remaining-- {
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
