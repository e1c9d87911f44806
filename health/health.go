package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const checkTimeout = 5 * time.Second

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checks map[string]Check
	Log    *zap.Logger
}

// NewHandler constructs a health Handler running checks on readiness probes.
func NewHandler(checks map[string]Check, logger *zap.Logger) *Handler {
	return &Handler{Checks: checks, Log: logger}
}

// Live handles GET /healthz.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /readyz.
//
// Every check passing gives 200 and
//
//	{ "status":"ok", "checks":{"store":"ok","gateway":"ok"} }
//
// Any failure gives 503 with the failing check's error as its value.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := readyResponse{Status: "ok", Checks: make(map[string]string, len(h.Checks))}

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			h.Log.Warn("Health check failed.", zap.String("check", name), zap.Error(err))
			resp.Status = "error"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Routes returns the router serving /healthz and /readyz.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", h.Live)
	r.Get("/readyz", h.Ready)
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts the server down.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Health server listening.", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Health server stopped.")
	return nil
}
