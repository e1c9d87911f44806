package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"souverain/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ok(context.Context) error { return nil }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLive(t *testing.T) {
	router := health.Routes(health.NewHandler(nil, zap.NewNop()))

	rec := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReady(t *testing.T) {
	var response struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}

	t.Run("should report ok when every check passes", func(t *testing.T) {
		checks := map[string]health.Check{"store": ok, "gateway": ok}
		rec := get(t, health.Routes(health.NewHandler(checks, zap.NewNop())), "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "ok", response.Status)
		assert.Equal(t, map[string]string{"store": "ok", "gateway": "ok"}, response.Checks)
	})

	t.Run("should report unavailable when a check fails", func(t *testing.T) {
		checks := map[string]health.Check{
			"store":   ok,
			"gateway": func(context.Context) error { return errors.New("not connected") },
		}
		rec := get(t, health.Routes(health.NewHandler(checks, zap.NewNop())), "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "error", response.Status)
		assert.Equal(t, "not connected", response.Checks["gateway"])
		assert.Equal(t, "ok", response.Checks["store"])
	})
}

func TestServe_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- health.Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), zap.NewNop())
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
