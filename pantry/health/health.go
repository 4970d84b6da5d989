// health/health.go
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/inquiry/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check probes one dependency and returns nil when it is healthy. ctx is
// derived from the request and bounded by the handler's per-check timeout.
type Check func(ctx context.Context) error

// Response is the JSON body of /health.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DefaultTimeout bounds each check.
const DefaultTimeout = 2 * time.Second

// Handler runs checks concurrently on every request. With no checks it is
// a plain liveness probe answering {"status":"ok"}. Any failing check turns
// the answer into 503 with that check marked "error"; error details go to
// the log only.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			failed  bool
			results = make(map[string]string, len(checks))
		)
		for name, check := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := run(r.Context(), check)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed = true
					results[name] = "error"
					logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
					return
				}
				results[name] = "ok"
			}()
		}
		wg.Wait()

		if failed {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}

func run(ctx context.Context, check Check) error {
	if check == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	return check(ctx)
}

// Mount attaches GET /health to r.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, logger))
}
