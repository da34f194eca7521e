// Package health provides health check endpoints.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starquake/quizai/internal/httputil"
	"github.com/starquake/quizai/internal/logging"
)

// Pinger reports whether the quiz storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to a Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Always is a Pinger for storage that cannot go down, such as the in-memory mock.
var Always = PingerFunc(func(context.Context) error { return nil })

// HandleHealthz returns a handler that serves health check responses.
func HandleHealthz(logger *slog.Logger, storage Pinger) http.Handler {
	type healthStatus struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		httpStatus := http.StatusOK
		health := healthStatus{
			Status: "ok",
			Checks: make(map[string]string),
		}

		if err := storage.Ping(ctx); err != nil {
			health.Status = "degraded"
			health.Checks["storage"] = fmt.Sprintf("unhealthy: %v", err)
			httpStatus = http.StatusServiceUnavailable
		} else {
			health.Checks["storage"] = "ok"
		}

		logger.DebugContext(ctx, "Health check performed", slog.String("status", health.Status))
		if err := httputil.EncodeJSON(w, httpStatus, health); err != nil {
			logger.ErrorContext(ctx, "error encoding health status", logging.ErrAttr(err))
		}
	})
}
