// Package server contains everything related to the Server
package server

import (
	"log/slog"
	"net/http"

	"github.com/starquake/quizai/internal/quiz"
)

// NewServer creates the quiz API handler. healthz serves /healthz.
// In production JSON responses are minified.
func NewServer(logger *slog.Logger, production bool, svc quiz.Service, healthz http.Handler) http.Handler {
	mux := http.NewServeMux()
	addRoutes(mux, logger, svc, healthz)
	var handler http.Handler = mux
	if production {
		handler = minifyJSON(handler)
	}
	handler = logRequests(logger, handler)
	handler = cors(handler)

	return handler
}
