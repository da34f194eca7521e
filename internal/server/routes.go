package server

import (
	"log/slog"
	"net/http"

	"github.com/starquake/quizai/internal/api"
	"github.com/starquake/quizai/internal/quiz"
)

func addRoutes(
	mux *http.ServeMux,
	logger *slog.Logger,
	svc quiz.Service,
	healthz http.Handler,
) {
	api.AddRoutes(mux, logger, svc)
	mux.Handle("GET /healthz", healthz)
	mux.Handle("/", http.NotFoundHandler())
}
