package api

import (
	"log/slog"
	"net/http"

	"github.com/starquake/quizai/internal/quiz"
)

// AddRoutes registers the quiz API on mux.
func AddRoutes(mux *http.ServeMux, logger *slog.Logger, svc quiz.Service) {
	mux.Handle("GET /api/quiz", HandleQuizList(logger, svc))
	mux.Handle("POST /api/quiz", HandleQuizCreate(logger, svc))
	mux.Handle("GET /api/quiz/{id}", HandleQuizGet(logger, svc))
	mux.Handle("PATCH /api/quiz/{id}", HandleQuizUpdate(logger, svc))
	mux.Handle("DELETE /api/quiz/{id}", HandleQuizDelete(logger, svc))
}
