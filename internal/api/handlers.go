// Package api provides the HTTP handlers of the quiz API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/starquake/quizai/internal/httputil"
	"github.com/starquake/quizai/internal/logging"
	"github.com/starquake/quizai/internal/quiz"
)

// HandleQuizList returns all quizzes.
func HandleQuizList(logger *slog.Logger, svc quiz.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quizzes, err := svc.ListQuizzes(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "error retrieving quizzes", logging.ErrAttr(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, quizzes); err != nil {
			logger.ErrorContext(r.Context(), "error encoding quizzes", logging.ErrAttr(err))
		}
	})
}

// createRequest is the body of POST /api/quiz: one quiz object or an array of quizzes.
type createRequest struct {
	quizzes []*quiz.Quiz
	batch   bool
}

// UnmarshalJSON decodes either a single quiz or an array of quizzes.
func (c *createRequest) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimLeft(b, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '[' {
		c.batch = true

		return json.Unmarshal(b, &c.quizzes)
	}

	var qz *quiz.Quiz
	if err := json.Unmarshal(b, &qz); err != nil {
		return err
	}
	c.quizzes = []*quiz.Quiz{qz}

	return nil
}

// Valid validates every quiz. Problems of the i-th quiz of an array are prefixed with "[i].".
func (c createRequest) Valid(ctx context.Context) map[string]string {
	if !c.batch {
		return c.quizzes[0].Valid(ctx)
	}

	problems := make(map[string]string)
	if len(c.quizzes) == 0 {
		problems["quiz"] = "At least one quiz is required"
	}
	for i, qz := range c.quizzes {
		for key, msg := range qz.Valid(ctx) {
			problems[fmt.Sprintf("[%d].%s", i, key)] = msg
		}
	}

	return problems
}

// HandleQuizCreate stores the quiz in the request body and echoes the stored quiz.
// The body may also be an array of quizzes; they are stored in order and echoed as an array.
// Nothing is stored unless every quiz is valid.
// Questions and options without an ID get one.
// Returns 201 if the quizzes were stored.
// Returns 400 if the request body is malformed or a quiz is invalid.
func HandleQuizCreate(logger *slog.Logger, svc quiz.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, problems, err := httputil.DecodeValid[createRequest](r)
		if err != nil {
			badRequest(w, r, logger, "invalid quiz", problems, err)

			return
		}

		created := make([]*quiz.Quiz, 0, len(req.quizzes))
		for _, qz := range req.quizzes {
			qz.AssignIDs()

			stored, createErr := svc.CreateQuiz(ctx, qz)
			if createErr != nil {
				logger.ErrorContext(ctx, "error creating quiz", slog.String("id", qz.ID), logging.ErrAttr(createErr))
				http.Error(w, createErr.Error(), http.StatusInternalServerError)

				return
			}
			created = append(created, stored)
		}

		if req.batch {
			logger.InfoContext(ctx, "quizzes created", slog.Int("count", len(created)))
			if err = httputil.EncodeJSON(w, http.StatusCreated, created); err != nil {
				logger.ErrorContext(ctx, "error encoding quizzes", logging.ErrAttr(err))
			}

			return
		}

		w.Header().Set("Location", "/api/quiz/"+url.PathEscape(created[0].ID))
		if err = httputil.EncodeJSON(w, http.StatusCreated, created[0]); err != nil {
			logger.ErrorContext(ctx, "error encoding quiz", logging.ErrAttr(err))
		}
	})
}

// HandleQuizGet returns the quiz with the ID in the path, or 404.
func HandleQuizGet(logger *slog.Logger, svc quiz.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.PathValue("id")

		qz, err := svc.GetQuizByID(ctx, id)
		if err != nil {
			logger.ErrorContext(ctx, "error retrieving quiz", slog.String("id", id), logging.ErrAttr(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}
		if qz == nil {
			http.NotFound(w, r)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, qz); err != nil {
			logger.ErrorContext(ctx, "error encoding quiz", logging.ErrAttr(err))
		}
	})
}

// HandleQuizUpdate merges the partial quiz in the request body onto the quiz with the ID in the path.
// Returns 200 with the merged quiz, 400 if the body is malformed or invalid, 404 if there is no such quiz.
func HandleQuizUpdate(logger *slog.Logger, svc quiz.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.PathValue("id")

		u, problems, err := httputil.DecodeValid[quiz.Update](r)
		if err != nil {
			badRequest(w, r, logger, "invalid quiz update", problems, err)

			return
		}
		u.AssignIDs()

		updated, err := svc.UpdateQuiz(ctx, id, u)
		if err != nil {
			logger.ErrorContext(ctx, "error updating quiz", slog.String("id", id), logging.ErrAttr(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}
		if updated == nil {
			http.NotFound(w, r)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, updated); err != nil {
			logger.ErrorContext(ctx, "error encoding quiz", logging.ErrAttr(err))
		}
	})
}

// HandleQuizDelete deletes the quiz with the ID in the path.
// Returns 204 if it was deleted and 404 if there is no such quiz.
func HandleQuizDelete(logger *slog.Logger, svc quiz.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.PathValue("id")

		deleted, err := svc.DeleteQuiz(ctx, id)
		if err != nil {
			logger.ErrorContext(ctx, "error deleting quiz", slog.String("id", id), logging.ErrAttr(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}
		if !deleted {
			http.NotFound(w, r)

			return
		}

		logger.InfoContext(ctx, "quiz deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	})
}

func badRequest(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	msg string,
	problems map[string]string,
	err error,
) {
	logger.InfoContext(r.Context(), msg, logging.ErrAttr(err))
	if !errors.Is(err, httputil.ErrInvalid) {
		msg = err.Error()
	}
	if encErr := httputil.Problems(w, msg, problems); encErr != nil {
		logger.ErrorContext(r.Context(), "error encoding problems", logging.ErrAttr(encErr))
	}
}
