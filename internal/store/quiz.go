// Package store provides the application's in-process quiz state.
//
// A QuizStore is the single source of truth for quiz data seen by the rest of the application. It wraps a
// quiz.Service, tracks loading and error status, and keeps its reflection of the quiz collection in sync
// after every successful call.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starquake/quizai/internal/logging"
	"github.com/starquake/quizai/internal/quiz"
)

// Messages recorded as the store error when an action fails.
const (
	MsgFetchQuizzes = "failed to load quizzes"
	MsgCreateQuiz   = "failed to create quiz"
	MsgRemoveQuiz   = "failed to delete quiz"
	MsgFetchQuiz    = "failed to load quiz"
	MsgUpdateQuiz   = "failed to update quiz"
)

// QuizStore holds the quiz collection, a loading flag and the message of the last failure.
//
// Actions are not serialized against each other. When two actions touching the same quiz are in flight,
// the one that resolves last wins.
type QuizStore struct {
	service quiz.Service
	logger  *slog.Logger

	mu       sync.RWMutex
	quizzes  []*quiz.Quiz
	inflight int
	errMsg   string
}

// NewQuizStore creates an empty QuizStore backed by service.
func NewQuizStore(service quiz.Service, logger *slog.Logger) *QuizStore {
	return &QuizStore{
		service: service,
		logger:  logger,
		quizzes: make([]*quiz.Quiz, 0),
	}
}

// Quizzes returns a copy of the quiz collection.
func (s *QuizStore) Quizzes() []*quiz.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return quiz.CloneAll(s.quizzes)
}

// Loading reports whether an action is waiting on the quiz service.
func (s *QuizStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inflight > 0
}

// ErrorMessage returns the message of the last failed action, or "" if there is none.
func (s *QuizStore) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.errMsg
}

// ClearError clears the error message.
func (s *QuizStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errMsg = ""
}

// TotalQuizzes returns the number of quizzes in the collection.
func (s *QuizStore) TotalQuizzes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quizzes)
}

// GetQuizByID looks up a quiz in the collection without calling the service.
func (s *QuizStore) GetQuizByID(id string) (*quiz.Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i == -1 {
		return nil, false
	}

	return s.quizzes[i].Clone(), true
}

// FetchQuizzes replaces the collection with the quizzes listed by the service.
func (s *QuizStore) FetchQuizzes(ctx context.Context) error {
	s.begin()
	defer s.end()

	quizzes, err := s.service.ListQuizzes(ctx)
	if err != nil {
		return s.fail(ctx, MsgFetchQuizzes, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes = quiz.CloneAll(quizzes)

	return nil
}

// CreateQuiz creates qz through the service and adds the result to the collection,
// replacing a quiz with the same ID in place.
func (s *QuizStore) CreateQuiz(ctx context.Context, qz *quiz.Quiz) (*quiz.Quiz, error) {
	s.begin()
	defer s.end()

	created, err := s.service.CreateQuiz(ctx, qz)
	if err != nil {
		return nil, s.fail(ctx, MsgCreateQuiz, err)
	}
	if created == nil {
		return nil, s.fail(ctx, MsgCreateQuiz, fmt.Errorf("%w: service returned no quiz", quiz.ErrCreate))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(created.Clone())

	return created, nil
}

// RemoveQuiz deletes a quiz through the service and removes it from the collection.
// It fails with quiz.ErrQuizNotFound if the service has no such quiz.
func (s *QuizStore) RemoveQuiz(ctx context.Context, id string) error {
	s.begin()
	defer s.end()

	deleted, err := s.service.DeleteQuiz(ctx, id)
	if err != nil {
		return s.fail(ctx, MsgRemoveQuiz, err)
	}
	if !deleted {
		return s.fail(ctx, MsgRemoveQuiz, fmt.Errorf("%w: %q", quiz.ErrQuizNotFound, id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i != -1 {
		s.quizzes = slices.Delete(s.quizzes, i, i+1)
	}

	return nil
}

// FetchQuizByID loads a quiz through the service and adds it to the collection,
// replacing a quiz with the same ID in place. A missing quiz returns nil and no error.
func (s *QuizStore) FetchQuizByID(ctx context.Context, id string) (*quiz.Quiz, error) {
	s.begin()
	defer s.end()

	qz, err := s.service.GetQuizByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, MsgFetchQuiz, err)
	}
	if qz == nil {
		return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(qz.Clone())

	return qz, nil
}

// UpdateQuiz merges u onto a quiz through the service and replaces the quiz in the collection.
// A missing quiz returns nil and no error and leaves the collection untouched.
func (s *QuizStore) UpdateQuiz(ctx context.Context, id string, u quiz.Update) (*quiz.Quiz, error) {
	s.begin()
	defer s.end()

	updated, err := s.service.UpdateQuiz(ctx, id, u)
	if err != nil {
		return nil, s.fail(ctx, MsgUpdateQuiz, err)
	}
	if updated == nil {
		return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i != -1 {
		s.quizzes[i] = updated.Clone()
	}

	return updated, nil
}

func (s *QuizStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.errMsg = ""
}

func (s *QuizStore) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
}

// fail records msg as the error message, logs err and returns it wrapped in msg.
func (s *QuizStore) fail(ctx context.Context, msg string, err error) error {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()

	s.logger.ErrorContext(ctx, msg, logging.ErrAttr(err))

	return fmt.Errorf("%s: %w", msg, err)
}

// upsert must be called with mu held.
func (s *QuizStore) upsert(qz *quiz.Quiz) {
	if i := s.indexOf(qz.ID); i != -1 {
		s.quizzes[i] = qz

		return
	}
	s.quizzes = append(s.quizzes, qz)
}

// indexOf must be called with mu held.
func (s *QuizStore) indexOf(id string) int {
	return slices.IndexFunc(s.quizzes, func(qz *quiz.Quiz) bool { return qz.ID == id })
}
