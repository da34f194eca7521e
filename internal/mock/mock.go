// Package mock provides a quiz.Service that keeps quizzes in process memory and delays every call to emulate
// network latency. It is meant for developing callers without a running quiz API.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starquake/quizai/internal/quiz"
)

// Latency holds the artificial delay applied before each operation resolves.
type Latency struct {
	List   time.Duration
	Get    time.Duration
	Create time.Duration
	Update time.Duration
	Delete time.Duration
}

// DefaultLatency returns the delays used for UI development.
func DefaultLatency() Latency {
	return Latency{
		List:   1000 * time.Millisecond,
		Get:    500 * time.Millisecond,
		Create: 800 * time.Millisecond,
		Update: 800 * time.Millisecond,
		Delete: 500 * time.Millisecond,
	}
}

// Service is a quiz.Service backed by an ordered in-memory collection.
// The collection is seeded from the fixture on first use and is owned by the Service.
type Service struct {
	fixture []*quiz.Quiz
	latency Latency
	logger  *slog.Logger

	seed    sync.Once
	mu      sync.Mutex
	quizzes []*quiz.Quiz
}

var _ quiz.Service = (*Service)(nil)

// New creates a Service seeded from a copy of fixture.
func New(fixture []*quiz.Quiz, latency Latency, logger *slog.Logger) *Service {
	return &Service{
		fixture: quiz.CloneAll(fixture),
		latency: latency,
		logger:  logger,
	}
}

// ListQuizzes returns a copy of every quiz in the collection.
func (s *Service) ListQuizzes(ctx context.Context) ([]*quiz.Quiz, error) {
	if err := s.wait(ctx, s.latency.List); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return quiz.CloneAll(s.quizzes), nil
}

// CreateQuiz appends a copy of qz, or replaces the quiz with the same ID in place.
func (s *Service) CreateQuiz(ctx context.Context, qz *quiz.Quiz) (*quiz.Quiz, error) {
	if qz == nil {
		return nil, fmt.Errorf("%w: nil quiz", quiz.ErrCreate)
	}
	if err := s.wait(ctx, s.latency.Create); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsert(qz.Clone())

	return qz.Clone(), nil
}

// GetQuizByID returns a copy of the quiz with the given ID, or nil.
func (s *Service) GetQuizByID(ctx context.Context, id string) (*quiz.Quiz, error) {
	if err := s.wait(ctx, s.latency.Get); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
	}

	return s.quizzes[i].Clone(), nil
}

// UpdateQuiz merges u onto the quiz with the given ID and returns a copy of the result, or nil.
func (s *Service) UpdateQuiz(ctx context.Context, id string, u quiz.Update) (*quiz.Quiz, error) {
	if err := s.wait(ctx, s.latency.Update); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
	}
	s.quizzes[i] = s.quizzes[i].Apply(u)

	return s.quizzes[i].Clone(), nil
}

// DeleteQuiz removes the quiz with the given ID and reports whether it was present.
func (s *Service) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	if err := s.wait(ctx, s.latency.Delete); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return false, nil
	}
	s.quizzes = slices.Delete(s.quizzes, i, i+1)

	return true, nil
}

// wait seeds the collection if needed and then sleeps for d or until ctx is done.
func (s *Service) wait(ctx context.Context, d time.Duration) error {
	s.seed.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, qz := range s.fixture {
			if qz != nil {
				s.upsert(qz)
			}
		}
		s.logger.DebugContext(ctx, "mock quiz collection seeded", slog.Int("quizzes", len(s.quizzes)))
	})

	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("mock call interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// upsert must be called with mu held.
func (s *Service) upsert(qz *quiz.Quiz) {
	if i := s.indexOf(qz.ID); i != -1 {
		s.quizzes[i] = qz

		return
	}
	s.quizzes = append(s.quizzes, qz)
}

// indexOf must be called with mu held.
func (s *Service) indexOf(id string) int {
	return slices.IndexFunc(s.quizzes, func(qz *quiz.Quiz) bool { return qz.ID == id })
}
