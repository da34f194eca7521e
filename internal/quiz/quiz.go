// Package quiz provides the quiz entities and the data-access contract used to list, create, read, update and
// delete them. Implementations live in this package (SQLite) and in the mock and remote packages.
package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
)

var (
	// ErrFetch is returned when the quiz list cannot be retrieved from the backing store.
	ErrFetch = errors.New("error fetching quizzes")
	// ErrCreate is returned when a quiz cannot be created in the backing store.
	ErrCreate = errors.New("error creating quiz")
	// ErrQuizNotFound is returned when a quiz that must exist is not found.
	// The data-access operations never return it; absence is reported as a nil quiz or false.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when a quiz fails validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
)

// Quiz represents a quiz. ID is the only key used for lookup, update and delete.
type Quiz struct {
	ID        string      `json:"id"      yaml:"id"`
	Title     string      `json:"titolo"  yaml:"titolo"`
	Questions []*Question `json:"domande" yaml:"domande"`
}

// Question represents a question in a quiz. The order of Options is the display order.
type Question struct {
	ID      string    `json:"id"      yaml:"id"`
	Text    string    `json:"testo"   yaml:"testo"`
	Options []*Option `json:"opzioni" yaml:"opzioni"`
}

// Option represents an answer choice for a question.
type Option struct {
	ID      string `json:"id"       yaml:"id"`
	Text    string `json:"testo"    yaml:"testo"`
	Correct bool   `json:"corretta" yaml:"corretta"`
}

// Update is a partial set of quiz fields. A nil field keeps the existing value.
// A non-nil Questions slice, even an empty one, replaces the whole sequence; in JSON, null or a missing
// "domande" keeps it and [] clears it.
type Update struct {
	Title     *string     `json:"titolo,omitempty"  yaml:"titolo,omitempty"`
	Questions []*Question `json:"domande"           yaml:"domande"`
}

// Service is the data-access contract for quizzes.
// Every quiz returned is a snapshot copy that shares nothing with the implementation's state.
type Service interface {
	// ListQuizzes returns all quizzes in order. It returns an error wrapping ErrFetch when the backing store fails.
	ListQuizzes(ctx context.Context) ([]*Quiz, error)
	// CreateQuiz stores qz, replacing an existing quiz with the same ID, and returns the stored quiz.
	// It returns an error wrapping ErrCreate when the backing store fails.
	CreateQuiz(ctx context.Context, qz *Quiz) (*Quiz, error)
	// GetQuizByID returns the quiz with the given ID, or nil if there is none.
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
	// UpdateQuiz merges u onto the quiz with the given ID and returns the result, or nil if there is none.
	UpdateQuiz(ctx context.Context, id string, u Update) (*Quiz, error)
	// DeleteQuiz removes the quiz with the given ID. It reports whether a quiz was removed.
	DeleteQuiz(ctx context.Context, id string) (bool, error)
}

// NewID returns a new unique ID for a quiz, question or option.
func NewID() string {
	return xid.New().String()
}

// Clone returns a deep copy of the quiz.
func (q *Quiz) Clone() *Quiz {
	if q == nil {
		return nil
	}
	c := &Quiz{ID: q.ID, Title: q.Title}
	c.Questions = cloneQuestions(q.Questions)

	return c
}

// Apply returns a copy of the quiz with the fields of u merged onto it.
func (q *Quiz) Apply(u Update) *Quiz {
	c := q.Clone()
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Questions != nil {
		c.Questions = cloneQuestions(u.Questions)
	}

	return c
}

// Clone returns a deep copy of the question.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := &Question{ID: q.ID, Text: q.Text}
	if q.Options != nil {
		c.Options = make([]*Option, 0, len(q.Options))
		for _, o := range q.Options {
			if o == nil {
				continue
			}
			oc := *o
			c.Options = append(c.Options, &oc)
		}
	}

	return c
}

// Valid checks if the quiz is valid.
func (q *Quiz) Valid(_ context.Context) map[string]string {
	problems := make(map[string]string)
	if q == nil {
		problems["quiz"] = "Quiz is required"

		return problems
	}
	if q.ID == "" {
		problems["id"] = "ID is required"
	}
	if q.Title == "" {
		problems["titolo"] = "Title is required"
	}
	addQuestionProblems(problems, q.Questions)

	return problems
}

// Valid checks if the update can be applied. A title, when present, must not be empty.
func (u Update) Valid(_ context.Context) map[string]string {
	problems := make(map[string]string)
	if u.Title != nil && *u.Title == "" {
		problems["titolo"] = "Title must not be empty"
	}
	addQuestionProblems(problems, u.Questions)

	return problems
}

func addQuestionProblems(problems map[string]string, questions []*Question) {
	for i, qs := range questions {
		if qs == nil {
			problems[fmt.Sprintf("domande[%d]", i)] = "Question is required"

			continue
		}
		if qs.Text == "" {
			problems[fmt.Sprintf("domande[%d].testo", i)] = "Text is required"
		}
		for j, o := range qs.Options {
			if o == nil || o.Text == "" {
				problems[fmt.Sprintf("domande[%d].opzioni[%d].testo", i, j)] = "Text is required"
			}
		}
	}
}

// AssignIDs gives every question and option without an ID a new one.
// The quiz ID is left alone; a quiz without one is invalid.
func (q *Quiz) AssignIDs() {
	assignQuestionIDs(q.Questions)
}

// AssignIDs gives every question and option of the update without an ID a new one.
func (u Update) AssignIDs() {
	assignQuestionIDs(u.Questions)
}

func assignQuestionIDs(questions []*Question) {
	for _, qs := range questions {
		if qs == nil {
			continue
		}
		if qs.ID == "" {
			qs.ID = NewID()
		}
		for _, o := range qs.Options {
			if o != nil && o.ID == "" {
				o.ID = NewID()
			}
		}
	}
}

// CloneAll returns deep copies of the quizzes.
func CloneAll(quizzes []*Quiz) []*Quiz {
	c := make([]*Quiz, 0, len(quizzes))
	for _, qz := range quizzes {
		c = append(c, qz.Clone())
	}

	return c
}

func cloneQuestions(questions []*Question) []*Question {
	if questions == nil {
		return nil
	}
	c := make([]*Question, 0, len(questions))
	for _, qs := range questions {
		if qs == nil {
			continue
		}
		c = append(c, qs.Clone())
	}

	return c
}
