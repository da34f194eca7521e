package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starquake/quizai/internal/database"
	"github.com/starquake/quizai/internal/logging"
)

const (
	listQuizzesSQL       = `SELECT id, title FROM quizzes ORDER BY rowid`
	getQuizSQL           = `SELECT id, title FROM quizzes WHERE id = ?`
	upsertQuizSQL        = `INSERT INTO quizzes (id, title) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET title = excluded.title`
	updateQuizTitleSQL   = `UPDATE quizzes SET title = ? WHERE id = ?`
	deleteQuizSQL        = `DELETE FROM quizzes WHERE id = ?`
	listQuestionsSQL     = `SELECT position, id, text FROM questions WHERE quiz_id = ? ORDER BY position`
	insertQuestionSQL    = `INSERT INTO questions (quiz_id, position, id, text) VALUES (?, ?, ?, ?)`
	deleteQuestionsSQL   = `DELETE FROM questions WHERE quiz_id = ?`
	listOptionsSQL       = `SELECT question_position, id, text, is_correct FROM options WHERE quiz_id = ? ORDER BY question_position, position`
	insertOptionSQL      = `INSERT INTO options (quiz_id, question_position, position, id, text, is_correct) VALUES (?, ?, ?, ?, ?, ?)`
	deleteQuizOptionsSQL = `DELETE FROM options WHERE quiz_id = ?`
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore is a Service that persists quizzes in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// Ping checks the connection to the database, ensuring it's reachable and responsive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// ListQuizzes returns all quizzes including their questions and options, in insertion order.
func (s *SQLiteStore) ListQuizzes(ctx context.Context) ([]*Quiz, error) {
	quizzes, err := s.listQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	return quizzes, nil
}

// CreateQuiz stores a quiz and its questions in a transaction. An existing quiz with the same ID is replaced
// and keeps its position in the list. The quiz as stored is returned.
func (s *SQLiteStore) CreateQuiz(ctx context.Context, qz *Quiz) (*Quiz, error) {
	if qz == nil {
		return nil, fmt.Errorf("%w: nil quiz", ErrCreate)
	}
	qz = qz.Clone()

	var stored *Quiz
	err := database.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertQuizSQL, qz.ID, qz.Title); err != nil {
			return fmt.Errorf("error upserting quiz: %w", err)
		}
		if err := s.replaceQuestions(ctx, tx, qz.ID, qz.Questions); err != nil {
			return err
		}

		var err error
		stored, err = s.getQuiz(ctx, tx, qz.ID)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return stored, nil
}

// GetQuizByID returns a quiz including its questions and options, or nil if there is no quiz with that ID.
func (s *SQLiteStore) GetQuizByID(ctx context.Context, id string) (*Quiz, error) {
	qz, err := s.getQuiz(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("error getting quiz %q: %w", id, err)
	}

	return qz, nil
}

// UpdateQuiz merges u onto the stored quiz in a transaction. It returns nil if there is no quiz with that ID.
func (s *SQLiteStore) UpdateQuiz(ctx context.Context, id string, u Update) (*Quiz, error) {
	var updated *Quiz
	err := database.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := s.getQuiz(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		merged := existing.Apply(u)
		if u.Title != nil {
			if _, err = tx.ExecContext(ctx, updateQuizTitleSQL, merged.Title, id); err != nil {
				return fmt.Errorf("error updating quiz: %w", err)
			}
		}
		if u.Questions != nil {
			if err = s.replaceQuestions(ctx, tx, id, merged.Questions); err != nil {
				return err
			}
		}
		updated = merged

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error updating quiz %q: %w", id, err)
	}

	return updated, nil
}

// DeleteQuiz deletes a quiz with its questions and options. It reports whether the quiz existed.
func (s *SQLiteStore) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := database.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := deleteQuestions(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, deleteQuizSQL, id)
		if err != nil {
			return fmt.Errorf("error deleting quiz: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error getting rows affected: %w", err)
		}
		deleted = n > 0

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("error deleting quiz %q: %w", id, err)
	}

	return deleted, nil
}

func (s *SQLiteStore) listQuizzes(ctx context.Context) ([]*Quiz, error) {
	rows, err := s.db.QueryContext(ctx, listQuizzesSQL)
	if err != nil {
		return nil, fmt.Errorf("error querying quizzes: %w", err)
	}
	defer s.closeRows(ctx, rows, "quizRows")

	quizzes := make([]*Quiz, 0)
	for rows.Next() {
		qz := &Quiz{}
		if err = rows.Scan(&qz.ID, &qz.Title); err != nil {
			return nil, fmt.Errorf("error scanning quizRow: %w", err)
		}
		quizzes = append(quizzes, qz)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizRows: %w", err)
	}
	// Release the connection before loading questions; the pool may hold a single connection.
	s.closeRows(ctx, rows, "quizRows")

	for _, qz := range quizzes {
		if qz.Questions, err = s.listQuestions(ctx, s.db, qz.ID); err != nil {
			return nil, fmt.Errorf("error getting questions for quiz %q: %w", qz.ID, err)
		}
	}

	return quizzes, nil
}

func (s *SQLiteStore) getQuiz(ctx context.Context, q querier, id string) (*Quiz, error) {
	qz := &Quiz{}
	err := q.QueryRowContext(ctx, getQuizSQL, id).Scan(&qz.ID, &qz.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
		}

		return nil, fmt.Errorf("error scanning quizRow: %w", err)
	}

	if qz.Questions, err = s.listQuestions(ctx, q, id); err != nil {
		return nil, fmt.Errorf("error getting questions for quiz %q: %w", id, err)
	}

	return qz, nil
}

// listQuestions loads the questions of a quiz and attaches their options.
func (s *SQLiteStore) listQuestions(ctx context.Context, q querier, quizID string) ([]*Question, error) {
	questionRows, err := q.QueryContext(ctx, listQuestionsSQL, quizID)
	if err != nil {
		return nil, fmt.Errorf("error querying questions: %w", err)
	}
	defer s.closeRows(ctx, questionRows, "questionRows")

	questions := make([]*Question, 0)
	byPosition := make(map[int]*Question)
	for questionRows.Next() {
		var position int
		qs := &Question{}
		if err = questionRows.Scan(&position, &qs.ID, &qs.Text); err != nil {
			return nil, fmt.Errorf("error scanning questionRow: %w", err)
		}
		qs.Options = make([]*Option, 0)
		byPosition[position] = qs
		questions = append(questions, qs)
	}
	if err = questionRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questionRows: %w", err)
	}
	s.closeRows(ctx, questionRows, "questionRows")

	if len(questions) == 0 {
		return questions, nil
	}

	optionRows, err := q.QueryContext(ctx, listOptionsSQL, quizID)
	if err != nil {
		return nil, fmt.Errorf("error querying options: %w", err)
	}
	defer s.closeRows(ctx, optionRows, "optionRows")

	for optionRows.Next() {
		var questionPosition int
		o := &Option{}
		if err = optionRows.Scan(&questionPosition, &o.ID, &o.Text, &o.Correct); err != nil {
			return nil, fmt.Errorf("error scanning optionRow: %w", err)
		}
		qs, ok := byPosition[questionPosition]
		if !ok {
			s.logger.WarnContext(ctx, "orphan option", slog.String("quizID", quizID), slog.String("optionID", o.ID))

			continue
		}
		qs.Options = append(qs.Options, o)
	}
	if err = optionRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating optionRows: %w", err)
	}

	return questions, nil
}

// replaceQuestions deletes the questions and options of a quiz and inserts the given ones in order.
func (*SQLiteStore) replaceQuestions(ctx context.Context, tx *sql.Tx, quizID string, questions []*Question) error {
	if err := deleteQuestions(ctx, tx, quizID); err != nil {
		return err
	}

	for i, qs := range questions {
		if _, err := tx.ExecContext(ctx, insertQuestionSQL, quizID, i, qs.ID, qs.Text); err != nil {
			return fmt.Errorf("error creating question: %w", err)
		}
		for j, o := range qs.Options {
			if _, err := tx.ExecContext(ctx, insertOptionSQL, quizID, i, j, o.ID, o.Text, o.Correct); err != nil {
				return fmt.Errorf("error creating option: %w", err)
			}
		}
	}

	return nil
}

func deleteQuestions(ctx context.Context, tx *sql.Tx, quizID string) error {
	if _, err := tx.ExecContext(ctx, deleteQuizOptionsSQL, quizID); err != nil {
		return fmt.Errorf("error deleting options: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuestionsSQL, quizID); err != nil {
		return fmt.Errorf("error deleting questions: %w", err)
	}

	return nil
}

// closeRows closes rows and logs a failure. Closing twice is a no-op.
func (s *SQLiteStore) closeRows(ctx context.Context, rows *sql.Rows, name string) {
	if err := rows.Close(); err != nil {
		s.logger.ErrorContext(ctx, "error closing "+name, logging.ErrAttr(err))
	}
}
