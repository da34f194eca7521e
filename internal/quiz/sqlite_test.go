package quiz_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/starquake/quizai/internal/dbtest"
	"github.com/starquake/quizai/internal/logging"
	"github.com/starquake/quizai/internal/quiz"
)

func newSQLiteStore(t *testing.T) *quiz.SQLiteStore {
	t.Helper()

	return quiz.NewSQLiteStore(dbtest.Open(t), logging.NewLogger(io.Discard))
}

func mustCreate(t *testing.T, s *quiz.SQLiteStore, qz *quiz.Quiz) {
	t.Helper()

	if _, err := s.CreateQuiz(t.Context(), qz); err != nil {
		t.Fatalf("error creating quiz %q: %v", qz.ID, err)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	t.Parallel()

	if err := newSQLiteStore(t).Ping(t.Context()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSQLiteStore_ListQuizzes(t *testing.T) {
	t.Parallel()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		got, err := newSQLiteStore(t).ListQuizzes(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("got %v, want empty list", got)
		}
	})

	t.Run("insertion order", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		want := []*quiz.Quiz{
			{ID: "b", Title: "Secondo per nome"},
			newTestQuiz(),
			{ID: "a", Title: "Primo per nome"},
		}
		for _, qz := range want {
			mustCreate(t, s, qz)
		}

		got, err := s.ListQuizzes(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ListQuizzes() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("context canceled", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := s.ListQuizzes(ctx)
		if !errors.Is(err, quiz.ErrFetch) {
			t.Errorf("got error %v, want %v", err, quiz.ErrFetch)
		}
	})
}

func TestSQLiteStore_CreateQuiz(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		stored, err := s.CreateQuiz(t.Context(), newTestQuiz())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(newTestQuiz(), stored); diff != "" {
			t.Errorf("CreateQuiz() mismatch (-want +got):\n%s", diff)
		}

		got, err := s.GetQuizByID(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(newTestQuiz(), got); diff != "" {
			t.Errorf("GetQuizByID() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("existing id replaces in place", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		mustCreate(t, s, &quiz.Quiz{ID: "1", Title: "Geo"})
		mustCreate(t, s, newTestQuiz())

		replacement := &quiz.Quiz{
			ID:        "2",
			Title:     "Capitali",
			Questions: []*quiz.Question{{ID: "n", Text: "Capitale d'Italia?", Options: []*quiz.Option{}}},
		}
		mustCreate(t, s, replacement)

		got, err := s.ListQuizzes(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []*quiz.Quiz{{ID: "1", Title: "Geo"}, replacement}
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ListQuizzes() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil quiz", func(t *testing.T) {
		t.Parallel()

		_, err := newSQLiteStore(t).CreateQuiz(t.Context(), nil)
		if !errors.Is(err, quiz.ErrCreate) {
			t.Errorf("got error %v, want %v", err, quiz.ErrCreate)
		}
	})

	t.Run("failed create leaves nothing behind", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := s.CreateQuiz(ctx, newTestQuiz())
		if !errors.Is(err, quiz.ErrCreate) {
			t.Fatalf("got error %v, want %v", err, quiz.ErrCreate)
		}

		got, err := s.GetQuizByID(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}

func TestSQLiteStore_GetQuizByID(t *testing.T) {
	t.Parallel()

	t.Run("missing quiz", func(t *testing.T) {
		t.Parallel()

		got, err := newSQLiteStore(t).GetQuizByID(t.Context(), "404")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})

	t.Run("context canceled", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := s.GetQuizByID(ctx, "1")
		if err == nil {
			t.Fatal("got nil, want error")
		}
		if got, want := err.Error(), "context canceled"; !strings.Contains(got, want) {
			t.Errorf("err.Error() = %q, should contain %q", got, want)
		}
	})
}

func TestSQLiteStore_UpdateQuiz(t *testing.T) {
	t.Parallel()

	t.Run("title only", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		mustCreate(t, s, newTestQuiz())

		title := "X"
		got, err := s.UpdateQuiz(t.Context(), "2", quiz.Update{Title: &title})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := newTestQuiz()
		want.Title = "X"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("UpdateQuiz() mismatch (-want +got):\n%s", diff)
		}

		stored, err := s.GetQuizByID(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(want, stored); diff != "" {
			t.Errorf("stored quiz mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("questions replaced", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		mustCreate(t, s, newTestQuiz())

		questions := []*quiz.Question{
			{ID: "n", Text: "Capitale del Portogallo?", Options: []*quiz.Option{{ID: "n-1", Text: "Lisbona", Correct: true}}},
		}
		if _, err := s.UpdateQuiz(t.Context(), "2", quiz.Update{Questions: questions}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := s.GetQuizByID(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := &quiz.Quiz{ID: "2", Title: "Capitali europee", Questions: questions}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("stored quiz mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("questions cleared", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		mustCreate(t, s, newTestQuiz())

		if _, err := s.UpdateQuiz(t.Context(), "2", quiz.Update{Questions: []*quiz.Question{}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := s.GetQuizByID(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Questions) != 0 {
			t.Errorf("got %d questions, want 0", len(got.Questions))
		}
	})

	t.Run("missing quiz", func(t *testing.T) {
		t.Parallel()

		s := newSQLiteStore(t)
		title := "X"
		got, err := s.UpdateQuiz(t.Context(), "404", quiz.Update{Title: &title})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}

func TestSQLiteStore_DeleteQuiz(t *testing.T) {
	t.Parallel()

	t.Run("existing quiz", func(t *testing.T) {
		t.Parallel()

		db := dbtest.Open(t)
		s := quiz.NewSQLiteStore(db, logging.NewLogger(io.Discard))
		mustCreate(t, s, newTestQuiz())

		deleted, err := s.DeleteQuiz(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !deleted {
			t.Error("got false, want true")
		}

		got, err := s.GetQuizByID(t.Context(), "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}

		for _, table := range []string{"questions", "options"} {
			var n int
			if err := db.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
				t.Fatalf("error counting %s: %v", table, err)
			}
			if n != 0 {
				t.Errorf("got %d rows in %s, want 0", n, table)
			}
		}
	})

	t.Run("missing quiz", func(t *testing.T) {
		t.Parallel()

		deleted, err := newSQLiteStore(t).DeleteQuiz(t.Context(), "404")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deleted {
			t.Error("got true, want false")
		}
	})
}

func TestSQLiteStore_OrphanOption(t *testing.T) {
	t.Parallel()

	db := dbtest.OpenUnmigrated(t)
	for _, stmt := range []string{
		`CREATE TABLE quizzes (id TEXT PRIMARY KEY, title TEXT NOT NULL)`,
		`CREATE TABLE questions (quiz_id TEXT, position INTEGER, id TEXT, text TEXT)`,
		`CREATE TABLE options (quiz_id TEXT, question_position INTEGER, position INTEGER, id TEXT, text TEXT, is_correct INTEGER)`,
		`INSERT INTO quizzes VALUES ('1', 'Geo')`,
		`INSERT INTO questions VALUES ('1', 0, 'q', 'Domanda?')`,
		`INSERT INTO options VALUES ('1', 7, 0, 'orphan', 'Persa', 0)`,
	} {
		if _, err := db.ExecContext(t.Context(), stmt); err != nil {
			t.Fatalf("error executing %q: %v", stmt, err)
		}
	}

	var buf strings.Builder
	s := quiz.NewSQLiteStore(db, logging.NewLogger(&buf))

	got, err := s.GetQuizByID(t.Context(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &quiz.Quiz{ID: "1", Title: "Geo", Questions: []*quiz.Question{{ID: "q", Text: "Domanda?"}}}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("GetQuizByID() mismatch (-want +got):\n%s", diff)
	}
	if got, want := buf.String(), "orphan option"; !strings.Contains(got, want) {
		t.Errorf("log %q does not contain %q", got, want)
	}
}
