package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/starquake/quizai/cmd/server/app"
	"github.com/starquake/quizai/internal/config"
	"github.com/starquake/quizai/internal/dbtest"
	"github.com/starquake/quizai/internal/quiz"
	"github.com/starquake/quizai/internal/testutil"
)

func getenvFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func startApp(t *testing.T, env map[string]string) (string, func() error) {
	t.Helper()

	stdout := testutil.NewTestWriter(t)

	return testutil.StartServer(t, func(ctx context.Context, ln net.Listener) error {
		return app.Run(ctx, getenvFrom(env), stdout, ln)
	})
}

func getQuizzes(t *testing.T, baseURL string) []*quiz.Quiz {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/api/quiz", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to get quizzes: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("failed to close response body: %v", closeErr)
		}
	}()

	if got, want := resp.StatusCode, http.StatusOK; got != want {
		t.Fatalf("got status %d, want %d", got, want)
	}
	var quizzes []*quiz.Quiz
	if err = json.NewDecoder(resp.Body).Decode(&quizzes); err != nil {
		t.Fatalf("failed to decode quizzes: %v", err)
	}

	return quizzes
}

func TestRun_MockStorage(t *testing.T) {
	t.Parallel()

	baseURL, stop := startApp(t, map[string]string{
		"QUIZ_STORAGE": config.StorageMock,
		"MOCK_LATENCY": "false",
		"LOG_LEVEL":    "debug",
	})

	quizzes := getQuizzes(t, baseURL)
	if len(quizzes) == 0 {
		t.Error("got no quizzes from the bundled fixture")
	}

	if err := stop(); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
}

func TestRun_SQLiteStorage(t *testing.T) {
	t.Parallel()

	baseURL, stop := startApp(t, map[string]string{
		"APP_ENV": config.AppEnvironmentProduction,
		"DB_URI":  dbtest.SetupTestDB(t),
	})

	if got := getQuizzes(t, baseURL); len(got) != 0 {
		t.Errorf("got %d quizzes from a fresh database, want 0", len(got))
	}

	if err := stop(); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
}

func TestRun_ConfigError(t *testing.T) {
	t.Parallel()

	var stdout strings.Builder
	err := app.Run(t.Context(), getenvFrom(map[string]string{"QUIZ_STORAGE": "postgres"}), &stdout, nil)
	if !errors.Is(err, config.ErrUnknownStorage) {
		t.Fatalf("got error %v, want %v", err, config.ErrUnknownStorage)
	}
	if got, want := stdout.String(), "error parsing config"; !strings.Contains(got, want) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}

func TestRun_StorageError(t *testing.T) {
	t.Parallel()

	var stdout strings.Builder
	err := app.Run(t.Context(), getenvFrom(map[string]string{
		"QUIZ_STORAGE": config.StorageMock,
		"MOCK_FIXTURE": "does-not-exist.json",
	}), &stdout, nil)
	if err == nil {
		t.Fatal("expected error loading a missing fixture")
	}
	if got, want := stdout.String(), "error opening storage"; !strings.Contains(got, want) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}
