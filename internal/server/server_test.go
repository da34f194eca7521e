package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starquake/quizai/internal/mock"
	"github.com/starquake/quizai/internal/quiz"
	"github.com/starquake/quizai/internal/server"
)

func newTestServer(t *testing.T, production bool) http.Handler {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	fixture := []*quiz.Quiz{
		{
			ID:    "1",
			Title: "Geo",
			Questions: []*quiz.Question{
				{ID: "1-1", Text: "Fiume più lungo?", Options: []*quiz.Option{{ID: "1-1-1", Text: "Po", Correct: true}}},
			},
		},
	}
	healthz := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	return server.NewServer(logger, production, mock.New(fixture, mock.Latency{}, logger), healthz)
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "list quizzes", method: http.MethodGet, path: "/api/quiz", wantStatus: http.StatusOK},
		{name: "get quiz", method: http.MethodGet, path: "/api/quiz/1", wantStatus: http.StatusOK},
		{name: "healthz", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, path: "/api/quiz", wantStatus: http.StatusNoContent},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequestWithContext(t.Context(), tt.method, tt.path, nil))

			if got, want := rec.Code, tt.wantStatus; got != want {
				t.Errorf("got status %d, want %d", got, want)
			}
			if got, want := rec.Header().Get("Access-Control-Allow-Origin"), "*"; got != want {
				t.Errorf("got Access-Control-Allow-Origin %q, want %q", got, want)
			}
		})
	}
}

func TestNewServer_Production(t *testing.T) {
	t.Parallel()

	get := func(t *testing.T, production bool) string {
		t.Helper()

		rec := httptest.NewRecorder()
		newTestServer(t, production).ServeHTTP(
			rec, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/api/quiz/1", nil))
		if got, want := rec.Code, http.StatusOK; got != want {
			t.Fatalf("got status %d, want %d", got, want)
		}
		if got, want := rec.Header().Get("Content-Type"), "application/json"; got != want {
			t.Errorf("got Content-Type %q, want %q", got, want)
		}

		return rec.Body.String()
	}

	dev := get(t, false)
	prod := get(t, true)

	if !strings.HasSuffix(dev, "\n") {
		t.Errorf("development body %q does not end in a newline", dev)
	}
	if strings.ContainsAny(prod, "\n") {
		t.Errorf("production body %q is not minified", prod)
	}

	var d, p any
	if err := json.Unmarshal([]byte(dev), &d); err != nil {
		t.Fatalf("failed to decode development body: %v", err)
	}
	if err := json.Unmarshal([]byte(prod), &p); err != nil {
		t.Fatalf("failed to decode production body: %v", err)
	}
	if diff := cmp.Diff(d, p); diff != "" {
		t.Errorf("minified body differs (-development +production):\n%s", diff)
	}
}
