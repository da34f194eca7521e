package mock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starquake/quizai/internal/quiz"
)

//go:embed fixture/quizzes.json
var fixtureJSON []byte

// DefaultFixture returns the quizzes bundled with the binary.
func DefaultFixture() ([]*quiz.Quiz, error) {
	return LoadFixture(bytes.NewReader(fixtureJSON))
}

// LoadFixture decodes a JSON array of quizzes.
func LoadFixture(r io.Reader) ([]*quiz.Quiz, error) {
	var quizzes []*quiz.Quiz
	if err := json.NewDecoder(r).Decode(&quizzes); err != nil {
		return nil, fmt.Errorf("error decoding fixture: %w", err)
	}

	return quizzes, nil
}

// LoadFixtureFile decodes a JSON array of quizzes from the file at path.
// An empty path selects the bundled fixture.
func LoadFixtureFile(path string) ([]*quiz.Quiz, error) {
	if path == "" {
		return DefaultFixture()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadFixture(f)
}

// Open creates a Service seeded from the fixture file at path, or the bundled fixture if path is empty.
// Without simulateLatency every call resolves immediately.
func Open(path string, simulateLatency bool, logger *slog.Logger) (*Service, error) {
	fixture, err := LoadFixtureFile(path)
	if err != nil {
		return nil, err
	}

	var latency Latency
	if simulateLatency {
		latency = DefaultLatency()
	}

	return New(fixture, latency, logger), nil
}
