// Package cli implements quizctl, a command line client that manages quizzes through a store.QuizStore.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starquake/quizai/internal/config"
	"github.com/starquake/quizai/internal/logging"
	"github.com/starquake/quizai/internal/mock"
	"github.com/starquake/quizai/internal/quiz"
	"github.com/starquake/quizai/internal/remote"
	"github.com/starquake/quizai/internal/store"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	// ErrUsage is returned when the command line cannot be understood.
	ErrUsage = errors.New("usage error")
	// ErrNotFound is returned when a command names a quiz that does not exist.
	ErrNotFound = errors.New("quiz not found")
)

const usage = `usage: quizctl [-backend mock|remote] [-url URL] <command> [args]

commands:
  list                      list all quizzes
  show <id>                 show one quiz
  create -f <file>          create or replace the quiz in a YAML or JSON file
  rename <id> <title>       change the title of a quiz
  update <id> -f <file>     apply the partial quiz in a YAML or JSON file
  delete <id>               delete a quiz
`

// Run executes quizctl with args, not including the program name, and returns the exit code.
func Run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(getenv)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "quizctl: %v\n", err)

		return ExitUsage
	}

	fs := flag.NewFlagSet("quizctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = io.WriteString(stderr, usage) }
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "quiz backend: mock or remote")
	fs.StringVar(&cfg.APIBaseURL, "url", cfg.APIBaseURL, "base URL of the quiz API")
	if err = fs.Parse(args); err != nil {
		return ExitUsage
	}

	logger := logging.NewLoggerWithLevel(stderr, cfg.LogLevel, logging.FormatText)
	svc, err := newService(cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "quizctl: %v\n", err)

		return ExitUsage
	}

	c := &command{
		store:  store.NewQuizStore(svc, logger),
		stdout: stdout,
	}
	err = c.run(ctx, fs.Args())
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		_, _ = fmt.Fprintf(stderr, "quizctl: %v\n\n%s", err, usage)

		return ExitUsage
	default:
		msg := c.store.ErrorMessage()
		if msg == "" {
			msg = err.Error()
		}
		_, _ = fmt.Fprintf(stderr, "quizctl: %s\n", msg)

		return ExitFailure
	}
}

func newService(cfg *config.Config, logger *slog.Logger) (quiz.Service, error) {
	switch cfg.Backend {
	case config.BackendMock:
		svc, err := mock.Open(cfg.MockFixture, cfg.MockLatency, logger)
		if err != nil {
			return nil, fmt.Errorf("error loading mock fixture: %w", err)
		}

		return svc, nil
	case config.BackendRemote:
		return remote.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

type command struct {
	store  *store.QuizStore
	stdout io.Writer
}

func (c *command) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	name, args := args[0], args[1:]
	switch name {
	case "list":
		return c.list(ctx, args)
	case "show":
		return c.show(ctx, args)
	case "create":
		return c.create(ctx, args)
	case "rename":
		return c.rename(ctx, args)
	case "update":
		return c.update(ctx, args)
	case "delete":
		return c.remove(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
}

func (c *command) list(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: list takes no arguments", ErrUsage)
	}
	if err := c.store.FetchQuizzes(ctx); err != nil {
		return err
	}

	return c.print(c.store.Quizzes())
}

func (c *command) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show takes one quiz id", ErrUsage)
	}
	qz, err := c.store.FetchQuizByID(ctx, args[0])
	if err != nil {
		return err
	}
	if qz == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, args[0])
	}

	return c.print(qz)
}

func (c *command) create(ctx context.Context, args []string) error {
	path, rest, err := parseFile("create", args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: create takes only -f", ErrUsage)
	}

	var qz *quiz.Quiz
	if err = readFile(path, &qz); err != nil {
		return err
	}
	if qz == nil {
		return fmt.Errorf("%w: %s holds no quiz", quiz.ErrInvalidQuiz, path)
	}
	if qz.ID == "" {
		qz.ID = quiz.NewID()
	}
	qz.AssignIDs()
	if problems := qz.Valid(ctx); len(problems) > 0 {
		return fmt.Errorf("%w: %v", quiz.ErrInvalidQuiz, problems)
	}

	created, err := c.store.CreateQuiz(ctx, qz)
	if err != nil {
		return err
	}

	return c.print(created)
}

func (c *command) rename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: rename takes a quiz id and a title", ErrUsage)
	}
	title := args[1]

	return c.apply(ctx, args[0], quiz.Update{Title: &title})
}

func (c *command) update(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: update takes a quiz id", ErrUsage)
	}
	id := args[0]
	path, rest, err := parseFile("update", args[1:])
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: update takes a quiz id and -f", ErrUsage)
	}

	var u quiz.Update
	if err = readFile(path, &u); err != nil {
		return err
	}
	u.AssignIDs()

	return c.apply(ctx, id, u)
}

func (c *command) apply(ctx context.Context, id string, u quiz.Update) error {
	if problems := u.Valid(ctx); len(problems) > 0 {
		return fmt.Errorf("%w: %v", quiz.ErrInvalidQuiz, problems)
	}
	updated, err := c.store.UpdateQuiz(ctx, id, u)
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	return c.print(updated)
}

func (c *command) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete takes one quiz id", ErrUsage)
	}
	if err := c.store.RemoveQuiz(ctx, args[0]); err != nil {
		return err
	}

	return c.print(map[string]string{"deleted": args[0]})
}

func (c *command) print(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

// parseFile parses the -f flag of a subcommand and returns its value and the remaining arguments.
func parseFile(name string, args []string) (string, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("f", "", "YAML or JSON file")
	if err := fs.Parse(args); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *path == "" {
		return "", nil, fmt.Errorf("%w: %s needs -f <file>", ErrUsage, name)
	}

	return *path, fs.Args(), nil
}

// readFile decodes the YAML or JSON file at path into v.
func readFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err = yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}

	return nil
}
