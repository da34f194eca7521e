// Package remote provides a quiz.Service that talks to the quiz API over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/starquake/quizai/internal/logging"
	"github.com/starquake/quizai/internal/quiz"
)

var (
	// ErrUnexpectedStatus is returned when the API answers with a status the client does not handle.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrEmptyResponse is returned when a successful response carries no quiz.
	ErrEmptyResponse = errors.New("response holds no quiz")
)

const quizPath = "/api/quiz"

// Client is a quiz.Service backed by the quiz API. The API is authoritative; the client keeps no state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ quiz.Service = (*Client)(nil)

// NewClient creates a Client for the API at baseURL, such as "http://127.0.0.1:5000".
// A nil httpClient selects http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListQuizzes fetches every quiz with GET /api/quiz.
func (c *Client) ListQuizzes(ctx context.Context) ([]*quiz.Quiz, error) {
	var quizzes []*quiz.Quiz
	status, err := c.do(ctx, http.MethodGet, quizPath, nil, &quizzes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrFetch, err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("%w: %w: %d", quiz.ErrFetch, ErrUnexpectedStatus, status)
	}
	if quizzes == nil {
		quizzes = make([]*quiz.Quiz, 0)
	}

	return quizzes, nil
}

// CreateQuiz posts qz to /api/quiz and returns the quiz the API stored.
func (c *Client) CreateQuiz(ctx context.Context, qz *quiz.Quiz) (*quiz.Quiz, error) {
	if qz == nil {
		return nil, fmt.Errorf("%w: nil quiz", quiz.ErrCreate)
	}
	var created *quiz.Quiz
	status, err := c.do(ctx, http.MethodPost, quizPath, qz, &created)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrCreate, err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("%w: %w: %d", quiz.ErrCreate, ErrUnexpectedStatus, status)
	}
	if created == nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrCreate, ErrEmptyResponse)
	}
	if created.ID != qz.ID {
		return nil, fmt.Errorf("%w: API stored quiz %q, sent %q", quiz.ErrCreate, created.ID, qz.ID)
	}

	return created, nil
}

// GetQuizByID fetches a quiz with GET /api/quiz/{id}. It returns nil if the API answers 404.
func (c *Client) GetQuizByID(ctx context.Context, id string) (*quiz.Quiz, error) {
	var qz *quiz.Quiz
	status, err := c.do(ctx, http.MethodGet, quizURLPath(id), nil, &qz)
	if err != nil {
		return nil, fmt.Errorf("error getting quiz %q: %w", id, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
	case !isSuccess(status):
		return nil, fmt.Errorf("error getting quiz %q: %w: %d", id, ErrUnexpectedStatus, status)
	case qz == nil:
		return nil, fmt.Errorf("error getting quiz %q: %w", id, ErrEmptyResponse)
	}

	return qz, nil
}

// UpdateQuiz sends u with PATCH /api/quiz/{id}. It returns nil if the API answers 404.
func (c *Client) UpdateQuiz(ctx context.Context, id string, u quiz.Update) (*quiz.Quiz, error) {
	var qz *quiz.Quiz
	status, err := c.do(ctx, http.MethodPatch, quizURLPath(id), u, &qz)
	if err != nil {
		return nil, fmt.Errorf("error updating quiz %q: %w", id, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, nil //nolint:nilnil // A missing quiz is a valid result, not an error.
	case !isSuccess(status):
		return nil, fmt.Errorf("error updating quiz %q: %w: %d", id, ErrUnexpectedStatus, status)
	case qz == nil:
		return nil, fmt.Errorf("error updating quiz %q: %w", id, ErrEmptyResponse)
	}

	return qz, nil
}

// DeleteQuiz deletes a quiz with DELETE /api/quiz/{id}. It returns false if the API answers 404.
func (c *Client) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	status, err := c.do(ctx, http.MethodDelete, quizURLPath(id), nil, nil)
	if err != nil {
		return false, fmt.Errorf("error deleting quiz %q: %w", id, err)
	}
	switch {
	case status == http.StatusNotFound:
		return false, nil
	case !isSuccess(status):
		return false, fmt.Errorf("error deleting quiz %q: %w: %d", id, ErrUnexpectedStatus, status)
	}

	return true, nil
}

// do sends one request with body encoded as JSON and decodes a successful response into out.
// It returns the status code; non-2xx responses are not decoded.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode json: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.ErrorContext(ctx, "error closing response body", logging.ErrAttr(closeErr))
		}
	}()

	c.logger.DebugContext(ctx, "quiz api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	if !isSuccess(resp.StatusCode) || out == nil || resp.StatusCode == http.StatusNoContent {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)

		return resp.StatusCode, nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode json: %w", err)
	}

	return resp.StatusCode, nil
}

func quizURLPath(id string) string {
	return quizPath + "/" + url.PathEscape(id)
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
