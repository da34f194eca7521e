// Package httputil provides utility functions for HTTP servers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalid is returned by DecodeValid when the decoded value has problems.
var ErrInvalid = errors.New("invalid request body")

// Validator is an object that can be validated.
type Validator interface {
	// Valid checks the object and returns any problems, keyed by field name.
	// If len(problems) == 0 then the object is valid.
	Valid(ctx context.Context) (problems map[string]string)
}

// ProblemsResponse is the body of a 400 response.
type ProblemsResponse struct {
	Message  string            `json:"message"`
	Problems map[string]string `json:"problems,omitempty"`
}

// EncodeJSON encodes v to JSON, sets status, and writes it to w.
func EncodeJSON[T any](w http.ResponseWriter, statusCode int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

// DecodeJSON decodes JSON from r.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode json: %w", err)
	}

	return v, nil
}

// DecodeValid decodes JSON from r and validates it.
// Problems are returned together with an error wrapping ErrInvalid.
func DecodeValid[T Validator](r *http.Request) (T, map[string]string, error) {
	v, err := DecodeJSON[T](r)
	if err != nil {
		return v, nil, err
	}
	if problems := v.Valid(r.Context()); len(problems) > 0 {
		return v, problems, fmt.Errorf("%w: %d problems", ErrInvalid, len(problems))
	}

	return v, nil, nil
}

// Problems writes a 400 response with msg and the given problems.
func Problems(w http.ResponseWriter, msg string, problems map[string]string) error {
	return EncodeJSON(w, http.StatusBadRequest, ProblemsResponse{Message: msg, Problems: problems})
}
