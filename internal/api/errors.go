package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("reconciliation API unavailable")

// Error is a non-2xx response from the API.
type Error struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.Path, e.StatusCode, e.Message)
}

// NotFound reports a 404.
func (e *Error) NotFound() bool { return e.StatusCode == http.StatusNotFound }

func newError(op, method, path string, status int, body []byte) *Error {
	return &Error{
		Op:         op,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    errorMessage(status, body),
	}
}

// errorMessage pulls the server detail out of {"error": ...} or {"message": ...}.
func errorMessage(status int, body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := rawText(env.Error); msg != "" {
			return msg
		}
		if strings.TrimSpace(env.Message) != "" {
			return strings.TrimSpace(env.Message)
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// rawText accepts "error": "..." as well as "error": {"message": "..."}.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

// Detail returns the text to show an operator for err: the server-provided
// detail when there is one, otherwise the error itself.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnavailable) {
		return "The reconciliation API is not responding; try again shortly."
	}
	return err.Error()
}
