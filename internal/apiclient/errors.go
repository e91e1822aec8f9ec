package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is a request the backend rejected.  Message and Msg carry the
// server's own explanation; the backend is inconsistent about which field
// it fills, so both are kept.
type Error struct {
	StatusCode int
	Message    string
	Msg        string
}

func (e *Error) Error() string {
	if m := e.ServerMessage(); m != "" {
		return fmt.Sprintf("api: %d: %s", e.StatusCode, m)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ServerMessage returns msg, then message, or "".
func (e *Error) ServerMessage() string {
	if s := strings.TrimSpace(e.Msg); s != "" {
		return s
	}
	return strings.TrimSpace(e.Message)
}

// Unauthorized reports a 401/403 answer.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// StatusCode extracts the backend status from err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// UserMessage narrows any failure to a string fit for a toast: the
// server's message when the backend rejected the call, fallback otherwise
// (transport failures, timeouts, decode errors).
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if m := apiErr.ServerMessage(); m != "" {
			return m
		}
	}
	return fallback
}

func decodeError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return e
	}
	var body struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
		e.Msg = body.Msg
	}
	return e
}
