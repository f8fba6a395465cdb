package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Sentinel errors matchable with errors.Is against any *Error.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx upstream response with its parsed message body.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// Is maps well-known status codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// statusError builds an *Error from a failed response, pulling a message
// out of the common {"message": ...} / {"error": ...} body shapes.
func statusError(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.Message
	if msg == "" {
		msg = parsed.Err
	}
	return &Error{StatusCode: status, Message: msg}
}
