package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInternal      = "INTERNAL_ERROR"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// OK wraps v in a successful envelope.
func OK(v any) (*Envelope, error) {
	env := &Envelope{Success: true}
	if v == nil {
		return env, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	env.Data = data
	return env, nil
}

// Fail wraps err in a failed envelope and returns the status to send.
func Fail(err error) (int, *Envelope) {
	status, code := Classify(err)
	return status, &Envelope{Error: &ErrorBody{Message: err.Error(), Code: code}}
}

// Classify maps an error to its HTTP status and error code.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, CodeAlreadyExists
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// ErrorFor rebuilds a domain error from a failed response. The status is
// authoritative; body may be nil when the server sent no envelope.
func ErrorFor(status int, body *ErrorBody) error {
	msg := http.StatusText(status)
	if body != nil && body.Message != "" {
		msg = body.Message
	}

	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = domain.ErrValidation
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusConflict:
		sentinel = domain.ErrAlreadyExists
	default:
		sentinel = domain.ErrTransport
	}
	return &RemoteError{Status: status, Message: msg, sentinel: sentinel}
}

// RemoteError is a failure reported by the server.
type RemoteError struct {
	Status  int
	Message string

	sentinel error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap exposes the domain sentinel for errors.Is.
func (e *RemoteError) Unwrap() error { return e.sentinel }

// Decode unmarshals a successful envelope's data into v.
func (e *Envelope) Decode(v any) error {
	if !e.Success {
		return fmt.Errorf("%w: decode of a failed response", domain.ErrTransport)
	}
	if v == nil || len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: decode response data: %v", domain.ErrTransport, err)
	}
	return nil
}
