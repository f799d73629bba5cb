package errors

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated is returned when a call needs a session and none is active.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the current user lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the backend has no such entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when client-side or backend validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when the entity already exists.
	ErrConflict = errors.New("already exists")
)

// Kind is the coarse category a failure is surfaced under.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindHTTP       Kind = "http"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindUnknown    Kind = "unknown"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// Text returns the first non-empty human readable field.
func (r ErrorResponse) Text() string {
	for _, s := range []string{r.Msg, r.Message, r.Error} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// HTTPError represents a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// Unwrap maps the status code onto the package sentinels so callers can use errors.Is.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidInput
	default:
		return nil
	}
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Error(),
		Code:  e.Code,
	}
}

// FromResponse decodes an error body. JSON bodies contribute their msg, message
// or error field; anything else is used verbatim.
func FromResponse(statusCode int, body []byte) *HTTPError {
	herr := &HTTPError{StatusCode: statusCode}
	var payload ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		herr.Message = payload.Text()
		herr.Code = payload.Code
	}
	if herr.Message == "" {
		herr.Message = strings.TrimSpace(string(body))
	}
	return herr
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}

// KindOf classifies err for user-facing reporting.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrForbidden):
		return KindAuth
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return KindHTTP
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}
