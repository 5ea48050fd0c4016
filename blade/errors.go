package blade

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport = errors.New("blade: transport failure")
	// ErrUnauthorized means the server refused the presented credentials (HTTP 401).
	ErrUnauthorized = errors.New("blade: unauthorized")
	// ErrRejected means the server declined the request (4xx or a failing envelope code).
	ErrRejected = errors.New("blade: request rejected")
	// ErrServer means the server failed (5xx).
	ErrServer = errors.New("blade: server error")
	// ErrMalformedResponse means the response body could not be decoded.
	ErrMalformedResponse = errors.New("blade: malformed response")
)

// APIError carries the HTTP status and the envelope fields of a failed call.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != 0 && e.Code != e.Status {
		return fmt.Sprintf("blade: status %d code %d: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("blade: status %d: %s", e.Status, msg)
}

// Is maps the error onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.unauthorized()
	case ErrServer:
		return !e.unauthorized() && e.server()
	case ErrRejected:
		return !e.unauthorized() && !e.server()
	}
	return false
}

func (e *APIError) unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Code == http.StatusUnauthorized
}

// Envelope codes mirror HTTP statuses on most blade deployments.
func (e *APIError) server() bool {
	return e.Status >= 500 || (e.Code >= 500 && e.Code < 600)
}
