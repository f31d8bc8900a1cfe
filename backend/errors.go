package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable covers transport failures and bodies that are not the
	// expected JSON shape.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrUnauthorized matches an [APIError] with status 401 or 403.
	ErrUnauthorized = errors.New("backend rejected credentials")
	// ErrUnknownLoginType is returned for a login type with no configured endpoint.
	ErrUnknownLoginType = errors.New("unknown login type")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}
