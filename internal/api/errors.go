package api

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a 404 from the backend.
var ErrNotFound = errors.New("not found")

// RequestError reports a failed backend request. Status is zero when the
// request never reached the backend.
type RequestError struct {
	Method string
	Route  string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Route, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Route, e.Status, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsAuth reports whether err is a backend rejection of the credential.
// Callers surface these as authentication failures, never retry them.
func IsAuth(err error) bool {
	var re *RequestError
	if !errors.As(err, &re) {
		return false
	}
	return re.Status == 401 || re.Status == 403
}
