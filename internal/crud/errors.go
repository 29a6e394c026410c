package crud

import (
	"errors"
	"fmt"
	"net/http"
)

// ClientError is a failure to reach the CRUD service or to make sense of its
// answer: transport errors, timeouts, undecodable or invalid bodies.
type ClientError struct {
	Op  string
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("error during %s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// APIError is a response from the CRUD service with status >= 400. Body is
// the raw response body.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s rejected with status %d:\n%s", e.Op, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
