package regubot

import "fmt"

// APIError is a failure the backend itself reported (success:false with an
// error string, or a non-2xx status with a parseable error body). Transport
// failures stay plain wrapped errors; callers use errors.As to tell the two
// apart when choosing the user-facing framing.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}
