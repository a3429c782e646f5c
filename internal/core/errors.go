package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotAvailable = errors.New("not available")
	ErrNotFound     = errors.New("not found")
)

// StatusError is returned by the query client when the backend answers
// with a non-2xx code. The crawl loop classifies retries by the code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d", e.Code)
}

// StatusCode extracts the backend status code from an error chain,
// returning 0 for transport-level failures that never got a response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
