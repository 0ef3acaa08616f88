package productmcp

import (
	"errors"
	"fmt"
)

// ErrTool marks a call the server completed but reported as degraded.
var ErrTool = errors.New("tool call degraded")

// StatusError is a non-200 reply from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("productmcp: server returned %d: %s", e.Code, e.Body)
}
