package manager

import (
	"errors"
	"fmt"
)

// ErrNoMonitorSelected is returned by commands that need a target monitor
// before one has been selected.
var ErrNoMonitorSelected = errors.New("no monitor selected")

// UnknownMonitorError reports a monitor ID the backend does not know.
type UnknownMonitorError struct {
	ID string
}

func (e *UnknownMonitorError) Error() string {
	return fmt.Sprintf("unknown monitor %q", e.ID)
}
