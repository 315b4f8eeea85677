package export

import (
	"fmt"
	"time"
)

// ProtocolError indicates the service violated the export protocol: a
// failed submission, an unexpected transport error during polling, or a
// success report missing its download URL or file token. It is never
// retried.
type ProtocolError struct {
	Op  string // operation that observed the violation
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error during %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RemoteFailureError indicates the service explicitly reported the export
// task as failed. Reason is the remote-provided message, if any.
type RemoteFailureError struct {
	TaskID string
	Reason string
}

func (e *RemoteFailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("task %s: export failed", e.TaskID)
	}
	return fmt.Sprintf("task %s: export failed: %s", e.TaskID, e.Reason)
}

// TimeoutError indicates the poll attempt budget was exhausted before the
// task reached a terminal state.
type TimeoutError struct {
	TaskID   string
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s: still not finished after %d polls (%s elapsed)",
		e.TaskID, e.Attempts, e.Elapsed.Round(time.Second))
}
