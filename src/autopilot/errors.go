package autopilot

import "errors"

// Rollback precondition violations. These are fatal to the caller and leave
// no partial state behind.
var (
	ErrExecutionNotFound     = errors.New("execution not found")
	ErrExecutionNotCompleted = errors.New("execution is not in a completed state")
	ErrAlreadyRolledBack     = errors.New("execution already rolled back")
	ErrNotInvertible         = errors.New("reallocation executions cannot be rolled back")
)
