package orchestrator

import "errors"

var (
	// ErrInvalidRequest flags malformed client input. Not retryable.
	ErrInvalidRequest = errors.New("orchestrator: invalid request")

	// ErrNotFound flags a referenced entity that does not exist. Stores wrap
	// it so callers can distinguish bad references from server faults.
	ErrNotFound = errors.New("orchestrator: not found")

	// ErrNoSlotAllocated is returned when every candidate lane is exhausted.
	// Distinct from input errors so callers may retry later.
	ErrNoSlotAllocated = errors.New("orchestrator: no slot allocated")

	// ErrTaskAlreadyArchived flags a completion notice for a task that
	// already reached its terminal state. This indicates a protocol
	// desynchronization and is never swallowed.
	ErrTaskAlreadyArchived = errors.New("orchestrator: task already archived")
)
