package agent

import "errors"

var (
	// ErrInvalidConfig indicates a run configuration that cannot start.
	ErrInvalidConfig = errors.New("agent: invalid run configuration")

	// ErrAlreadyRan indicates Run was called twice on one coordinator.
	ErrAlreadyRan = errors.New("agent: coordinator already ran")
)
