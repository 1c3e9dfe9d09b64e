package memory

import "errors"

var (
	// ErrNotConfigured is returned when memory operations are attempted
	// but no memory driver has been configured.
	ErrNotConfigured = errors.New("memory not configured")

	// ErrUnknownRole is returned for a namespace other than user or assistant.
	ErrUnknownRole = errors.New("unknown memory role")
)
