package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned by Registry.Get for an unregistered name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments marks a call whose arguments do not satisfy the
	// tool's schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrDuplicateTool is returned when two tools share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// PanicError wraps a value recovered from a panicking tool.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("tool panicked: %v", e.Value)
}
