package tools

import (
	"fmt"
	"strings"
)

// StringArg returns args[name] as a trimmed string. A missing or empty value
// is an ErrInvalidArguments error.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArguments, name)
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidArguments, name, v)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrInvalidArguments, name)
	}
	return s, nil
}

// OptionalStringArg is StringArg that tolerates absence.
func OptionalStringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

// validate checks the "required" list of a JSON Schema against args.
func validate(schema map[string]any, args map[string]any) error {
	var required []string
	switch r := schema["required"].(type) {
	case []string:
		required = r
	case []any:
		for _, v := range r {
			if s, ok := v.(string); ok {
				required = append(required, s)
			}
		}
	}

	for _, name := range required {
		if v, ok := args[name]; !ok || v == nil {
			return fmt.Errorf("%w: missing required argument %q", ErrInvalidArguments, name)
		}
	}
	return nil
}
