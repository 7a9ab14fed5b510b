package common

import (
	"fmt"
	"strings"
)

// InputError is returned before any remote call when a required argument is missing.
type InputError struct {
	Operation string
	Field     string
}

func (e *InputError) Error() string {
	return fmt.Sprintf(
		"Error in inputs: [%s]-Must supply %s",
		e.Operation, e.Field)
}

func TrimAndCheckEmptyString(s *string) bool {
	*s = strings.TrimSpace(*s)
	return len(*s) == 0
}

// RequireFields checks name/value pairs in order and reports the first empty one.
func RequireFields(operation string, fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		value := fields[i+1]
		if TrimAndCheckEmptyString(&value) {
			return &InputError{Operation: operation, Field: fields[i]}
		}
	}
	return nil
}
