package secrets

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports required configuration values that were unset
// or empty. Separate lists so the operator can tell "forgot the env var"
// from "set it to an empty string in the unit file".
type ValidationError struct {
	Missing []string
	Empty   []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, fmt.Sprintf("empty values for required environment variables: %s", strings.Join(e.Empty, ", ")))
	}
	return strings.Join(parts, "; ")
}

// ValidateRequired checks that every value in the map is non-empty.
// Keys are reported in sorted order so log output is stable.
func ValidateRequired(values map[string]string) error {
	var empty []string
	for key, value := range values {
		if value == "" {
			empty = append(empty, key)
		}
	}
	if len(empty) == 0 {
		return nil
	}
	sort.Strings(empty)
	return &ValidationError{Empty: empty}
}
