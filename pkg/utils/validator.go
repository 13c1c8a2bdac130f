package utils

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ValidateDate validates a calendar date in YYYY-MM-DD form
func ValidateDate(value string) error {
	if _, err := time.Parse(dateLayout, value); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return nil
}

// ValidateText validates that a free-text field is not empty or whitespace-only
func ValidateText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	return nil
}

// IsBlank reports whether a string is empty or whitespace-only
func IsBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
