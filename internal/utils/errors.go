package utils

import (
	"errors"
	"fmt"
)

// WrapError wraps an error with additional context
func WrapError(err error, msg string) error {
	if err == nil {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...interface{}) error {
	return WrapError(err, fmt.Sprintf(format, args...))
}
