package config

import (
	"errors"
	"fmt"
)

var ErrMissing = errors.New("required property is missing")

// Error reports a configuration property that could not be loaded or is invalid
type Error struct {
	Field string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
