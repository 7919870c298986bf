package gtfs

import (
	"errors"
	"fmt"
)

var (
	ErrRequiredFileMissing = errors.New("required file missing from archive")
	ErrEmptyDataset        = errors.New("no usable records")
)

// LoadError is returned when the static dataset cannot be used at all
type LoadError struct {
	File  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("gtfs load %s: %v", e.File, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
