package common

import (
	"errors"
	"fmt"
)

// ErrCorruption is the sentinel all corruption errors match via errors.Is.
// Corruption means the data is self-inconsistent with its own declared
// structure: a bad chunk length, a missing stream for a declared non-null
// value, an out-of-range nanosecond field, an invalid checkpoint.
var ErrCorruption = errors.New("corrupt data")

// CorruptionError tags a corruption with the identity of the data source it
// was detected in.
type CorruptionError struct {
	Source string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt data in %s: %s", e.Source, e.Reason)
}

func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorruption
}

// Corruptionf builds a CorruptionError for the given source.
func Corruptionf(source, format string, args ...interface{}) error {
	return &CorruptionError{
		Source: source,
		Reason: fmt.Sprintf(format, args...),
	}
}
