package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrNilControl is yielded when the transform is built without a Control.
	ErrNilControl = errors.New("batch: nil control")

	// ErrNilInput is yielded when the input sequence or channel is nil.
	ErrNilInput = errors.New("batch: nil input")
)

// Op names the Control operation that failed.
type Op string

const (
	OpBegin Op = "begin"
	OpEntry Op = "entry"
	OpEnd   Op = "end"
)

// ControlError is yielded when a Control operation returns an error.
// It unwraps to the policy's original error.
type ControlError struct {
	// Op is the failing operation.
	Op Op

	// Index is the 0-based index of the entry being folded for OpEntry,
	// and the number of entries folded for OpEnd. It is 0 for OpBegin.
	Index int

	// Err is the error returned by the Control.
	Err error
}

func (e *ControlError) Error() string {
	switch e.Op {
	case OpEntry:
		return fmt.Sprintf("batch: entry %d: %v", e.Index, e.Err)
	case OpEnd:
		return fmt.Sprintf("batch: end after %d entries: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("batch: %s: %v", e.Op, e.Err)
	}
}

func (e *ControlError) Unwrap() error {
	return e.Err
}
