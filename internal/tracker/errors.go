package tracker

import (
	"errors"
	"fmt"
)

var (
	ErrIncompleteTask   = errors.New("task not completed")
	ErrDoubleCompletion = errors.New("task already completed")
	ErrNilTask          = errors.New("nil task")
	ErrTaskOwned        = errors.New("task already added to a tracker")
)

// IOError is returned when a report or snapshot cannot be written or read.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
