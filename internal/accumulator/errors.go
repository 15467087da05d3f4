package accumulator

import (
	"errors"
	"fmt"

	"github.com/junsooki/dvsview/internal/event"
)

var (
	ErrNotInitialized     = errors.New("accumulator not initialized")
	ErrAlreadyInitialized = errors.New("accumulator already initialized")
	ErrInvalidSize        = errors.New("invalid frame size")
	ErrEventOutOfBounds   = errors.New("event out of bounds")
)

// OutOfBoundsError reports the events of one batch that fell outside the frame.
// The rest of the batch was still applied.
type OutOfBoundsError struct {
	Dropped int
	First   event.Event
	Width   int
	Height  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%d event(s) out of bounds, first at (%d,%d) for %dx%d frame",
		e.Dropped, e.First.X, e.First.Y, e.Width, e.Height)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrEventOutOfBounds
}
