package display

import (
	"image"
	"time"

	"github.com/junsooki/dvsview/internal/input"
)

// Display renders frames and reports key presses.
type Display interface {
	// Show hands a frame to the renderer. The display takes ownership.
	Show(frame *image.RGBA)
	// PollKey waits up to wait for a key press. A non-positive wait only
	// checks what is already pending.
	PollKey(wait time.Duration) (input.Key, bool)
}

func pollKey(keys <-chan input.Key, wait time.Duration) (input.Key, bool) {
	if wait <= 0 {
		select {
		case k := <-keys:
			return k, true
		default:
			return "", false
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case k := <-keys:
		return k, true
	case <-timer.C:
		return "", false
	}
}
