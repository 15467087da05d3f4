package display

import (
	"image"
	"sync"
	"time"

	"github.com/junsooki/dvsview/internal/input"
)

// Headless keeps the last frame in memory and takes keys from Press. Used
// when no window is wanted, e.g. when only remote viewers watch.
type Headless struct {
	mu     sync.Mutex
	last   *image.RGBA
	frames int
	keys   chan input.Key
}

func NewHeadless() *Headless {
	return &Headless{keys: make(chan input.Key, 16)}
}

func (h *Headless) Show(frame *image.RGBA) {
	h.mu.Lock()
	h.last = frame
	h.frames++
	h.mu.Unlock()
}

func (h *Headless) PollKey(wait time.Duration) (input.Key, bool) {
	return pollKey(h.keys, wait)
}

// Press queues a key as if it had been typed.
func (h *Headless) Press(k input.Key) {
	select {
	case h.keys <- k:
	default:
	}
}

// Last returns the most recent frame shown.
func (h *Headless) Last() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Frames returns how many frames were shown.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}
