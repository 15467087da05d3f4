// Package accumulator paints a high-rate stream of events into a low-rate
// sequence of displayable frames.
//
// Two buffers are owned privately. Producers paint into the write buffer under
// a lock, one acquisition per batch. The display loop calls TakeSnapshot, which
// swaps the buffers, clears the new write buffer and hands back a private copy
// of the published one. The copy happens outside the producer lock.
package accumulator

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/junsooki/dvsview/internal/event"
)

// Accumulator is a double-buffered event-to-frame accumulator.
type Accumulator struct {
	// mu guards write, published and the dimensions. Held by ApplyEvents for a
	// whole batch and by TakeSnapshot for the swap and clear.
	mu        sync.Mutex
	write     *image.RGBA
	published *image.RGBA
	width     int
	height    int
	ready     bool
	bgRow     []byte

	// snapMu serializes consumers so a copy-out never races a second swap.
	snapMu sync.Mutex

	palette Palette

	applied   atomic.Uint64
	dropped   atomic.Uint64
	batches   atomic.Uint64
	snapshots atomic.Uint64
}

// Stats is a point-in-time view of the accumulator counters.
type Stats struct {
	EventsApplied uint64
	EventsDropped uint64
	Batches       uint64
	Snapshots     uint64
}

// New creates an accumulator. Setup must be called before use.
func New(opts ...Option) *Accumulator {
	a := &Accumulator{palette: DefaultPalette}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup allocates both frames at the given size and fills them with the
// background color. It must be called exactly once, before concurrent use.
func (a *Accumulator) Setup(width, height int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready {
		return ErrAlreadyInitialized
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	a.width = width
	a.height = height
	a.bgRow = make([]byte, width*4)
	bg := a.palette.Background
	for i := 0; i < len(a.bgRow); i += 4 {
		a.bgRow[i], a.bgRow[i+1], a.bgRow[i+2], a.bgRow[i+3] = bg.R, bg.G, bg.B, bg.A
	}

	rect := image.Rect(0, 0, width, height)
	a.write = image.NewRGBA(rect)
	a.published = image.NewRGBA(rect)
	a.fill(a.write)
	a.fill(a.published)
	a.ready = true
	return nil
}

// Width returns the frame width, or 0 before Setup.
func (a *Accumulator) Width() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.width
}

// Height returns the frame height, or 0 before Setup.
func (a *Accumulator) Height() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.height
}

// ApplyEvents paints a batch into the write frame in order, so the last event
// on a pixel wins. Events outside the frame are dropped and reported with an
// *OutOfBoundsError; the rest of the batch is still applied.
func (a *Accumulator) ApplyEvents(batch event.Batch) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.ready {
		return ErrNotInitialized
	}

	on, off := a.palette.On, a.palette.Off
	pix := a.write.Pix
	stride := a.write.Stride

	var oob *OutOfBoundsError
	for _, e := range batch {
		x, y := int(e.X), int(e.Y)
		if x >= a.width || y >= a.height {
			if oob == nil {
				oob = &OutOfBoundsError{First: e, Width: a.width, Height: a.height}
			}
			oob.Dropped++
			continue
		}
		c := off
		if e.Polarity {
			c = on
		}
		i := y*stride + x*4
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, 0xff
	}

	a.batches.Add(1)
	if oob != nil {
		a.applied.Add(uint64(len(batch) - oob.Dropped))
		a.dropped.Add(uint64(oob.Dropped))
		return oob
	}
	a.applied.Add(uint64(len(batch)))
	return nil
}

// TakeSnapshot publishes the current write frame, resets a fresh one to the
// background and returns a copy the caller owns.
func (a *Accumulator) TakeSnapshot() (*image.RGBA, error) {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()

	a.mu.Lock()
	if !a.ready {
		a.mu.Unlock()
		return nil, ErrNotInitialized
	}
	a.write, a.published = a.published, a.write
	a.fill(a.write)
	published := a.published
	a.mu.Unlock()

	// Producers only touch a.write, and snapMu keeps other consumers from
	// swapping published back before the copy completes.
	out := image.NewRGBA(published.Rect)
	copy(out.Pix, published.Pix)
	a.snapshots.Add(1)
	return out, nil
}

// Stats returns the current counters.
func (a *Accumulator) Stats() Stats {
	return Stats{
		EventsApplied: a.applied.Load(),
		EventsDropped: a.dropped.Load(),
		Batches:       a.batches.Load(),
		Snapshots:     a.snapshots.Load(),
	}
}

func (a *Accumulator) fill(img *image.RGBA) {
	for y := 0; y < a.height; y++ {
		copy(img.Pix[y*img.Stride:], a.bgRow)
	}
}
