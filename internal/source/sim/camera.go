// Package sim provides a synthetic event camera. It stands in for a vendor
// driver so the viewer can run, record and be tested without hardware.
package sim

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/junsooki/dvsview/internal/event"
	"github.com/junsooki/dvsview/internal/source"
	"github.com/junsooki/dvsview/internal/source/csvfile"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Camera generates a sweeping edge pattern with sparse noise.
type Camera struct {
	serial   string
	width    int
	height   int
	interval time.Duration

	mu        sync.Mutex
	batchN    int
	onEvents  event.Handler
	onTrigger event.TriggerHandler
	running   bool
	connected bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	recorder  *csvfile.Writer

	rng *rand.Rand
	ts  int64
	col int
}

// NewCamera creates a camera of the given size delivering one batch per interval.
func NewCamera(serial string, width, height int, interval time.Duration) *Camera {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Camera{
		serial:    serial,
		width:     width,
		height:    height,
		interval:  interval,
		batchN:    10000,
		connected: true,
		rng:       rand.New(rand.NewPCG(uint64(width), uint64(height))),
	}
}

func (c *Camera) Width() int  { return c.width }
func (c *Camera) Height() int { return c.height }

func (c *Camera) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Camera) SetBatchEventsNum(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.batchN = n
	c.mu.Unlock()
}

func (c *Camera) OnEvents(h event.Handler) {
	c.mu.Lock()
	c.onEvents = h
	c.mu.Unlock()
}

func (c *Camera) OnTrigger(h event.TriggerHandler) {
	c.mu.Lock()
	c.onTrigger = h
	c.mu.Unlock()
}

func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return source.ErrDisconnected
	}
	if c.running {
		return source.ErrAlreadyActive
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.loop(c.stopCh, c.doneCh)
	return nil
}

// Stop halts streaming and waits for the generator goroutine to exit.
func (c *Camera) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	done := c.doneCh
	c.mu.Unlock()
	<-done

	if err := c.StopRecording(); err != nil && err != source.ErrNotRecording {
		log.Printf("sim %s: stop recording: %v", c.serial, err)
	}
}

// Disconnect simulates the device going away. Streaming stops and the
// camera reports IsConnected() == false from then on.
func (c *Camera) Disconnect() {
	c.Stop()
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *Camera) StartRecording(path string) error {
	w, err := csvfile.Create(path, c.width, c.height)
	if err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	c.mu.Lock()
	prev := c.recorder
	c.recorder = w
	c.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return nil
}

func (c *Camera) StopRecording() error {
	c.mu.Lock()
	w := c.recorder
	c.recorder = nil
	c.mu.Unlock()
	if w == nil {
		return source.ErrNotRecording
	}
	return w.Close()
}

func (c *Camera) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.emit()
		}
	}
}

func (c *Camera) emit() {
	c.mu.Lock()
	n := c.batchN
	h := c.onEvents
	th := c.onTrigger
	rec := c.recorder
	c.mu.Unlock()

	batch := c.generate(n)
	if rec != nil {
		if err := rec.WriteBatch(batch); err != nil {
			log.Printf("sim %s: write recording: %v", c.serial, err)
		}
	}
	if h != nil {
		h(batch)
	}
	if th != nil && c.col == 0 {
		th(event.Trigger{ID: 0, Polarity: true, Timestamp: c.ts})
	}
}

// generate is only called from the loop goroutine.
func (c *Camera) generate(n int) event.Batch {
	batch := make(event.Batch, 0, n)
	step := c.interval.Microseconds()
	if step <= 0 {
		step = 1
	}
	lead := c.col
	trail := ((c.col-8)%c.width + c.width) % c.width

	for i := 0; i < n; i++ {
		ts := c.ts + int64(i)*step/int64(n)
		var e event.Event
		switch i % 4 {
		case 0, 1:
			e = event.Event{X: uint16(lead), Y: uint16(c.rng.IntN(c.height)), Polarity: true, Timestamp: ts}
		case 2:
			e = event.Event{X: uint16(trail), Y: uint16(c.rng.IntN(c.height)), Polarity: false, Timestamp: ts}
		default:
			e = event.Event{
				X:         uint16(c.rng.IntN(c.width)),
				Y:         uint16(c.rng.IntN(c.height)),
				Polarity:  c.rng.IntN(2) == 0,
				Timestamp: ts,
			}
		}
		batch = append(batch, e)
	}

	c.ts += step
	c.col = (c.col + 1) % c.width
	return batch
}
