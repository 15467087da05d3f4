// Package preview streams the most recent accumulated frame to a remote viewer.
package preview

import (
	"context"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junsooki/dvsview/internal/encoder"
	"github.com/junsooki/dvsview/internal/transport"
)

// Stats reports mailbox activity.
type Stats struct {
	Published uint64
	Sent      uint64
	Dropped   uint64
	Failed    uint64
}

// Streamer is a single-slot mailbox between the session loop and the
// network. Publish never blocks: a frame that was not sent before the next
// one arrives is overwritten and counted as dropped.
type Streamer struct {
	enc      encoder.Encoder
	interval time.Duration

	mu     sync.Mutex
	frame  *image.RGBA
	notify chan struct{}

	published atomic.Uint64
	sent      atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewStreamer creates a Streamer sending at most fps frames per second.
func NewStreamer(enc encoder.Encoder, fps int) *Streamer {
	if fps <= 0 {
		fps = 15
	}
	return &Streamer{
		enc:      enc,
		interval: time.Second / time.Duration(fps),
		notify:   make(chan struct{}, 1),
	}
}

// Publish offers a frame. The frame must not be modified afterwards.
func (s *Streamer) Publish(frame *image.RGBA) {
	s.mu.Lock()
	if s.frame != nil {
		s.dropped.Add(1)
	}
	s.frame = frame
	s.mu.Unlock()
	s.published.Add(1)

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Streamer) take() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frame
	s.frame = nil
	return f
}

// Run encodes and sends frames until ctx is cancelled. Only one Run should
// be active per Streamer; a new viewer replaces the previous Run.
func (s *Streamer) Run(ctx context.Context, dst transport.FrameSender) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		}

		if wait := s.interval - time.Since(last); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}

		frame := s.take()
		if frame == nil {
			continue
		}
		last = time.Now()

		data, err := s.enc.Encode(frame)
		if err != nil {
			log.Printf("encode preview frame: %v", err)
			s.failed.Add(1)
			continue
		}
		if err := dst.SendFrame(data); err != nil {
			s.failed.Add(1)
			continue
		}
		s.sent.Add(1)
	}
}

func (s *Streamer) Stats() Stats {
	return Stats{
		Published: s.published.Load(),
		Sent:      s.sent.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
	}
}
