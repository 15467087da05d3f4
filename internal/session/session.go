// Package session runs the viewer loops: live camera, file replay and PNG
// export. Each loop is the only consumer of its accumulator and the only
// reader of the control queue.
package session

import (
	"image"
	"log"
	"sync/atomic"
	"time"

	"github.com/junsooki/dvsview/internal/control"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/marker"
)

// Display is the window a session renders into.
type Display interface {
	Show(frame *image.RGBA)
	PollKey(wait time.Duration) (input.Key, bool)
}

// Resizer is implemented by displays that can follow the source resolution.
type Resizer interface {
	Resize(width, height int)
}

// FrameSink receives every shown frame, e.g. the remote preview streamer.
type FrameSink interface {
	Publish(frame *image.RGBA)
}

// Env bundles the collaborators shared by every session. Only Display and
// Queue are required.
type Env struct {
	Display   Display
	Queue     *control.Queue
	Announcer control.Announcer
	Watcher   *marker.Watcher
	Markers   *marker.Dir
	Preview   FrameSink
}

func (e *Env) announcer() control.Announcer {
	if e.Announcer == nil {
		return control.Nop{}
	}
	return e.Announcer
}

// keySignals maps window keys to the signal they raise.
var keySignals = map[input.Key]control.Kind{
	input.KeyQ:      control.Stop,
	input.KeyEscape: control.Stop,
	input.KeySpace:  control.ToggleRecording,
	input.KeyC:      control.Calibrate,
}

// KeyKind maps a key pressed in the window, or on a remote viewer, to the
// signal it raises in a live or replay session.
func KeyKind(replay bool, k input.Key) (control.Kind, bool) {
	keys := keySignals
	if replay {
		keys = replayKeys
	}
	kind, ok := keys[k]
	return kind, ok
}

// poll waits for a key, scans the marker directory and returns every queued
// signal in order. The key wait paces the loop.
func (e *Env) poll(wait time.Duration, keys map[input.Key]control.Kind) []control.Signal {
	if k, ok := e.Display.PollKey(wait); ok {
		if kind, ok := keys[k]; ok {
			e.Queue.Post(control.Signal{Kind: kind, Origin: control.Key})
		}
	}
	if e.Watcher != nil {
		e.Watcher.Scan()
	}
	return e.Queue.Drain()
}

func (e *Env) show(frame *image.RGBA) {
	e.Display.Show(frame)
	if e.Preview != nil {
		e.Preview.Publish(frame)
	}
}

func (e *Env) resize(w, h int) {
	if r, ok := e.Display.(Resizer); ok {
		r.Resize(w, h)
	}
}

func (e *Env) announce(s control.Signal, k control.Kind) {
	if !s.Origin.Local() {
		return
	}
	if err := e.announcer().Announce(k); err != nil {
		log.Printf("announce %s: %v", k, err)
	}
}

func (e *Env) consume(s control.Signal) {
	if s.Origin == control.Marker && e.Watcher != nil {
		e.Watcher.Consume(s.Kind)
	}
}

// finish tells peers we are leaving when the stop was ours, or resets the
// marker directory when a peer asked us to stop.
func (e *Env) finish(origin control.Origin) {
	if origin.Local() {
		if err := e.announcer().Announce(control.Stop); err != nil {
			log.Printf("announce stop: %v", err)
		}
		return
	}
	if e.Markers != nil {
		if err := e.Markers.Clear(); err != nil {
			log.Printf("clear markers: %v", err)
		}
	}
}

// dropLog rate-limits reports of out-of-range events to one per second.
type dropLog struct {
	last atomic.Int64
}

func (d *dropLog) report(err error) {
	now := time.Now().UnixNano()
	last := d.last.Load()
	if now-last < int64(time.Second) || !d.last.CompareAndSwap(last, now) {
		return
	}
	log.Printf("dropping events: %v", err)
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}
