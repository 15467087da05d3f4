// Package source defines the event source contracts consumed by the viewer:
// live cameras and recorded event files.
package source

import (
	"errors"

	"github.com/junsooki/dvsview/internal/event"
)

var (
	ErrDisconnected  = errors.New("camera disconnected")
	ErrNoCamera      = errors.New("no camera found")
	ErrNotRecording  = errors.New("not recording")
	ErrAlreadyActive = errors.New("already running")
)

// Description identifies a camera found by a Manager.
type Description struct {
	Manufacturer string
	Serial       string
}

// Manager discovers and opens cameras.
type Manager interface {
	Cameras() []Description
	Open(serial string) (Camera, error)
}

// Camera is a live event stream with recording support.
type Camera interface {
	Width() int
	Height() int
	IsConnected() bool

	// SetBatchEventsNum sets how many events are delivered per handler call.
	SetBatchEventsNum(n int)
	// OnEvents registers the batch handler. Must be called before Start.
	OnEvents(h event.Handler)
	OnTrigger(h event.TriggerHandler)

	Start() error
	Stop()

	StartRecording(path string) error
	StopRecording() error
}

// Reader replays a recorded event file.
type Reader interface {
	Width() int
	Height() int
	StartTimestamp() int64
	EndTimestamp() int64

	// Events returns the events with start <= t < start+window.
	Events(start, window int64) (event.Batch, error)
	// Seek rewinds the reader to ts, failing when ts lies outside the
	// recording. Readers with random-access Events only check the range.
	Seek(ts int64) error
	Close() error
}
