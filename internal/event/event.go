package event

// Event is a single brightness change reported at one pixel.
type Event struct {
	X        uint16
	Y        uint16
	Polarity bool
	// Timestamp in microseconds since the source's epoch.
	Timestamp int64
}

// Batch is an ordered group of events delivered together by a source.
type Batch []Event

// Trigger is an external trigger-in pulse reported by a camera.
type Trigger struct {
	ID        int
	Polarity  bool
	Timestamp int64
}

// Handler receives event batches from a source. It runs on the source's goroutine.
type Handler func(batch Batch)

// TriggerHandler receives trigger-in pulses.
type TriggerHandler func(t Trigger)
