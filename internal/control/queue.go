package control

import (
	"log"
	"sync/atomic"
)

// DefaultQueueSize bounds how many signals can wait between two loop iterations.
const DefaultQueueSize = 64

// Queue is a bounded FIFO of signals. Post never blocks; Drain empties it.
type Queue struct {
	ch      chan Signal
	dropped atomic.Uint64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Signal, size)}
}

// Post enqueues a signal. It returns false if the queue was full and the
// signal was dropped.
func (q *Queue) Post(s Signal) bool {
	select {
	case q.ch <- s:
		return true
	default:
		q.dropped.Add(1)
		log.Printf("control queue full, dropping %s", s)
		return false
	}
}

// Drain returns every queued signal in arrival order.
func (q *Queue) Drain() []Signal {
	var out []Signal
	for {
		select {
		case s := <-q.ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

// C exposes the queue for callers that want to block on the next signal.
func (q *Queue) C() <-chan Signal {
	return q.ch
}

func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
