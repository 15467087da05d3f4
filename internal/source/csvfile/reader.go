package csvfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/junsooki/dvsview/internal/event"
)

// Reader loads a whole recording into memory and serves time windows from it.
type Reader struct {
	path   string
	width  int
	height int
	events event.Batch
}

// Open loads the recording at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	r.path = path
	return r, nil
}

func load(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)
	header, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	w, h, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = 4
	cr.ReuseRecord = true

	var events event.Batch
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	// Recordings are written in arrival order; keep the order stable for equal
	// timestamps so last-write-wins still holds on replay.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return &Reader{width: w, height: h, events: events}, nil
}

func (r *Reader) Width() int  { return r.width }
func (r *Reader) Height() int { return r.height }

// StartTimestamp returns the timestamp of the first event, or 0 for an empty file.
func (r *Reader) StartTimestamp() int64 {
	if len(r.events) == 0 {
		return 0
	}
	return r.events[0].Timestamp
}

// EndTimestamp returns the timestamp of the last event, or 0 for an empty file.
func (r *Reader) EndTimestamp() int64 {
	if len(r.events) == 0 {
		return 0
	}
	return r.events[len(r.events)-1].Timestamp
}

// Events returns the events with start <= t < start+window. The returned batch
// is a fresh copy.
func (r *Reader) Events(start, window int64) (event.Batch, error) {
	if window <= 0 {
		return nil, fmt.Errorf("csvfile: window must be positive, got %d", window)
	}
	lo := r.search(start)
	hi := r.search(start + window)
	out := make(event.Batch, hi-lo)
	copy(out, r.events[lo:hi])
	return out, nil
}

// Seek checks that ts lies within the recording. Events is random access,
// so there is no position to move.
func (r *Reader) Seek(ts int64) error {
	if ts < r.StartTimestamp() || ts > r.EndTimestamp() {
		return fmt.Errorf("csvfile: seek %d outside [%d, %d]", ts, r.StartTimestamp(), r.EndTimestamp())
	}
	return nil
}

// Len returns the number of events in the recording.
func (r *Reader) Len() int {
	return len(r.events)
}

func (r *Reader) Close() error {
	r.events = nil
	return nil
}

func (r *Reader) search(ts int64) int {
	return sort.Search(len(r.events), func(i int) bool {
		return r.events[i].Timestamp >= ts
	})
}
