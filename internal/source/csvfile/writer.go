package csvfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/junsooki/dvsview/internal/event"
)

// Writer appends event batches to a recording. Safe for use by a camera
// goroutine while another goroutine closes it.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	buf    *bufio.Writer
	csv    *csv.Writer
	closed bool
	count  uint64
}

// Create truncates or creates the recording at path and writes the header.
func Create(path string, width, height int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(f, 256*1024)
	if _, err := buf.WriteString(formatHeader(width, height)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{f: f, buf: buf, csv: csv.NewWriter(buf)}, nil
}

// WriteBatch appends every event of the batch.
func (w *Writer) WriteBatch(batch event.Batch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return os.ErrClosed
	}
	for _, e := range batch {
		if err := w.csv.Write(formatRecord(e)); err != nil {
			return err
		}
	}
	w.count += uint64(len(batch))
	return nil
}

// Count returns the number of events written so far.
func (w *Writer) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes and closes the file. Calling Close twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
