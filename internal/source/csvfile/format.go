// Package csvfile reads and writes event recordings as text: a
// "# width height" header followed by one "t,x,y,p" row per event.
package csvfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/junsooki/dvsview/internal/event"
)

var ErrBadHeader = errors.New("csvfile: missing or malformed header")

func formatHeader(width, height int) string {
	return fmt.Sprintf("# %d %d\n", width, height)
}

func parseHeader(line string) (int, int, error) {
	fields := strings.Fields(strings.TrimPrefix(line, "#"))
	if !strings.HasPrefix(line, "#") || len(fields) != 2 {
		return 0, 0, ErrBadHeader
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil || w <= 0 {
		return 0, 0, ErrBadHeader
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil || h <= 0 {
		return 0, 0, ErrBadHeader
	}
	return w, h, nil
}

func parseRecord(rec []string) (event.Event, error) {
	if len(rec) != 4 {
		return event.Event{}, fmt.Errorf("csvfile: want 4 fields, got %d", len(rec))
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return event.Event{}, fmt.Errorf("csvfile: timestamp: %w", err)
	}
	x, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 16)
	if err != nil {
		return event.Event{}, fmt.Errorf("csvfile: x: %w", err)
	}
	y, err := strconv.ParseUint(strings.TrimSpace(rec[2]), 10, 16)
	if err != nil {
		return event.Event{}, fmt.Errorf("csvfile: y: %w", err)
	}
	p := strings.TrimSpace(rec[3])
	return event.Event{
		X:         uint16(x),
		Y:         uint16(y),
		Polarity:  p == "1",
		Timestamp: ts,
	}, nil
}

func formatRecord(e event.Event) []string {
	p := "0"
	if e.Polarity {
		p = "1"
	}
	return []string{
		strconv.FormatInt(e.Timestamp, 10),
		strconv.Itoa(int(e.X)),
		strconv.Itoa(int(e.Y)),
		p,
	}
}
