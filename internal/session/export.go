package session

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/junsooki/dvsview/internal/accumulator"
	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/snapshot"
	"github.com/junsooki/dvsview/internal/source"
)

// ExportTimes returns the timestamps at which images are taken from a
// recording spanning [start, end). With a count the images are spread evenly
// (interval = round(duration/count), at least 1us), so a recording shorter
// than count microseconds gives one image per microsecond; otherwise one image
// is taken every interval microseconds.
func ExportTimes(cfg config.ExportConfig, start, end int64) ([]int64, error) {
	var step int64
	limit := math.MaxInt
	switch {
	case cfg.Count > 0:
		step = int64(math.Round(float64(end-start) / float64(cfg.Count)))
		limit = cfg.Count
	case cfg.Interval > 0:
		step = cfg.Interval
	default:
		return nil, fmt.Errorf("export needs a count or an interval")
	}
	step = max(step, 1)

	var ts []int64
	for t := start; t < end && len(ts) < limit; t += step {
		ts = append(ts, t)
	}
	return ts, nil
}

// Export writes PNG images of a recording without opening a window.
type Export struct {
	cfg    config.ExportConfig
	window int64
	reader source.Reader
	saver  *snapshot.Saver
	drops  dropLog
}

// NewExport creates an export; each image shows window microseconds of events.
func NewExport(cfg config.ExportConfig, window int64, r source.Reader, saver *snapshot.Saver) *Export {
	return &Export{cfg: cfg, window: window, reader: r, saver: saver}
}

// Run writes every image and returns how many were saved.
func (x *Export) Run(ctx context.Context) (int, error) {
	acc := accumulator.New()
	if err := acc.Setup(x.reader.Width(), x.reader.Height()); err != nil {
		return 0, err
	}

	start, end := x.reader.StartTimestamp(), x.reader.EndTimestamp()
	times, err := ExportTimes(x.cfg, start, end)
	if err != nil {
		return 0, err
	}
	log.Printf("exporting %d images from %d..%d us", len(times), start, end)

	saved := 0
	for _, t := range times {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		batch, err := x.reader.Events(t, x.window)
		if err != nil {
			return saved, err
		}
		if err := acc.ApplyEvents(batch); err != nil {
			x.drops.report(err)
		}
		frame, err := acc.TakeSnapshot()
		if err != nil {
			return saved, err
		}
		path, err := x.saver.SaveAt(frame, t)
		if err != nil {
			return saved, err
		}
		saved++
		log.Printf("saved: %s", path)
	}
	return saved, nil
}
