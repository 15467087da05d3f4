package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/junsooki/dvsview/internal/accumulator"
	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/event"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/marker"
	"github.com/junsooki/dvsview/internal/snapshot"
	"github.com/junsooki/dvsview/internal/source/csvfile"
)

// writeRecording writes a 16x16 recording spanning 0..100000us with one
// on-event per 40ms frame at (1,1) and an off-event at (2,2) at 50000us.
func writeRecording(t *testing.T) *csvfile.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.raw")
	w, err := csvfile.Create(path, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteBatch(event.Batch{
		{X: 1, Y: 1, Polarity: true, Timestamp: 0},
		{X: 1, Y: 1, Polarity: true, Timestamp: 40000},
		{X: 2, Y: 2, Polarity: false, Timestamp: 50000},
		{X: 1, Y: 1, Polarity: true, Timestamp: 80000},
		{X: 3, Y: 3, Polarity: true, Timestamp: 100000},
	})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := csvfile.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func replayConfig() config.ReplayConfig {
	return config.ReplayConfig{FPS: 200, Window: 10000, Step: 40000}
}

func TestReplayLoops(t *testing.T) {
	r := writeRecording(t)
	env, disp, dir := testEnv(t)
	p := NewReplay(replayConfig(), r, env)

	done, cancel := run(p.Run)
	defer cancel()
	waitFor(t, "a full loop", func() bool { return disp.count() >= 5 })
	disp.keys <- input.KeyEscape
	waitDone(t, done)

	on := accumulator.DefaultPalette.On
	bg := accumulator.DefaultPalette.Background
	// Frames at 0, 40000, 80000 then back to 0.
	for _, i := range []int{0, 1, 2, 3} {
		if got := disp.frame(i).RGBAAt(1, 1); got != on {
			t.Errorf("frame %d pixel (1,1) = %v, want on color %v", i, got, on)
		}
	}
	// 50000 is outside the 40000..50000 window.
	if got := disp.frame(1).RGBAAt(2, 2); got != bg {
		t.Errorf("frame 1 pixel (2,2) = %v, want background", got)
	}
	if !dir.Exists(marker.StopSignal) {
		t.Error("escape should announce stop")
	}
}

func TestReplayStopMarker(t *testing.T) {
	r := writeRecording(t)
	env, disp, dir := testEnv(t)
	p := NewReplay(replayConfig(), r, env)

	done, cancel := run(p.Run)
	defer cancel()
	waitFor(t, "first frame", func() bool { return disp.count() > 0 })

	dir.Set(marker.CalibrationIn, "START")
	waitFor(t, "unsupported request consumed", func() bool { return !dir.Exists(marker.CalibrationIn) })

	dir.Set(marker.StopSignal, "STOP")
	waitDone(t, done)
	if dir.Exists(marker.StopSignal) {
		t.Error("external stop should clear markers")
	}
}

func TestExportTimes(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.ExportConfig
		start, end int64
		want       []int64
		wantErr    bool
	}{
		{"count", config.ExportConfig{Count: 4}, 0, 100000, []int64{0, 25000, 50000, 75000}, false},
		{"count rounds", config.ExportConfig{Count: 3}, 100, 200, []int64{100, 133, 166}, false},
		{"count longer than recording", config.ExportConfig{Count: 5}, 0, 2, []int64{0, 1}, false},
		{"interval", config.ExportConfig{Interval: 30000}, 0, 100000, []int64{0, 30000, 60000, 90000}, false},
		{"empty recording", config.ExportConfig{Count: 3}, 50, 50, nil, false},
		{"nothing selected", config.ExportConfig{}, 0, 10, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExportTimes(tt.cfg, tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExportTimes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExportTimes() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExportTimes()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExportRun(t *testing.T) {
	r := writeRecording(t)
	outDir := filepath.Join(t.TempDir(), "dvsense")
	saver, err := snapshot.NewSaver(outDir)
	if err != nil {
		t.Fatal(err)
	}

	x := NewExport(config.ExportConfig{Interval: 40000}, 10000, r, saver)
	n, err := x.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("saved %d images, want 3", n)
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 3 {
		t.Errorf("export dir has %d entries, want 3", len(entries))
	}
	if m, _ := filepath.Glob(filepath.Join(outDir, "*_40000_2.png")); len(m) != 1 {
		t.Errorf("missing image for 40000us: %v", entries)
	}
}

func TestExportCancelled(t *testing.T) {
	r := writeRecording(t)
	saver, _ := snapshot.NewSaver(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := NewExport(config.ExportConfig{Count: 2}, 10000, r, saver)
	if n, err := x.Run(ctx); err != context.Canceled || n != 0 {
		t.Errorf("Run() = %d, %v, want 0, context.Canceled", n, err)
	}
}

