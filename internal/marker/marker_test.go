package marker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/junsooki/dvsview/internal/control"
)

func newDir(t *testing.T) *Dir {
	t.Helper()
	d, err := NewDir(filepath.Join(t.TempDir(), "temp"))
	if err != nil {
		t.Fatalf("NewDir() failed: %v", err)
	}
	return d
}

func TestSetExistsRemove(t *testing.T) {
	d := newDir(t)
	if d.Exists(StopSignal) {
		t.Fatal("marker exists in a fresh dir")
	}
	if err := d.Set(StopSignal, "STOP"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if !d.Exists(StopSignal) {
		t.Error("Exists() = false after Set")
	}
	body, _ := os.ReadFile(filepath.Join(d.Path(), string(StopSignal)))
	if string(body) != "STOP" {
		t.Errorf("marker body = %q, want STOP", body)
	}
	if err := d.Remove(StopSignal); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := d.Remove(StopSignal); err != nil {
		t.Errorf("Remove() of missing marker = %v, want nil", err)
	}
}

func TestClear(t *testing.T) {
	d := newDir(t)
	for _, n := range []Name{StopSignal, StartRecordingIn, CalibrationOut} {
		if err := d.Set(n, "x"); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(d.Path(), "temp_file.txt"), []byte("path"), 0644)

	if err := d.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	entries, _ := os.ReadDir(d.Path())
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
}

func TestMissingDirReadsAsAbsent(t *testing.T) {
	d := &Dir{path: filepath.Join(t.TempDir(), "gone")}
	if d.Exists(StopSignal) {
		t.Error("Exists() in missing dir should be false")
	}
	if err := d.Clear(); err == nil {
		t.Error("Clear() of missing dir should fail")
	}
}

func TestAnnounce(t *testing.T) {
	tests := []struct {
		kind control.Kind
		name Name
	}{
		{control.Stop, StopSignal},
		{control.StartRecording, StartRecordingOut},
		{control.StopRecording, StopRecordingOut},
		{control.Calibrate, CalibrationOut},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			d := newDir(t)
			if err := d.Announce(tt.kind); err != nil {
				t.Fatalf("Announce() failed: %v", err)
			}
			if !d.Exists(tt.name) {
				t.Errorf("marker %s not written", tt.name)
			}
		})
	}
}

func TestScanIsEdgeTriggered(t *testing.T) {
	d := newDir(t)
	q := control.NewQueue(8)
	w := NewWatcher(d, q)

	d.Set(StartRecordingIn, "START")
	w.Scan()
	w.Scan()
	got := q.Drain()
	if len(got) != 1 || got[0] != (control.Signal{Kind: control.StartRecording, Origin: control.Marker}) {
		t.Fatalf("signals = %v, want one start-recording/marker", got)
	}

	w.Consume(control.StartRecording)
	if d.Exists(StartRecordingIn) {
		t.Error("Consume() left the request marker")
	}
	w.Scan()
	d.Set(StartRecordingIn, "START")
	w.Scan()
	if got := q.Drain(); len(got) != 1 {
		t.Errorf("re-raised marker produced %d signals, want 1", len(got))
	}
}

func TestConsumeRearmsMarker(t *testing.T) {
	d := newDir(t)
	q := control.NewQueue(8)
	w := NewWatcher(d, q)

	d.Set(StartRecordingIn, "START")
	w.Scan()
	if got := q.Drain(); len(got) != 1 {
		t.Fatalf("first request produced %d signals, want 1", len(got))
	}

	// Raised again before any scan observed the removal.
	w.Consume(control.StartRecording)
	d.Set(StartRecordingIn, "START")
	w.Scan()
	got := q.Drain()
	if len(got) != 1 || got[0].Kind != control.StartRecording {
		t.Fatalf("second request signals = %v, want one start-recording", got)
	}

	w.Consume(control.StartRecording)
	if d.Exists(StartRecordingIn) {
		t.Error("second request marker left on disk")
	}
}

func TestScanOrdersStopFirst(t *testing.T) {
	d := newDir(t)
	q := control.NewQueue(8)
	w := NewWatcher(d, q)

	d.Set(CalibrationIn, "START")
	d.Set(StopSignal, "STOP")
	w.Scan()

	got := q.Drain()
	if len(got) != 2 || got[0].Kind != control.Stop || got[1].Kind != control.Calibrate {
		t.Errorf("signals = %v, want [stop calibrate]", got)
	}
}

func TestScanIgnoresOutgoingMarkers(t *testing.T) {
	d := newDir(t)
	q := control.NewQueue(8)
	w := NewWatcher(d, q)
	d.Announce(control.StartRecording)
	d.Announce(control.Calibrate)
	w.Scan()
	if got := q.Drain(); len(got) != 0 {
		t.Errorf("outgoing markers raised %v", got)
	}
}

func TestWatcherNotifies(t *testing.T) {
	d := newDir(t)
	q := control.NewQueue(8)
	w := NewWatcher(d, q)
	if err := w.Start(); err != nil {
		t.Skipf("filesystem notifications unavailable: %v", err)
	}
	defer w.Close()

	d.Set(CalibrationIn, "START")

	select {
	case s := <-q.C():
		if s.Kind != control.Calibrate {
			t.Errorf("signal = %v, want calibrate", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no signal from watcher")
	}
}
