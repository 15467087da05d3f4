package session

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/junsooki/dvsview/internal/control"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/marker"
)

type fakeDisplay struct {
	mu     sync.Mutex
	frames []*image.RGBA
	w, h   int
	keys   chan input.Key
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{keys: make(chan input.Key, 8)}
}

func (d *fakeDisplay) Show(frame *image.RGBA) {
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	d.mu.Unlock()
}

func (d *fakeDisplay) Resize(w, h int) {
	d.mu.Lock()
	d.w, d.h = w, h
	d.mu.Unlock()
}

func (d *fakeDisplay) PollKey(wait time.Duration) (input.Key, bool) {
	select {
	case k := <-d.keys:
		return k, true
	case <-time.After(wait):
		return "", false
	}
}

func (d *fakeDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

func (d *fakeDisplay) frame(i int) *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames[i]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// testEnv wires a fake display and a marker directory the way cmd/dvsview does.
func testEnv(t *testing.T) (Env, *fakeDisplay, *marker.Dir) {
	t.Helper()
	dir, err := marker.NewDir(filepath.Join(t.TempDir(), "temp"))
	if err != nil {
		t.Fatal(err)
	}
	q := control.NewQueue(0)
	disp := newFakeDisplay()
	return Env{
		Display:   disp,
		Queue:     q,
		Announcer: dir,
		Watcher:   marker.NewWatcher(dir, q),
		Markers:   dir,
	}, disp, dir
}

// run starts fn and returns a channel closed with its error.
func run(fn func(context.Context) error) (chan error, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()
	return done, cancel
}

func waitDone(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("session returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("session did not finish")
	}
}

func TestFinishAnnouncesOrClears(t *testing.T) {
	env, _, dir := testEnv(t)

	env.finish(control.Key)
	if !dir.Exists(marker.StopSignal) {
		t.Fatal("local stop should write the stop marker")
	}

	dir.Set(marker.StartRecordingIn, "START")
	env.finish(control.Marker)
	if dir.Exists(marker.StopSignal) || dir.Exists(marker.StartRecordingIn) {
		t.Error("external stop should clear the marker directory")
	}
}
