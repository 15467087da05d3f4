package marker

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/junsooki/dvsview/internal/control"
)

// incoming maps request markers to the signal they raise.
var incoming = map[Name]control.Kind{
	StopSignal:       control.Stop,
	StartRecordingIn: control.StartRecording,
	StopRecordingIn:  control.StopRecording,
	CalibrationIn:    control.Calibrate,
}

// Watcher turns request markers into queued signals. A marker raises its
// signal once when it appears; it must disappear before it can fire again.
// Scan is meant to be called once per loop iteration; filesystem
// notifications only make delivery quicker.
type Watcher struct {
	dir   *Dir
	queue *control.Queue

	mu      sync.Mutex
	present map[Name]bool

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

func NewWatcher(dir *Dir, q *control.Queue) *Watcher {
	return &Watcher{
		dir:     dir,
		queue:   q,
		present: make(map[Name]bool),
		done:    make(chan struct{}),
	}
}

// Start begins watching the directory for changes. If notifications are
// unavailable the error is returned and Scan still works.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir.Path()); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw
	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if _, watched := incoming[Name(filepath.Base(ev.Name))]; !watched {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.Scan()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("marker watcher: %v", err)
		}
	}
}

// Scan checks every request marker and posts a signal for each one that
// appeared since the last scan.
func (w *Watcher) Scan() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, n := range scanOrder {
		exists := w.dir.Exists(n)
		if exists && !w.present[n] {
			w.queue.Post(control.Signal{Kind: incoming[n], Origin: control.Marker})
		}
		w.present[n] = exists
	}
}

// Consume removes the request marker for a handled signal so the helper can
// raise it again.
func (w *Watcher) Consume(k control.Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for n, kind := range incoming {
		if kind != k || n == StopSignal {
			continue
		}
		if err := w.dir.Remove(n); err != nil {
			log.Printf("consume marker: %v", err)
			continue
		}
		w.present[n] = false
	}
}

// Close stops the notification goroutine.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}

// Stop first so a quit request is handled before anything queued with it.
var scanOrder = []Name{StopSignal, StopRecordingIn, StartRecordingIn, CalibrationIn}
