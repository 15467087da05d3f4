// Package marker implements the marker-file protocol shared with helper
// scripts: the mere presence of a well-known file in a directory is a signal.
package marker

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/junsooki/dvsview/internal/control"
)

// Name is a marker file name.
type Name string

const (
	StopSignal Name = "stop_signal.txt"

	// Written by us when we act on a local request.
	StartRecordingOut Name = "src.txt"
	StopRecordingOut  Name = "ssc.txt"
	CalibrationOut    Name = "calic.txt"

	// Written by helper processes to request an action.
	StartRecordingIn Name = "sry.txt"
	StopRecordingIn  Name = "ssy.txt"
	CalibrationIn    Name = "caliy.txt"
)

// Dir is a marker directory.
type Dir struct {
	path string
}

// NewDir creates the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("marker dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) file(n Name) string {
	return filepath.Join(d.path, string(n))
}

// Exists reports whether the marker is present. I/O errors are logged and
// read as absent.
func (d *Dir) Exists(n Name) bool {
	_, err := os.Stat(d.file(n))
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		log.Printf("check marker %s: %v", n, err)
	}
	return false
}

// Set creates the marker with a short body.
func (d *Dir) Set(n Name, body string) error {
	if err := os.WriteFile(d.file(n), []byte(body), 0644); err != nil {
		return fmt.Errorf("set marker %s: %w", n, err)
	}
	return nil
}

// Remove deletes the marker; a missing marker is not an error.
func (d *Dir) Remove(n Name) error {
	err := os.Remove(d.file(n))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove marker %s: %w", n, err)
	}
	return nil
}

// Clear removes every entry in the directory. Used between sessions.
func (d *Dir) Clear() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("clear markers: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(d.path, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Announce writes the outgoing marker for an action taken on a local request.
func (d *Dir) Announce(k control.Kind) error {
	switch k {
	case control.Stop:
		return d.Set(StopSignal, "STOP")
	case control.StartRecording:
		return d.Set(StartRecordingOut, "START")
	case control.StopRecording:
		return d.Set(StopRecordingOut, "STOP")
	case control.Calibrate:
		return d.Set(CalibrationOut, "START")
	}
	return nil
}
