// Package snapshot writes frames to disk under date-stamped names.
package snapshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/junsooki/dvsview/internal/encoder"
)

// Saver numbers and writes images into one directory. Counting starts at 1
// for each Saver, matching the numbering the helper scripts expect.
type Saver struct {
	dir string
	enc encoder.Encoder
	ext string
	now func() time.Time

	mu    sync.Mutex
	count int
}

// NewSaver creates dir if needed and saves PNG files into it.
func NewSaver(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &Saver{dir: dir, enc: encoder.NewPNGEncoder(), ext: ".png", now: time.Now}, nil
}

// Save writes <YYYYMMDD>_<n>.png.
func (s *Saver) Save(img *image.RGBA) (string, error) {
	n := s.next()
	name := fmt.Sprintf("%s_%d%s", s.now().Format("20060102"), n, s.ext)
	return s.write(name, img)
}

// SaveAt writes <YYYYMMDD>_<ts>_<n>.png for a frame taken at a recording timestamp.
func (s *Saver) SaveAt(img *image.RGBA, ts int64) (string, error) {
	n := s.next()
	name := fmt.Sprintf("%s_%d_%d%s", s.now().Format("20060102"), ts, n, s.ext)
	return s.write(name, img)
}

// Count returns how many images were saved.
func (s *Saver) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Saver) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return s.count
}

// write goes through a temp file so watchers never read a partial image.
func (s *Saver) write(name string, img *image.RGBA) (string, error) {
	data, err := s.enc.Encode(img)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}
