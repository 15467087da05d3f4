package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
)

// ErrEmptyFrame is returned for a frame with no pixels, such as the
// snapshot of an accumulator that has not been set up yet.
var ErrEmptyFrame = errors.New("encoder: empty frame")

// JPEGEncoder compresses event frames for the preview data channel. Event
// frames are mostly flat background, so the output is far smaller than the
// raw frame; the previous output size is used to size the next buffer.
type JPEGEncoder struct {
	quality int
	last    int
}

// NewJPEGEncoder creates a preview encoder with the given quality, clamped
// to 1-100.
func NewJPEGEncoder(quality int) *JPEGEncoder {
	return &JPEGEncoder{quality: min(max(quality, 1), 100)}
}

// Encode is called from a single preview goroutine.
func (e *JPEGEncoder) Encode(frame *image.RGBA) ([]byte, error) {
	if frame == nil || frame.Rect.Empty() {
		return nil, ErrEmptyFrame
	}
	var buf bytes.Buffer
	buf.Grow(e.last + e.last/4)
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, err
	}
	e.last = buf.Len()
	return buf.Bytes(), nil
}
