package display

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/junsooki/dvsview/internal/input"
)

func TestAspectFitTransform(t *testing.T) {
	tests := []struct {
		name                    string
		vw, vh, fw, fh          float64
		scale, offsetX, offsetY float64
	}{
		{"exact", 640, 480, 640, 480, 1, 0, 0},
		{"pillarbox", 1280, 480, 640, 480, 1, 320, 0},
		{"letterbox", 640, 960, 640, 480, 1, 0, 240},
		{"downscale", 320, 240, 640, 480, 0.5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ox, oy := aspectFitTransform(tt.vw, tt.vh, tt.fw, tt.fh)
			if math.Abs(s-tt.scale) > 1e-9 || math.Abs(ox-tt.offsetX) > 1e-9 || math.Abs(oy-tt.offsetY) > 1e-9 {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", s, ox, oy, tt.scale, tt.offsetX, tt.offsetY)
			}
		})
	}
}

func TestHeadless(t *testing.T) {
	h := NewHeadless()
	if _, ok := h.PollKey(0); ok {
		t.Error("PollKey() on empty display returned a key")
	}

	start := time.Now()
	if _, ok := h.PollKey(20 * time.Millisecond); ok {
		t.Error("PollKey() returned a key")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("PollKey() returned before the wait elapsed")
	}

	h.Press(input.KeySpace)
	if k, ok := h.PollKey(time.Second); !ok || k != input.KeySpace {
		t.Errorf("PollKey() = %q, %v, want space", k, ok)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	h.Show(img)
	h.Show(img)
	if h.Frames() != 2 || h.Last() != img {
		t.Errorf("Frames() = %d, Last() = %p", h.Frames(), h.Last())
	}
}
