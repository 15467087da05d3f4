package decoder

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/junsooki/dvsview/internal/encoder"
)

func TestJPEGRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 32, 16))
	gray := color.RGBA{0x70, 0x70, 0x70, 0xff}
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			src.SetRGBA(x, y, gray)
		}
	}

	data, err := encoder.NewJPEGEncoder(90).Encode(src)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	img, err := NewJPEGDecoder().Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if img.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", img.Bounds(), src.Bounds())
	}
	got := img.RGBAAt(10, 10)
	if d := int(got.R) - 0x70; d < -4 || d > 4 || got.A != 0xff {
		t.Errorf("pixel = %v, want close to %v", got, gray)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := NewJPEGDecoder().Decode([]byte("not a jpeg")); err == nil {
		t.Error("Decode() of garbage should fail")
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	if _, err := NewJPEGDecoder().Decode(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Decode(nil) = %v, want ErrEmptyPayload", err)
	}
}
