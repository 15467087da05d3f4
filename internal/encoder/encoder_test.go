package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xff})
		}
	}
	img.SetRGBA(3, 3, color.RGBA{R: 0xb4, G: 0xbc, B: 0xbf, A: 0xff})
	return img
}

func TestPNGIsLossless(t *testing.T) {
	src := testImage()
	data, err := NewPNGEncoder().Encode(src)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() failed: %v", err)
	}
	if img.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", img.Bounds(), src.Bounds())
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if uint8(r>>8) != 0xb4 || uint8(g>>8) != 0xbc || uint8(b>>8) != 0xbf {
		t.Errorf("pixel (3,3) = %x %x %x", r>>8, g>>8, b>>8)
	}
}

func TestJPEGQualityClamp(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {-5, 1}, {50, 50}, {101, 100},
	}
	for _, tt := range tests {
		if got := NewJPEGEncoder(tt.in).quality; got != tt.want {
			t.Errorf("NewJPEGEncoder(%d).quality = %d, want %d", tt.in, got, tt.want)
		}
	}

	data, err := NewJPEGEncoder(70).Encode(testImage())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() failed: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("decoded size = %dx%d, want 16x8", cfg.Width, cfg.Height)
	}
}

func TestJPEGEmptyFrame(t *testing.T) {
	e := NewJPEGEncoder(80)
	if _, err := e.Encode(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Encode(nil) = %v, want ErrEmptyFrame", err)
	}
	if _, err := e.Encode(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Encode(empty) = %v, want ErrEmptyFrame", err)
	}
	if e.last != 0 {
		t.Errorf("failed encodes changed size hint to %d", e.last)
	}
	data, err := e.Encode(testImage())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if e.last != len(data) {
		t.Errorf("size hint = %d, want %d", e.last, len(data))
	}
}
