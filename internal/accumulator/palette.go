package accumulator

import "image/color"

// Palette holds the colors used to paint events.
type Palette struct {
	Background color.RGBA
	On         color.RGBA
	Off        color.RGBA
}

// DefaultPalette is the gray scheme: mid gray background, light gray for
// positive polarity, dark slate for negative.
var DefaultPalette = Palette{
	Background: color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xff},
	On:         color.RGBA{R: 0xb4, G: 0xbc, B: 0xbf, A: 0xff},
	Off:        color.RGBA{R: 0x33, G: 0x3d, B: 0x40, A: 0xff},
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithPalette overrides the default colors.
func WithPalette(p Palette) Option {
	return func(a *Accumulator) {
		p.Background.A, p.On.A, p.Off.A = 0xff, 0xff, 0xff
		a.palette = p
	}
}
