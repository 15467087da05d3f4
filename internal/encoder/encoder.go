package encoder

import "image"

// Encoder encodes a frame into bytes.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
}
