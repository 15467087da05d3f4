package decoder

import "image"

// Decoder decodes a preview frame received from the host.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
