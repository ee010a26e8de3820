package rembg

import (
	"context"
	"errors"
	"image"
)

// ModelInputSize is the side of the square image the segmentation model takes.
// Preprocess and Postprocess both depend on it; changing it requires another model.
const ModelInputSize = 1024

var (
	// ErrDecode is returned when the input bytes are not a decodable image.
	ErrDecode = errors.New("decode image")
	// ErrEncode is returned when the result cannot be encoded as PNG.
	ErrEncode = errors.New("encode image")
)

// Remover removes the background from an image.
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// InputShape is the model input layout: batch, channel, row, column.
func InputShape() []int64 {
	return []int64{1, 3, ModelInputSize, ModelInputSize}
}

// OutputShape is the model's single-channel mask layout.
func OutputShape() []int64 {
	return []int64{1, 1, ModelInputSize, ModelInputSize}
}
