package rembg

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/chaos-io/rembg/inference"
)

// Per-channel normalization applied after scaling samples to [0, 1].
// The result lies in [-0.5, 0.5], which is what the model weights were
// exported against.
const (
	normMean = 0.5
	normStd  = 1.0
)

// Preprocess turns img into the model input tensor [1, 3, S, S].
//
// The image is stretched (never cropped) to SxS with Lanczos3, alpha is
// dropped, each 8-bit sample p becomes ((p/255) - 0.5) / 1.0, and the planes
// are laid out channel-first in R, G, B order.
func Preprocess(img image.Image) (*inference.Tensor, error) {
	return preprocess(img, ModelInputSize)
}

func preprocess(img image.Image, size int) (*inference.Tensor, error) {
	resized := toRGBA(resize.Resize(uint(size), uint(size), toOpaqueRGBA(img), resize.Lanczos3))

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := y * resized.Stride
		for x := 0; x < size; x++ {
			i := row + x*4
			p := y*size + x
			data[p] = normalizeSample(resized.Pix[i])
			data[plane+p] = normalizeSample(resized.Pix[i+1])
			data[2*plane+p] = normalizeSample(resized.Pix[i+2])
		}
	}

	return inference.NewTensor([]int64{1, 3, int64(size), int64(size)}, data)
}

func normalizeSample(p uint8) float32 {
	return (float32(p)/255 - normMean) / normStd
}
