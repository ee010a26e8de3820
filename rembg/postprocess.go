package rembg

import (
	"fmt"
	"image"
	"math"

	"github.com/nfnt/resize"

	"github.com/chaos-io/rembg/inference"
)

// Postprocess converts the raw model output into an alpha mask of
// width x height. Only the first S*S values are read.
func Postprocess(raw *inference.Tensor, width, height int) (*image.Gray, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil mask tensor", inference.ErrOutputMissing)
	}

	mask, err := NormalizeMask(raw.Data, ModelInputSize, ModelInputSize)
	if err != nil {
		return nil, err
	}
	return resizeMask(mask, width, height), nil
}

// NormalizeMask min-max rescales the first width*height values into an 8-bit
// image: round((v-min)/(max-min)*255). A flat input yields an all-zero mask.
// O(width*height).
func NormalizeMask(values []float32, width, height int) (*image.Gray, error) {
	n := width * height
	if n <= 0 {
		return nil, fmt.Errorf("%w: mask size %dx%d", inference.ErrInference, width, height)
	}
	if len(values) < n {
		return nil, fmt.Errorf("%w: mask has %d values, need %d", inference.ErrInference, len(values), n)
	}
	values = values[:n]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	if !(hi > lo) {
		return out, nil
	}

	span := hi - lo
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		out.Pix[i] = uint8(math.Round((f - lo) / span * 255))
	}
	return out, nil
}

func resizeMask(mask *image.Gray, width, height int) *image.Gray {
	return toGray(resize.Resize(uint(width), uint(height), mask, resize.Lanczos3))
}
