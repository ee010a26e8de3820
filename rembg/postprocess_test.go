package rembg

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/rembg/inference"
)

func TestNormalizeMask(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	tests := []struct {
		name    string
		values  []float32
		w, h    int
		want    []uint8
		wantErr error
	}{
		{name: "linear", values: []float32{10, 20, 30, 40}, w: 2, h: 2, want: []uint8{0, 85, 170, 255}},
		{name: "negative range", values: []float32{-1, 0, 1, 0}, w: 2, h: 2, want: []uint8{0, 128, 255, 128}},
		{name: "flat", values: []float32{0.3, 0.3, 0.3, 0.3}, w: 2, h: 2, want: []uint8{0, 0, 0, 0}},
		{name: "extra values ignored", values: []float32{0, 1, 100}, w: 2, h: 1, want: []uint8{0, 255}},
		{name: "nan skipped", values: []float32{0, nan, 2}, w: 3, h: 1, want: []uint8{0, 0, 255}},
		{name: "too short", values: []float32{1, 2, 3}, w: 2, h: 2, wantErr: inference.ErrInference},
		{name: "empty size", values: []float32{1}, w: 0, h: 1, wantErr: inference.ErrInference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeMask(tt.values, tt.w, tt.h)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, tt.w, tt.h), got.Rect)
			assert.Equal(t, tt.want, got.Pix)
		})
	}
}

func quadrantMask(size int) []float32 {
	data := make([]float32, size*size)
	for y := 0; y < size/2; y++ {
		for x := 0; x < size/2; x++ {
			data[y*size+x] = 1
		}
	}
	return data
}

func TestPostprocess_ResizesToSource(t *testing.T) {
	t.Parallel()

	raw, err := inference.NewTensor(OutputShape(), quadrantMask(ModelInputSize))
	require.NoError(t, err)

	mask, err := Postprocess(raw, 4, 4)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 4), mask.Rect)

	minIn, maxOut := uint8(255), uint8(0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := mask.GrayAt(x, y).Y
			if x < 2 && y < 2 {
				minIn = min(minIn, v)
			} else {
				maxOut = max(maxOut, v)
			}
		}
	}
	assert.Greater(t, minIn, maxOut)
	assert.Greater(t, minIn, uint8(128))
	assert.Less(t, maxOut, uint8(128))
}

func TestPostprocess_NonSquareTarget(t *testing.T) {
	t.Parallel()

	data := make([]float32, ModelInputSize*ModelInputSize)
	for i := range data {
		data[i] = 0.25
	}
	raw, err := inference.NewTensor(OutputShape(), data)
	require.NoError(t, err)

	mask, err := Postprocess(raw, 13, 5)
	require.NoError(t, err)
	assert.Equal(t, 13, mask.Rect.Dx())
	assert.Equal(t, 5, mask.Rect.Dy())
	for _, v := range mask.Pix {
		assert.Zero(t, v)
	}
}

func TestPostprocess_Errors(t *testing.T) {
	t.Parallel()

	_, err := Postprocess(nil, 4, 4)
	assert.ErrorIs(t, err, inference.ErrOutputMissing)

	short, err := inference.NewTensor([]int64{1, 4}, []float32{0, 1, 2, 3})
	require.NoError(t, err)
	_, err = Postprocess(short, 4, 4)
	assert.ErrorIs(t, err, inference.ErrInference)
}
