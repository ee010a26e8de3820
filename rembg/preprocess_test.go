package rembg

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTolerance = 2.0 / 255

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func TestPreprocess_Shape(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 7, 3))
	fill(img, img.Rect, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	got, err := Preprocess(img)
	require.NoError(t, err)
	assert.Equal(t, InputShape(), got.Shape)
	assert.Equal(t, int64(3*ModelInputSize*ModelInputSize), got.Len())
}

func TestPreprocess_SolidColor(t *testing.T) {
	t.Parallel()

	const size = 8
	img := image.NewNRGBA(image.Rect(0, 0, 5, 9))
	fill(img, img.Rect, color.NRGBA{R: 10, G: 128, B: 250, A: 255})

	got, err := preprocess(img, size)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3, size, size}, got.Shape)

	plane := size * size
	want := []float32{10.0/255 - 0.5, 128.0/255 - 0.5, 250.0/255 - 0.5}
	for c, w := range want {
		for i := 0; i < plane; i++ {
			require.InDelta(t, w, got.Data[c*plane+i], sampleTolerance, "channel %d index %d", c, i)
		}
	}
}

func TestPreprocess_Range(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	fill(img, image.Rect(0, 0, 8, 16), color.NRGBA{A: 255})
	fill(img, image.Rect(8, 0, 16, 16), color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	got, err := preprocess(img, 16)
	require.NoError(t, err)
	for _, v := range got.Data {
		assert.GreaterOrEqual(t, v, float32(-0.5))
		assert.LessOrEqual(t, v, float32(0.5))
	}
	assert.InDelta(t, -0.5, got.Data[0], sampleTolerance)
	assert.InDelta(t, 0.5, got.Data[15], sampleTolerance)
}

func TestPreprocess_ChannelAndRowOrder(t *testing.T) {
	t.Parallel()

	// Top half red, bottom half green on the left; blue column on the right.
	const size = 32
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fill(img, image.Rect(0, 0, size/2, size/2), color.NRGBA{R: 255, A: 255})
	fill(img, image.Rect(0, size/2, size/2, size), color.NRGBA{G: 255, A: 255})
	fill(img, image.Rect(size/2, 0, size, size), color.NRGBA{B: 255, A: 255})

	got, err := preprocess(img, size)
	require.NoError(t, err)

	plane := size * size
	at := func(c, x, y int) float32 { return got.Data[c*plane+y*size+x] }

	// top-left is red
	assert.InDelta(t, 0.5, at(0, 0, 0), sampleTolerance)
	assert.InDelta(t, -0.5, at(1, 0, 0), sampleTolerance)
	assert.InDelta(t, -0.5, at(2, 0, 0), sampleTolerance)
	// bottom-left is green
	assert.InDelta(t, -0.5, at(0, 0, size-1), sampleTolerance)
	assert.InDelta(t, 0.5, at(1, 0, size-1), sampleTolerance)
	// right column is blue
	assert.InDelta(t, 0.5, at(2, size-1, 0), sampleTolerance)
	assert.InDelta(t, 0.5, at(2, size-1, size-1), sampleTolerance)
	assert.InDelta(t, -0.5, at(0, size-1, 0), sampleTolerance)
}

func TestPreprocess_IgnoresAlpha(t *testing.T) {
	t.Parallel()

	opaque := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	fill(opaque, opaque.Rect, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	clear := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	fill(clear, clear.Rect, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	a, err := preprocess(opaque, 8)
	require.NoError(t, err)
	b, err := preprocess(clear, 8)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestPreprocess_SubImage(t *testing.T) {
	t.Parallel()

	base := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	fill(base, base.Rect, color.NRGBA{R: 255, A: 255})
	fill(base, image.Rect(4, 4, 8, 8), color.NRGBA{B: 255, A: 255})
	sub := base.SubImage(image.Rect(4, 4, 8, 8))

	got, err := preprocess(sub, 4)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		assert.InDelta(t, -0.5, got.Data[i], sampleTolerance)
		assert.InDelta(t, 0.5, got.Data[32+i], sampleTolerance)
	}
}
