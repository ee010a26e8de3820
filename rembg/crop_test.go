package rembg

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectBounds(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 10, 8))
	fill(img, image.Rect(2, 3, 5, 7), color.NRGBA{R: 9, A: 255})
	img.SetNRGBA(8, 0, color.NRGBA{A: 100})

	got, ok := SubjectBounds(img, DefaultCropThreshold)
	assert.True(t, ok)
	assert.Equal(t, image.Rect(2, 3, 5, 7), got)

	got, ok = SubjectBounds(img, 50)
	assert.True(t, ok)
	assert.Equal(t, image.Rect(2, 0, 9, 7), got)

	_, ok = SubjectBounds(image.NewNRGBA(image.Rect(0, 0, 3, 3)), 0)
	assert.False(t, ok)
}

func TestCropToSubject(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	fill(img, image.Rect(4, 6, 8, 14), color.NRGBA{G: 200, A: 255})

	tight := CropToSubject(img, DefaultCropThreshold, false)
	assert.Equal(t, image.Rect(0, 0, 4, 8), tight.Rect)
	assert.Equal(t, color.NRGBA{G: 200, A: 255}, tight.NRGBAAt(0, 0))

	sq := CropToSubject(img, DefaultCropThreshold, true)
	assert.Equal(t, sq.Rect.Dx(), sq.Rect.Dy())
	assert.Equal(t, 8, sq.Rect.Dx())

	empty := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, empty, CropToSubject(empty, 0, true))
}

func TestCropToSubject_SquareClippedToImage(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 12, 4))
	fill(img, image.Rect(0, 0, 12, 2), color.NRGBA{A: 255})

	got := CropToSubject(img, 0, true)
	assert.Equal(t, image.Rect(0, 0, 12, 4), got.Rect)
}
