package rembg

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultCropThreshold treats pixels with alpha above 80% as subject.
const DefaultCropThreshold uint8 = 204

// SubjectBounds returns the smallest rectangle holding every pixel whose
// alpha is above threshold. ok is false when there is no such pixel.
func SubjectBounds(img *image.NRGBA, threshold uint8) (r image.Rectangle, ok bool) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	minX, minY := w, h
	maxX, maxY := -1, -1

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[row+x*4+3] <= threshold {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1).Add(img.Rect.Min), true
}

// CropToSubject trims transparent margins around the subject. With square
// set, the crop is the square around the subject's center whose side is the
// subject's longest edge, clipped to the image. An image with no subject is
// returned unchanged.
func CropToSubject(img *image.NRGBA, threshold uint8, square bool) *image.NRGBA {
	bbox, ok := SubjectBounds(img, threshold)
	if !ok {
		return img
	}
	if square {
		cx := (bbox.Min.X + bbox.Max.X) / 2
		cy := (bbox.Min.Y + bbox.Max.Y) / 2
		half := max(bbox.Dx(), bbox.Dy()) / 2
		bbox = image.Rect(cx-half, cy-half, cx+half, cy+half).Union(bbox).Intersect(img.Rect)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bbox.Min, draw.Src)
	return dst
}
