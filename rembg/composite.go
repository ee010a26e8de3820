package rembg

import "image"

// Composite copies the color channels of src unchanged and takes alpha from
// mask. No blending or premultiplication happens. Pixels outside the mask get
// alpha 0; the two are expected to have the same size. O(width*height).
func Composite(src image.Image, mask *image.Gray) *image.NRGBA {
	rgb := toNRGBA(src)
	w, h := rgb.Rect.Dx(), rgb.Rect.Dy()
	mw, mh := mask.Rect.Dx(), mask.Rect.Dy()

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := y * rgb.Stride
		di := y * out.Stride
		for x := 0; x < w; x++ {
			out.Pix[di] = rgb.Pix[si]
			out.Pix[di+1] = rgb.Pix[si+1]
			out.Pix[di+2] = rgb.Pix[si+2]
			if x < mw && y < mh {
				out.Pix[di+3] = mask.Pix[mask.PixOffset(mask.Rect.Min.X+x, mask.Rect.Min.Y+y)]
			}
			si += 4
			di += 4
		}
	}
	return out
}
