package renderer

import (
	"image"
	"image/color"
	"math"
)

// fillRGBA floods the image with one color.
func fillRGBA(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	row := make([]uint8, b.Dx()*4)
	for i := 0; i < len(row); i += 4 {
		row[i+0] = c.R
		row[i+1] = c.G
		row[i+2] = c.B
		row[i+3] = c.A
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		copy(img.Pix[off:off+len(row)], row)
	}
}

// roundedRectMask builds an opaque w×h mask with corners of the given
// radius cut out.
func roundedRectMask(w, h, radius int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r := float64(radius)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			// Расстояние до центра ближайшего углового круга
			var dx, dy float64
			switch {
			case x < radius && y < radius:
				dx, dy = r-float64(x), r-float64(y)
			case x >= w-radius && y < radius:
				dx, dy = float64(x)-(float64(w)-1-r), r-float64(y)
			case x < radius && y >= h-radius:
				dx, dy = r-float64(x), float64(y)-(float64(h)-1-r)
			case x >= w-radius && y >= h-radius:
				dx, dy = float64(x)-(float64(w)-1-r), float64(y)-(float64(h)-1-r)
			default:
				mask.SetAlpha(x, y, color.Alpha{A: a})
				continue
			}
			if dx > 0 && dy > 0 && dx*dx+dy*dy > r*r {
				a = 0
			}
			mask.SetAlpha(x, y, color.Alpha{A: a})
		}
	}
	return mask
}

// shadowFor builds the soft drop shadow placed beneath the recording
// area: a rounded rectangle offset inside a slightly larger mask, blurred
// with a wide Gaussian.
func shadowFor(w, h, radius int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w+2*shadowMargin, h+2*shadowMargin))
	inner := roundedRectMask(w, h, radius)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := inner.AlphaAt(x, y).A
			if a > 0 {
				mask.SetAlpha(x+shadowMargin, y+shadowMargin, color.Alpha{A: shadowAlpha})
			}
		}
	}
	return blurAlpha(mask, shadowSigma)
}

// blurAlpha applies a separable Gaussian blur to an alpha mask.
func blurAlpha(src *image.Alpha, sigma float64) *image.Alpha {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	kernel := blurKernel(sigma)
	radius := len(kernel) / 2

	tmp := image.NewAlpha(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, kv := range kernel {
				sx := x + k - radius
				if sx < 0 {
					sx = 0
				} else if sx >= w {
					sx = w - 1
				}
				sum += kv * float64(src.AlphaAt(sx, y).A)
			}
			tmp.SetAlpha(x, y, color.Alpha{A: uint8(sum + 0.5)})
		}
	}

	out := image.NewAlpha(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, kv := range kernel {
				sy := y + k - radius
				if sy < 0 {
					sy = 0
				} else if sy >= h {
					sy = h - 1
				}
				sum += kv * float64(tmp.AlphaAt(x, sy).A)
			}
			out.SetAlpha(x, y, color.Alpha{A: uint8(sum + 0.5)})
		}
	}
	return out
}

func blurKernel(sigma float64) []float64 {
	radius := int(math.Ceil(2 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// blendAlphaMask blends a solid color onto dst using mask values as
// per-pixel opacity. (offX, offY) positions the mask on dst.
func blendAlphaMask(dst *image.RGBA, mask *image.Alpha, offX, offY int, c color.RGBA) {
	mb := mask.Bounds()
	db := dst.Bounds()
	for y := mb.Min.Y; y < mb.Max.Y; y++ {
		dy := y + offY
		if dy < db.Min.Y || dy >= db.Max.Y {
			continue
		}
		for x := mb.Min.X; x < mb.Max.X; x++ {
			dx := x + offX
			if dx < db.Min.X || dx >= db.Max.X {
				continue
			}
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			blendPixel(dst, dx, dy, c, a)
		}
	}
}

func blendPixel(dst *image.RGBA, x, y int, c color.RGBA, alpha uint8) {
	off := dst.PixOffset(x, y)
	a := uint32(alpha)
	inv := 255 - a
	dst.Pix[off+0] = uint8((uint32(c.R)*a + uint32(dst.Pix[off+0])*inv) / 255)
	dst.Pix[off+1] = uint8((uint32(c.G)*a + uint32(dst.Pix[off+1])*inv) / 255)
	dst.Pix[off+2] = uint8((uint32(c.B)*a + uint32(dst.Pix[off+2])*inv) / 255)
	dst.Pix[off+3] = 255
}

// blendDisc draws a filled circle with uniform opacity.
func blendDisc(dst *image.RGBA, cx, cy, r int, c color.RGBA, alpha uint8) {
	if r <= 0 || alpha == 0 {
		return
	}
	b := dst.Bounds()
	rr := r * r
	for y := cy - r; y <= cy+r; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= rr {
				blendPixel(dst, x, y, c, alpha)
			}
		}
	}
}

// blendRing draws a circle outline of the given stroke width.
func blendRing(dst *image.RGBA, cx, cy, r, width int, c color.RGBA, alpha uint8) {
	if r <= 0 || alpha == 0 {
		return
	}
	b := dst.Bounds()
	outer := r * r
	in := r - width
	if in < 0 {
		in = 0
	}
	inner := in * in
	for y := cy - r; y <= cy+r; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			dx, dy := x-cx, y-cy
			d := dx*dx + dy*dy
			if d <= outer && d >= inner {
				blendPixel(dst, x, y, c, alpha)
			}
		}
	}
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// drawCursor paints the cursor marker: a soft white halo around a dark
// dot, scaled by the configured cursor size.
func drawCursor(dst *image.RGBA, x, y int, scale float64) {
	halo := int(8 * scale)
	dot := int(4 * scale)
	if dot < 2 {
		dot = 2
	}
	blendDisc(dst, x, y, halo, white, 70)
	blendDisc(dst, x, y, dot, color.RGBA{R: 20, G: 20, B: 20, A: 255}, 255)
	blendRing(dst, x, y, dot+1, 1, white, 220)
}

// drawRipple paints one click ripple at the given age: an expanding,
// fading ring plus a shrinking solid dot.
func drawRipple(dst *image.RGBA, x, y int, age float64) {
	r := int(12 + age*30)
	opacity := int(200 * math.Max(0, 1-age/0.6))
	if opacity < 5 {
		return
	}
	blendRing(dst, x, y, r, 2, white, uint8(opacity))

	r2 := int(6 * math.Max(0, 1-age*3))
	if r2 < 3 {
		r2 = 3
	}
	dotOpacity := opacity + 30
	if dotOpacity > 255 {
		dotOpacity = 255
	}
	blendDisc(dst, x, y, r2, white, uint8(dotOpacity))
}
