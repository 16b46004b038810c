package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/system"
	"github.com/ivlev/zoomcast/internal/timeline"
	"github.com/ivlev/zoomcast/internal/track"
)

const (
	// Zoom factors this close to 1.0 are rendered as the full frame
	zoomEpsilon = 1.001

	shadowMargin = 10
	shadowAlpha  = 80
	shadowSigma  = 12
)

// cropRect is the zoom crop region in source-frame pixels. Kept in floats:
// the same rectangle drives both the pixel crop and the overlay coordinate
// remapping, so both see identical geometry.
type cropRect struct {
	x, y, w, h float64
}

// Compositor turns one raw captured frame plus a moment on the timeline
// into one output frame: zoom crop, high-quality rescale, padded canvas
// with rounded corners and drop shadow, cursor and click-ripple overlays.
// Compose is deterministic and safe to call from many goroutines at once;
// all mutable state lives in the per-call images.
type Compositor struct {
	out config.OutputConfig
	mon capture.Monitor
	bg  color.RGBA

	recW, recH int
	pad        int

	cornerMask *image.Alpha
	shadowMask *image.Alpha
}

func NewCompositor(out config.OutputConfig, mon capture.Monitor) *Compositor {
	c := &Compositor{
		out: out,
		mon: mon,
		bg:  color.RGBA{R: out.Background.R, G: out.Background.G, B: out.Background.B, A: 255},
		pad: out.Padding,
	}
	if c.pad < 0 {
		c.pad = 0
	}
	c.recW = out.Width - 2*c.pad
	c.recH = out.Height - 2*c.pad
	if c.recW <= 0 || c.recH <= 0 {
		c.pad = 0
		c.recW, c.recH = out.Width, out.Height
	}

	// Маска скруглений и тень не зависят от кадра, считаем один раз
	if out.CornerRadius > 0 {
		c.cornerMask = roundedRectMask(c.recW, c.recH, out.CornerRadius)
	}
	if out.Shadow && c.pad > 0 {
		c.shadowMask = shadowFor(c.recW, c.recH, out.CornerRadius)
	}
	return c
}

// Compose renders the output frame for time t. samples and clicks are the
// full recorded event track, zoom is the already-evaluated timeline state.
// The returned image comes from the shared buffer pool; hand it back with
// system.PutImage once it has been written out.
func (c *Compositor) Compose(frame *image.RGBA, t float64, samples []track.CursorSample, clicks []track.ClickEvent, zoom timeline.State) *image.RGBA {
	fb := frame.Bounds()
	fw, fh := fb.Dx(), fb.Dy()

	zoomed := zoom.Factor > zoomEpsilon
	crop := cropRect{x: 0, y: 0, w: float64(fw), h: float64(fh)}
	if zoomed {
		crop.w = float64(fw) / zoom.Factor
		crop.h = float64(fh) / zoom.Factor
		// Центр зума в пикселях кадра; прямоугольник сдвигается,
		// но никогда не сжимается у краёв
		px := zoom.CX * float64(fw)
		py := zoom.CY * float64(fh)
		crop.x = clampF(px-crop.w/2, 0, float64(fw)-crop.w)
		crop.y = clampF(py-crop.h/2, 0, float64(fh)-crop.h)
	}

	scaled := system.GetImage(image.Rect(0, 0, c.recW, c.recH))
	srcRect := image.Rect(
		fb.Min.X+int(crop.x),
		fb.Min.Y+int(crop.y),
		fb.Min.X+int(crop.x)+int(crop.w),
		fb.Min.Y+int(crop.y)+int(crop.h),
	)
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), frame, srcRect, draw.Src, nil)

	canvas := system.GetImage(image.Rect(0, 0, c.out.Width, c.out.Height))
	if c.pad > 0 {
		fillRGBA(canvas, c.bg)
		if c.shadowMask != nil {
			blendAlphaMask(canvas, c.shadowMask, c.pad-shadowMargin, c.pad-shadowMargin, color.RGBA{A: 255})
		}
	} else if c.cornerMask != nil {
		// Без отступов углы открывают чёрный фон
		fillRGBA(canvas, color.RGBA{A: 255})
	}

	dst := image.Rect(c.pad, c.pad, c.pad+c.recW, c.pad+c.recH)
	if c.cornerMask != nil {
		draw.DrawMask(canvas, dst, scaled, image.Point{}, c.cornerMask, image.Point{}, draw.Over)
	} else {
		draw.Draw(canvas, dst, scaled, image.Point{}, draw.Src)
	}
	system.PutImage(scaled)

	if x, y, ok := track.PositionAt(samples, t); ok && c.out.CursorScale > 0 {
		ox, oy := c.mapToOutput(x, y, zoomed, crop, fw, fh)
		drawCursor(canvas, ox, oy, c.out.CursorScale)
	}

	if c.out.ClickRipples {
		life := c.out.RippleLife
		if life <= 0 {
			life = 0.65
		}
		for _, click := range clicks {
			age := t - click.Time
			if age < 0 || age >= life {
				continue
			}
			ox, oy := c.mapToOutput(click.X, click.Y, zoomed, crop, fw, fh)
			drawRipple(canvas, ox, oy, age)
		}
	}

	return canvas
}

// mapToOutput converts an absolute screen coordinate to canvas pixels:
// through the zoom crop when zoomed, by plain scaling otherwise.
func (c *Compositor) mapToOutput(x, y float64, zoomed bool, crop cropRect, fw, fh int) (int, int) {
	rawX := x - float64(c.mon.Left)
	rawY := y - float64(c.mon.Top)

	var ox, oy int
	if zoomed {
		ox = int((rawX-crop.x)/crop.w*float64(c.recW)) + c.pad
		oy = int((rawY-crop.y)/crop.h*float64(c.recH)) + c.pad
	} else {
		ox = int(rawX/float64(fw)*float64(c.recW)) + c.pad
		oy = int(rawY/float64(fh)*float64(c.recH)) + c.pad
	}
	return clampI(ox, 0, c.out.Width-1), clampI(oy, 0, c.out.Height-1)
}

func clampF(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
