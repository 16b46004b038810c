package renderer

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/timeline"
	"github.com/ivlev/zoomcast/internal/track"
)

var (
	red  = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	blue = color.RGBA{R: 30, G: 30, B: 200, A: 255}
)

// halfAndHalf builds a frame with a red left half and a blue right half.
func halfAndHalf(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	return img
}

// bareOutput disables every overlay and decoration so tests see raw
// crop/scale behavior.
func bareOutput(w, h int) config.OutputConfig {
	return config.OutputConfig{
		Width:       w,
		Height:      h,
		CursorScale: 0,
	}
}

var testMon = capture.Monitor{Left: 0, Top: 0, Width: 100, Height: 100}

func TestComposeFullFrame(t *testing.T) {
	comp := NewCompositor(bareOutput(100, 100), testMon)
	frame := halfAndHalf(100, 100)

	out := comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if got := out.Bounds(); got.Dx() != 100 || got.Dy() != 100 {
		t.Fatalf("Output size: expected 100x100, got %dx%d", got.Dx(), got.Dy())
	}
	if c := out.RGBAAt(10, 50); c != red {
		t.Errorf("Left half should stay red, got %v", c)
	}
	if c := out.RGBAAt(90, 50); c != blue {
		t.Errorf("Right half should stay blue, got %v", c)
	}
}

func TestComposeFullFrameResize(t *testing.T) {
	// Neutral zoom into an output smaller than the capture must be exactly
	// one Catmull-Rom resample of the whole frame, nothing else.
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 2), B: 100, A: 255})
		}
	}

	comp := NewCompositor(bareOutput(60, 80), testMon)
	out := comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if got := out.Bounds(); got.Dx() != 60 || got.Dy() != 80 {
		t.Fatalf("Output size: expected 60x80, got %dx%d", got.Dx(), got.Dy())
	}

	want := image.NewRGBA(image.Rect(0, 0, 60, 80))
	xdraw.CatmullRom.Scale(want, want.Bounds(), frame, frame.Bounds(), xdraw.Src, nil)
	if !bytes.Equal(out.Pix, want.Pix) {
		t.Error("Resized full frame must match a direct Catmull-Rom rescale")
	}
}

func TestComposeZoomCrop(t *testing.T) {
	frame := halfAndHalf(100, 100)
	comp := NewCompositor(bareOutput(100, 100), testMon)

	// Factor 2 at cx=0.25 crops [0,50): all red
	out := comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 2.0, CX: 0.25, CY: 0.5})
	if c := out.RGBAAt(95, 50); c != red {
		t.Errorf("Left-quarter zoom should be all red, got %v at right edge", c)
	}

	// Factor 2 at cx=0.75 crops [50,100): all blue
	out = comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 2.0, CX: 0.75, CY: 0.5})
	if c := out.RGBAAt(5, 50); c != blue {
		t.Errorf("Right-quarter zoom should be all blue, got %v at left edge", c)
	}
}

func TestComposeZoomEdgeClamp(t *testing.T) {
	frame := halfAndHalf(100, 100)
	comp := NewCompositor(bareOutput(100, 100), testMon)

	// Centre at the far right edge: the crop must shift inside the frame,
	// never shrink, so the result is the rightmost 50px (all blue)
	out := comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 2.0, CX: 1.0, CY: 0.5})
	if c := out.RGBAAt(5, 50); c != blue {
		t.Errorf("Edge-clamped zoom should show the right half, got %v", c)
	}
	if c := out.RGBAAt(95, 50); c != blue {
		t.Errorf("Edge-clamped zoom should show the right half, got %v", c)
	}
}

func TestComposeDeterministic(t *testing.T) {
	frame := halfAndHalf(100, 100)
	out := config.DefaultOutput(120, 120)
	comp := NewCompositor(out, testMon)

	samples := []track.CursorSample{{Time: 0.5, X: 40, Y: 40}}
	clicks := []track.ClickEvent{{Time: 0.4, X: 40, Y: 40, Button: track.ButtonLeft}}
	zoom := timeline.State{Factor: 1.8, CX: 0.4, CY: 0.4}

	a := comp.Compose(frame, 0.5, samples, clicks, zoom)
	b := comp.Compose(frame, 0.5, samples, clicks, zoom)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("Identical inputs must produce identical pixels")
	}
}

func TestComposePaddedCanvas(t *testing.T) {
	out := config.OutputConfig{
		Width:      200,
		Height:     200,
		Padding:    40,
		Background: config.RGB{R: 10, G: 20, B: 30},
	}
	comp := NewCompositor(out, testMon)
	frame := halfAndHalf(100, 100)

	res := comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	bg := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	if c := res.RGBAAt(5, 5); c != bg {
		t.Errorf("Padding area should be background, got %v", c)
	}
	if c := res.RGBAAt(100, 100); c == bg {
		t.Error("Recording area should not be background")
	}
}

func TestComposeRoundedCorners(t *testing.T) {
	out := config.OutputConfig{
		Width:        200,
		Height:       200,
		Padding:      40,
		CornerRadius: 18,
		Background:   config.RGB{R: 10, G: 20, B: 30},
	}
	comp := NewCompositor(out, testMon)
	frame := halfAndHalf(100, 100)

	res := comp.Compose(frame, 0, nil, nil, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	bg := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	// The very corner of the recording area is masked out
	if c := res.RGBAAt(41, 41); c != bg {
		t.Errorf("Rounded corner should show background, got %v", c)
	}
	// The middle of the top edge is frame content
	if c := res.RGBAAt(100, 41); c == bg {
		t.Error("Top edge centre should be frame content")
	}
}

func TestComposeCursorOverlay(t *testing.T) {
	out := bareOutput(100, 100)
	out.CursorScale = 1.0
	comp := NewCompositor(out, testMon)
	frame := halfAndHalf(100, 100)

	samples := []track.CursorSample{{Time: 1.0, X: 30, Y: 50}}
	res := comp.Compose(frame, 1.0, samples, nil, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})

	c := res.RGBAAt(30, 50)
	if c == red {
		t.Errorf("Cursor dot should be drawn at the sample position, got %v", c)
	}
	if c.R > 60 || c.G > 60 || c.B > 60 {
		t.Errorf("Cursor centre should be dark, got %v", c)
	}
}

func TestComposeNoCursorWithoutSamples(t *testing.T) {
	out := bareOutput(100, 100)
	out.CursorScale = 1.0
	comp := NewCompositor(out, testMon)
	frame := halfAndHalf(100, 100)

	// No samples: the frame must render without any overlay, not fail
	res := comp.Compose(frame, 1.0, nil, nil, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if c := res.RGBAAt(30, 50); c != red {
		t.Errorf("Frame should be untouched without cursor data, got %v", c)
	}
}

func TestComposeCursorMappedThroughZoom(t *testing.T) {
	out := bareOutput(100, 100)
	out.CursorScale = 1.0
	comp := NewCompositor(out, testMon)
	frame := halfAndHalf(100, 100)

	// Zoom factor 2 at cx=0.25: crop origin (0, 25), crop size 50.
	// Cursor at screen (25, 50) maps to output (50, 50).
	samples := []track.CursorSample{{Time: 1.0, X: 25, Y: 50}}
	res := comp.Compose(frame, 1.0, samples, nil, timeline.State{Factor: 2.0, CX: 0.25, CY: 0.5})

	c := res.RGBAAt(50, 50)
	if c.R > 60 || c.G > 60 || c.B > 60 {
		t.Errorf("Expected dark cursor centre at the remapped position, got %v", c)
	}
}

func TestComposeRippleLifetime(t *testing.T) {
	out := bareOutput(100, 100)
	out.ClickRipples = true
	out.RippleLife = 0.65
	comp := NewCompositor(out, testMon)

	click := []track.ClickEvent{{Time: 1.0, X: 70, Y: 50, Button: track.ButtonLeft}}

	// Fresh click: inner dot paints the click position white-ish
	frame := halfAndHalf(100, 100)
	res := comp.Compose(frame, 1.0, nil, click, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if c := res.RGBAAt(70, 50); c == blue {
		t.Error("Fresh ripple should overlay the click position")
	}

	// Expired click: nothing is drawn
	res = comp.Compose(frame, 1.0+0.7, nil, click, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if c := res.RGBAAt(70, 50); c != blue {
		t.Errorf("Expired ripple must not be drawn, got %v", c)
	}

	// Click in the future relative to t: not drawn either
	res = comp.Compose(frame, 0.5, nil, click, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if c := res.RGBAAt(70, 50); c != blue {
		t.Errorf("Future click must not be drawn, got %v", c)
	}
}

func TestComposeRippleFadesOut(t *testing.T) {
	out := bareOutput(100, 100)
	out.ClickRipples = true
	out.RippleLife = 0.65
	comp := NewCompositor(out, testMon)
	frame := halfAndHalf(100, 100)
	click := []track.ClickEvent{{Time: 0.0, X: 70, Y: 50, Button: track.ButtonLeft}}

	// Past age 0.6 the ring opacity formula drops below the cutoff
	res := comp.Compose(frame, 0.62, nil, click, timeline.State{Factor: 1.0, CX: 0.5, CY: 0.5})
	if c := res.RGBAAt(70, 50); c != blue {
		t.Errorf("Almost-dead ripple must be skipped, got %v", c)
	}
}
