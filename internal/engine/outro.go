package engine

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/zoomcast/internal/system"
)

// buildOutro renders the optional end card: a QR code with the configured
// link, centered on the background color. Returns the frame and how many
// copies of it to append. Any QR failure just drops the outro, never the
// export.
func buildOutro(job ExportJob, fps int) (*image.RGBA, int) {
	if job.QRURL == "" {
		return nil, 0
	}
	seconds := job.QRSeconds
	if seconds <= 0 {
		seconds = 3
	}

	qr, err := qrcode.New(job.QRURL, qrcode.Medium)
	if err != nil {
		log.Printf("[!] Не удалось построить QR-код: %v", err)
		return nil, 0
	}

	w, h := job.Output.Width, job.Output.Height
	size := w / 3
	if h/3 < size {
		size = h / 3
	}

	bg := job.Output.Background
	canvas := system.GetImage(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(),
		image.NewUniform(color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}),
		image.Point{}, draw.Src)

	code := qr.Image(size)
	cb := code.Bounds()
	offset := image.Pt((w-cb.Dx())/2, (h-cb.Dy())/2)
	draw.Draw(canvas, cb.Add(offset), code, cb.Min, draw.Over)

	return canvas, int(seconds * float64(fps))
}
