// Package hook feeds the global OS mouse hook into a track.Track. It is
// kept apart from package track so that export-only consumers of the
// resolver never link the cgo capture stack.
package hook

import (
	"context"
	"time"

	"github.com/go-vgo/robotgo"
	gohook "github.com/robotn/gohook"

	"github.com/ivlev/zoomcast/internal/track"
)

// Listen records global mouse activity into tr until ctx is cancelled:
// cursor positions are polled at sampleHz, clicks come from the OS-level
// mouse hook. clock maps the current moment to recording time in seconds;
// a negative value means "not recording right now" (for example, a pause)
// and the event is dropped. Blocks until the hook loop ends, so run it in
// its own goroutine.
func Listen(ctx context.Context, tr *track.Track, clock func() float64, sampleHz int) {
	if sampleHz <= 0 {
		sampleHz = 60
	}

	go func() {
		interval := time.Second / time.Duration(sampleHz)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				t := clock()
				if t >= 0 {
					x, y := robotgo.Location()
					tr.AddSample(track.CursorSample{Time: t, X: float64(x), Y: float64(y)})
				}
				time.Sleep(interval)
			}
		}
	}()

	gohook.Register(gohook.MouseDown, []string{}, func(e gohook.Event) {
		t := clock()
		if t < 0 {
			return
		}
		button := track.ButtonRight
		if e.Button == gohook.MouseMap["left"] || e.Button == 1 {
			button = track.ButtonLeft
		}
		tr.AddClick(track.ClickEvent{
			Time:   t,
			X:      float64(e.X),
			Y:      float64(e.Y),
			Button: button,
		})
	})

	evChan := gohook.Start()
	go func() {
		<-ctx.Done()
		gohook.End()
	}()
	<-gohook.Process(evChan)
}
