package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenSource captures a single display via the platform screenshot API.
// The cursor shape is not part of the captured pixels; it is recorded
// separately and drawn back at composition time.
type ScreenSource struct {
	rect image.Rectangle
	mon  Monitor
}

func NewScreenSource(displayIndex int) (*ScreenSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("нет активных дисплеев для захвата")
	}
	if displayIndex < 0 || displayIndex >= n {
		displayIndex = 0
	}

	rect := screenshot.GetDisplayBounds(displayIndex)
	return &ScreenSource{
		rect: rect,
		mon: Monitor{
			Left:   rect.Min.X,
			Top:    rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
		},
	}, nil
}

func (s *ScreenSource) Grab() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(s.rect)
	if err != nil {
		// Временная недоступность (переключение режима дисплея и т.п.)
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	return img, nil
}

func (s *ScreenSource) Bounds() Monitor {
	return s.mon
}

func (s *ScreenSource) Close() error {
	return nil
}
