package capture

import (
	"errors"
	"image"
)

// ErrNoFrame is returned by Grab when no frame is available right now.
// Callers should retry after a short backoff.
var ErrNoFrame = errors.New("no frame available")

// Monitor describes the captured display geometry in absolute screen
// coordinates. Cursor events arrive in the same coordinate space.
type Monitor struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Source interface {
	Grab() (*image.RGBA, error)
	Bounds() Monitor
	Close() error
}
