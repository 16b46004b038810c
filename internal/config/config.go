package config

import (
	"fmt"
	"strings"
)

type Config struct {
	OutputVideo  string
	ProjectPath  string
	TimelinePath string
	FPS          int
	MonitorIndex int
	Workers      int
	VideoEncoder string
	Quality      int
	AutoZoom     bool
	SmoothCursor bool
	QRURL        string
	QRSeconds    float64
	ShowStats    bool
	BuildVersion string
	Output       OutputConfig
}

type RGB struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

type OutputConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Padding      int     `yaml:"padding"`
	CornerRadius int     `yaml:"corners"`
	Shadow       bool    `yaml:"shadow"`
	ClickRipples bool    `yaml:"click_ripples"`
	CursorScale  float64 `yaml:"cursor_scale"`
	Background   RGB     `yaml:"background"`
	RippleLife   float64 `yaml:"ripple_life"`
}

// ParseHex parses a "#RRGGBB" color string.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("ожидается цвет в формате #RRGGBB, получено %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return RGB{}, fmt.Errorf("некорректный цвет %q: %v", s, err)
	}
	return RGB{R: r, G: g, B: b}, nil
}

func DefaultOutput(width, height int) OutputConfig {
	return OutputConfig{
		Width:        width,
		Height:       height,
		Padding:      40,
		CornerRadius: 18,
		Shadow:       true,
		ClickRipples: true,
		CursorScale:  1.0,
		Background:   RGB{R: 0x25, G: 0x25, B: 0x35},
		RippleLife:   0.65,
	}
}
