package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/timeline"
)

const Version = 1

// Project is the editable session state persisted between a recording and
// its export: where it was captured, the zoom segments and the output
// look. Frames themselves are not stored here.
type Project struct {
	Version  int                 `yaml:"version"`
	Session  string              `yaml:"session"`
	Created  time.Time           `yaml:"created"`
	FPS      int                 `yaml:"fps"`
	Duration float64             `yaml:"duration"`
	Monitor  capture.Monitor     `yaml:"monitor"`
	Segments []timeline.Segment  `yaml:"segments"`
	Output   config.OutputConfig `yaml:"output"`
}

// Timeline rebuilds the editable timeline from the stored segments.
// Invalid segments are dropped with an error, not silently kept.
func (p *Project) Timeline() (*timeline.Timeline, error) {
	tl := timeline.New(p.Duration)
	if err := tl.Load(p.Segments); err != nil {
		return nil, fmt.Errorf("сегменты проекта: %w", err)
	}
	return tl, nil
}

// Save writes the project as YAML, creating parent directories as needed.
func Save(path string, p *Project) error {
	if p.Version == 0 {
		p.Version = Version
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("сериализация проекта: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("запись проекта: %w", err)
	}
	return nil
}

// Load reads a project file written by Save.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение проекта: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("разбор проекта %s: %w", path, err)
	}
	if p.Version > Version {
		return nil, fmt.Errorf("проект версии %d новее поддерживаемой (%d)", p.Version, Version)
	}
	return &p, nil
}

// LoadSegments reads a standalone YAML list of zoom segments, for runs
// where the timeline is prepared by hand instead of auto-generated.
func LoadSegments(path string) ([]timeline.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение таймлайна: %w", err)
	}
	var segs []timeline.Segment
	if err := yaml.Unmarshal(data, &segs); err != nil {
		return nil, fmt.Errorf("разбор таймлайна %s: %w", path, err)
	}
	return segs, nil
}
