package timeline

import (
	"errors"
	"fmt"
	"sort"
)

// TransitionSecs is the fixed ramp in/out duration around every segment.
const TransitionSecs = 0.35

// MinSpan is the smallest segment length the editor may produce.
const MinSpan = 0.1

const defaultColor = "#3B82F6"

var ErrInvalidSegment = errors.New("invalid zoom segment")

// Segment is one zoom interval on the timeline. CX/CY are the zoom centre
// as a fraction of the frame, Factor is the fully ramped magnification.
type Segment struct {
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	CX     float64 `yaml:"cx"`
	CY     float64 `yaml:"cy"`
	Factor float64 `yaml:"factor"`
	Color  string  `yaml:"color,omitempty"`
	Label  string  `yaml:"label,omitempty"`
}

// State is the evaluated zoom at one instant. Factor 1.0 means the full
// frame, centred.
type State struct {
	Factor float64
	CX     float64
	CY     float64
}

// Timeline holds the zoom segments of a recording, kept sorted by Start.
// Overlap between segments is not rejected; evaluation resolves it with
// first-match-wins (see Evaluate).
type Timeline struct {
	Duration float64
	segments []Segment
}

func New(duration float64) *Timeline {
	if duration <= 0 {
		duration = 1.0
	}
	return &Timeline{Duration: duration}
}

func (tl *Timeline) Segments() []Segment {
	out := make([]Segment, len(tl.segments))
	copy(out, tl.segments)
	return out
}

func (tl *Timeline) Len() int {
	return len(tl.segments)
}

// Add validates and inserts a segment. Times are clamped to the recording;
// anything that cannot be repaired by clamping is rejected and never stored.
func (tl *Timeline) Add(seg Segment) error {
	if seg.Start >= seg.End {
		return fmt.Errorf("%w: start %.3f >= end %.3f", ErrInvalidSegment, seg.Start, seg.End)
	}
	if seg.CX < 0 || seg.CX > 1 || seg.CY < 0 || seg.CY > 1 {
		return fmt.Errorf("%w: центр (%.3f, %.3f) вне диапазона [0,1]", ErrInvalidSegment, seg.CX, seg.CY)
	}
	if seg.Factor <= 1.0 {
		return fmt.Errorf("%w: factor %.3f должен быть > 1.0", ErrInvalidSegment, seg.Factor)
	}

	seg.Start = clamp(seg.Start, 0, tl.Duration)
	seg.End = clamp(seg.End, 0, tl.Duration)
	if seg.End-seg.Start < MinSpan {
		return fmt.Errorf("%w: сегмент короче %.1fs после обрезки", ErrInvalidSegment, MinSpan)
	}
	if seg.Color == "" {
		seg.Color = defaultColor
	}

	tl.segments = append(tl.segments, seg)
	tl.sortSegments()
	return nil
}

// AddAt creates a default segment starting at the playhead: 3 seconds (or
// whatever fits), centred, factor 2.2. Near the end of the recording the
// start is pulled back so the segment still has a usable span.
func (tl *Timeline) AddAt(t float64) (Segment, error) {
	t = clamp(t, 0, tl.Duration)
	span := 3.0
	if span > tl.Duration-t {
		span = tl.Duration - t
	}
	if span < 0.2 {
		t = clamp(tl.Duration-3.0, 0, tl.Duration)
		span = 3.0
		if span > tl.Duration {
			span = tl.Duration
		}
	}
	seg := Segment{Start: t, End: t + span, CX: 0.5, CY: 0.5, Factor: 2.2, Color: defaultColor}
	if err := tl.Add(seg); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

func (tl *Timeline) Remove(i int) error {
	if i < 0 || i >= len(tl.segments) {
		return fmt.Errorf("сегмент %d не существует", i)
	}
	tl.segments = append(tl.segments[:i], tl.segments[i+1:]...)
	return nil
}

// Move shifts a whole segment by dt, clamped so it stays inside the
// recording with its span intact.
func (tl *Timeline) Move(i int, dt float64) error {
	if i < 0 || i >= len(tl.segments) {
		return fmt.Errorf("сегмент %d не существует", i)
	}
	seg := &tl.segments[i]
	span := seg.End - seg.Start
	seg.Start = clamp(seg.Start+dt, 0, tl.Duration-span)
	seg.End = seg.Start + span
	tl.sortSegments()
	return nil
}

// ResizeLeft moves the start edge; the segment keeps at least MinSpan.
func (tl *Timeline) ResizeLeft(i int, dt float64) error {
	if i < 0 || i >= len(tl.segments) {
		return fmt.Errorf("сегмент %d не существует", i)
	}
	seg := &tl.segments[i]
	seg.Start = clamp(seg.Start+dt, 0, seg.End-MinSpan)
	tl.sortSegments()
	return nil
}

// ResizeRight moves the end edge; the segment keeps at least MinSpan.
func (tl *Timeline) ResizeRight(i int, dt float64) error {
	if i < 0 || i >= len(tl.segments) {
		return fmt.Errorf("сегмент %d не существует", i)
	}
	seg := &tl.segments[i]
	seg.End = clamp(seg.End+dt, seg.Start+MinSpan, tl.Duration)
	return nil
}

func (tl *Timeline) SetFactor(i int, factor float64) error {
	if i < 0 || i >= len(tl.segments) {
		return fmt.Errorf("сегмент %d не существует", i)
	}
	if factor <= 1.0 {
		return fmt.Errorf("%w: factor %.3f должен быть > 1.0", ErrInvalidSegment, factor)
	}
	tl.segments[i].Factor = factor
	return nil
}

// Load replaces the timeline contents, validating each segment.
func (tl *Timeline) Load(segs []Segment) error {
	tl.segments = nil
	for _, s := range segs {
		if err := tl.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate computes the zoom state at time t. Segments are consulted in
// ascending Start order and the first one whose extended window
// [Start-TransitionSecs, End+TransitionSecs] contains t wins; later
// segments are not consulted even if their window also matches. With no
// match the full centred frame is returned.
func (tl *Timeline) Evaluate(t float64) State {
	return Evaluate(tl.segments, t)
}

// Evaluate is the pure evaluation core over a Start-sorted segment slice.
func Evaluate(segments []Segment, t float64) State {
	const a = TransitionSecs
	for _, seg := range segments {
		if t < seg.Start-a || t > seg.End+a {
			continue
		}

		var alpha float64
		switch {
		case t < seg.Start:
			alpha = (t - (seg.Start - a)) / a
		case t > seg.End:
			alpha = 1.0 - (t-seg.End)/a
		default:
			alpha = 1.0
		}
		alpha = clamp(alpha, 0, 1)
		// smoothstep
		alpha = alpha * alpha * (3 - 2*alpha)

		return State{
			Factor: 1.0 + (seg.Factor-1.0)*alpha,
			CX:     seg.CX,
			CY:     seg.CY,
		}
	}
	return State{Factor: 1.0, CX: 0.5, CY: 0.5}
}

func (tl *Timeline) sortSegments() {
	sort.SliceStable(tl.segments, func(i, j int) bool {
		return tl.segments[i].Start < tl.segments[j].Start
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
