package track

import (
	"sort"
	"sync"
)

const (
	ButtonLeft  = "left"
	ButtonRight = "right"
)

// CursorSample is one observed cursor position in absolute screen
// coordinates, Time seconds after the recording origin.
type CursorSample struct {
	Time float64
	X    float64
	Y    float64
}

// ClickEvent is one mouse press in absolute screen coordinates.
type ClickEvent struct {
	Time   float64
	X      float64
	Y      float64
	Button string
}

// Track is the append-only event log of a recording session. Listeners
// append under the lock while the session runs; readers only ever see
// completed, time-sorted snapshots.
type Track struct {
	mu      sync.Mutex
	samples []CursorSample
	clicks  []ClickEvent
}

func NewTrack() *Track {
	return &Track{}
}

func (t *Track) AddSample(s CursorSample) {
	t.mu.Lock()
	t.samples = append(t.samples, s)
	t.mu.Unlock()
}

func (t *Track) AddClick(c ClickEvent) {
	t.mu.Lock()
	t.clicks = append(t.clicks, c)
	t.mu.Unlock()
}

// Samples returns a time-sorted copy of the cursor samples. Capture order
// is already ascending; the sort only repairs out-of-order arrivals from
// a slow listener callback.
func (t *Track) Samples() []CursorSample {
	t.mu.Lock()
	out := make([]CursorSample, len(t.samples))
	copy(out, t.samples)
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Clicks returns a time-sorted copy of the click events.
func (t *Track) Clicks() []ClickEvent {
	t.mu.Lock()
	out := make([]ClickEvent, len(t.clicks))
	copy(out, t.clicks)
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func (t *Track) Counts() (samples, clicks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples), len(t.clicks)
}
