package director

import (
	"math"
	"sort"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/timeline"
	"github.com/ivlev/zoomcast/internal/track"
)

// Options controls how click activity is turned into zoom segments.
type Options struct {
	ClusterGap float64 // max silence between clicks of one cluster (seconds)
	ZoomDur    float64 // how long to hold the zoom after the last click
	Factor     float64 // magnification for generated segments
	LeadIn     float64 // how far before the first click the zoom starts
}

func DefaultOptions() Options {
	return Options{
		ClusterGap: 0.8,
		ZoomDur:    2.5,
		Factor:     2.2,
		LeadIn:     0.15,
	}
}

// GenerateZooms clusters clicks by time and emits one zoom segment per
// cluster, centred on the cluster's centroid in frame-fraction coordinates.
// Segments come out ordered by cluster start; they are deliberately not
// checked against each other for overlap (the timeline evaluator resolves
// overlap with first-match-wins).
func GenerateZooms(clicks []track.ClickEvent, mon capture.Monitor, duration float64, opts Options) []timeline.Segment {
	if len(clicks) == 0 || mon.Width == 0 || mon.Height == 0 {
		return nil
	}

	sorted := make([]track.ClickEvent, len(clicks))
	copy(sorted, clicks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	groups := [][]track.ClickEvent{{sorted[0]}}
	for _, c := range sorted[1:] {
		last := groups[len(groups)-1]
		if c.Time-last[len(last)-1].Time < opts.ClusterGap {
			groups[len(groups)-1] = append(last, c)
		} else {
			groups = append(groups, []track.ClickEvent{c})
		}
	}

	segments := make([]timeline.Segment, 0, len(groups))
	for _, g := range groups {
		start := math.Max(0, g[0].Time-opts.LeadIn)
		end := math.Min(duration, g[len(g)-1].Time+opts.ZoomDur)
		if end-start < timeline.MinSpan {
			continue
		}

		var sumX, sumY float64
		for _, c := range g {
			sumX += c.X
			sumY += c.Y
		}
		n := float64(len(g))
		// Centroid in frame-local fractions. The monitor origin is
		// subtracted so secondary displays normalise correctly.
		cx := clamp01((sumX/n - float64(mon.Left)) / float64(mon.Width))
		cy := clamp01((sumY/n - float64(mon.Top)) / float64(mon.Height))

		segments = append(segments, timeline.Segment{
			Start:  start,
			End:    end,
			CX:     cx,
			CY:     cy,
			Factor: opts.Factor,
		})
	}
	return segments
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
