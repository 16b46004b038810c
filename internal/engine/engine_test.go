package engine

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/pipeline"
	"github.com/ivlev/zoomcast/internal/recorder"
	"github.com/ivlev/zoomcast/internal/timeline"
)

type captureSink struct {
	mu     sync.Mutex
	first  []uint8 // first channel byte of every written frame
	closed bool
	fail   bool
}

func (s *captureSink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broken pipe")
	}
	s.first = append(s.first, img.Pix[0])
	return nil
}

func (s *captureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// testRecording builds n tiny frames where frame i is a solid gray with
// R = i, so write order is observable at the sink.
func testRecording(n int) *recorder.Recording {
	frames := make([]recorder.FrameRecord, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, 20, 20))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i)
			img.Pix[p+3] = 255
		}
		frames[i] = recorder.FrameRecord{Time: float64(i) / 30.0, Img: img}
	}
	return &recorder.Recording{
		FPS:      30,
		Monitor:  capture.Monitor{Width: 20, Height: 20},
		Frames:   frames,
		Duration: float64(n) / 30.0,
	}
}

func bareJob(rec *recorder.Recording) ExportJob {
	return ExportJob{
		Recording: rec,
		Output:    config.OutputConfig{Width: 20, Height: 20},
		Workers:   4,
	}
}

func TestRenderToPreservesWriteOrder(t *testing.T) {
	rec := testRecording(40)
	sink := &captureSink{}

	var progress []float64
	err := RenderTo(bareJob(rec), sink, func(f float64) { progress = append(progress, f) })
	if err != nil {
		t.Fatalf("RenderTo: %v", err)
	}

	if len(sink.first) != 40 {
		t.Fatalf("Expected 40 frames at the sink, got %d", len(sink.first))
	}
	for i, v := range sink.first {
		if v != uint8(i) {
			t.Fatalf("Frame order broken at %d: got frame %d", i, v)
		}
	}

	if len(progress) == 0 {
		t.Fatal("Progress callback never invoked")
	}
	for _, f := range progress {
		if f < 0 || f > 1 {
			t.Errorf("Progress out of range: %f", f)
		}
	}
	if progress[len(progress)-1] != 1.0 {
		t.Errorf("Final progress must be 1.0, got %f", progress[len(progress)-1])
	}
}

func TestRenderToSkipsMalformedFrames(t *testing.T) {
	rec := testRecording(20)
	rec.Frames[7].Img = nil
	sink := &captureSink{}

	if err := RenderTo(bareJob(rec), sink, nil); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}
	if len(sink.first) != 19 {
		t.Fatalf("Expected 19 frames (one skipped), got %d", len(sink.first))
	}
	// Skips must not reorder: the sequence is still ascending
	want := uint8(0)
	for i, v := range sink.first {
		if want == 7 {
			want++
		}
		if v != want {
			t.Fatalf("Position %d: expected frame %d, got %d", i, want, v)
		}
		want++
	}
}

func TestRenderToAppliesZoom(t *testing.T) {
	// Frame 0 is black on the left half, value 200 on the right half
	rec := testRecording(1)
	img := rec.Frames[0].Img
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off] = 200
		}
	}
	img2 := image.NewRGBA(image.Rect(0, 0, 20, 20))
	copy(img2.Pix, img.Pix)
	rec.Frames[0].Img = img2

	job := bareJob(rec)
	job.Segments = []timeline.Segment{{Start: -0.1, End: 1.0, CX: 0.75, CY: 0.5, Factor: 2.0}}

	sink := &captureSink{}
	if err := RenderTo(job, sink, nil); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}
	if len(sink.first) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(sink.first))
	}
	// Zoomed into the right half: the first pixel is the bright value
	if sink.first[0] != 200 {
		t.Errorf("Expected zoomed frame to start bright, got %d", sink.first[0])
	}
}

func TestRenderToSinkFailure(t *testing.T) {
	rec := testRecording(10)
	sink := &captureSink{fail: true}

	err := RenderTo(bareJob(rec), sink, nil)
	if !errors.Is(err, pipeline.ErrSinkTerminated) {
		t.Fatalf("Expected ErrSinkTerminated, got %v", err)
	}
}

func TestRenderToEmptyRecording(t *testing.T) {
	rec := &recorder.Recording{FPS: 30, Monitor: capture.Monitor{Width: 20, Height: 20}}
	if err := RenderTo(bareJob(rec), &captureSink{}, nil); err == nil {
		t.Error("Expected error for empty recording")
	}
}

func TestRenderToOutro(t *testing.T) {
	rec := testRecording(5)
	job := bareJob(rec)
	job.QRURL = "https://example.com/demo"
	job.QRSeconds = 0.5 // 15 frames at 30 fps

	sink := &captureSink{}
	if err := RenderTo(job, sink, nil); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}
	if len(sink.first) != 5+15 {
		t.Fatalf("Expected 20 frames with outro, got %d", len(sink.first))
	}
}
