package recorder

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/pipeline"
	"github.com/ivlev/zoomcast/internal/system"
	"github.com/ivlev/zoomcast/internal/track"
	"github.com/ivlev/zoomcast/internal/track/hook"
)

// Recording is the raw result of a capture session: the buffered frames
// plus everything the mouse did while they were being captured.
type Recording struct {
	ID        uuid.UUID
	StartedAt time.Time
	FPS       int
	Monitor   capture.Monitor
	Duration  float64
	Frames    []FrameRecord
	Samples   []track.CursorSample
	Clicks    []track.ClickEvent
}

// Recorder ties the screen source, the pacing pipeline, the in-memory
// frame buffer and the global mouse hook into one recording session.
type Recorder struct {
	id     uuid.UUID
	fps    int
	source *capture.ScreenSource
	buf    *Buffer
	pipe   *pipeline.Pipeline
	tr     *track.Track
	cancel context.CancelFunc
	done   chan error
}

func New(displayIndex, fps int) (*Recorder, error) {
	src, err := capture.NewScreenSource(displayIndex)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	limit := system.FrameBudget(b.Width, b.Height)
	log.Printf("[*] Монитор %d: %dx%d, бюджет %d кадров (~%.0f сек при %d fps)",
		displayIndex, b.Width, b.Height, limit, float64(limit)/float64(fps), fps)

	buf := NewBuffer(fps, limit)
	pipe := pipeline.New(src, buf, fps)
	buf.onFull = pipe.Stop
	return &Recorder{
		id:     uuid.New(),
		fps:    fps,
		source: src,
		buf:    buf,
		pipe:   pipe,
		tr:     track.NewTrack(),
		done:   make(chan error, 1),
	}, nil
}

func (r *Recorder) ID() uuid.UUID            { return r.id }
func (r *Recorder) Monitor() capture.Monitor { return r.source.Bounds() }

// Start launches capture and mouse tracking. control and notify carry the
// line protocol of the pacing pipeline; either may be nil. Non-blocking,
// call Wait for completion.
func (r *Recorder) Start(ctx context.Context, control io.Reader, notify io.Writer) {
	ctx, r.cancel = context.WithCancel(ctx)

	go func() {
		r.done <- r.pipe.Run(control, notify)
	}()

	go func() {
		select {
		case <-r.pipe.Ready():
			log.Printf("[*] Первый кадр захвачен, запись пошла (сессия %s)", r.id)
			go hook.Listen(ctx, r.tr, r.pipe.MediaTime, r.fps*2)
		case <-ctx.Done():
		}
	}()
}

func (r *Recorder) Stop()   { r.pipe.Stop() }
func (r *Recorder) Pause()  { r.pipe.Pause() }
func (r *Recorder) Resume() { r.pipe.Resume() }

// Wait blocks until the pipeline finishes and returns the assembled
// recording. The screen source and the mouse hook are released here.
func (r *Recorder) Wait() (*Recording, error) {
	err := <-r.done
	if r.cancel != nil {
		r.cancel()
	}
	r.source.Close()

	if err != nil {
		return nil, fmt.Errorf("конвейер записи: %w", err)
	}

	if full, dropped := r.buf.Truncated(); full {
		log.Printf("[!] Запись усечена по бюджету памяти: сохранено %d кадров, отброшено %d",
			r.buf.Len(), dropped)
	}

	samples, clicks := r.tr.Counts()
	log.Printf("[*] Запись остановлена: %d кадров, %d позиций курсора, %d кликов",
		r.buf.Len(), samples, clicks)

	return &Recording{
		ID:        r.id,
		StartedAt: r.pipe.StartTime(),
		FPS:       r.fps,
		Monitor:   r.source.Bounds(),
		Duration:  r.buf.Duration(),
		Frames:    r.buf.Frames(),
		Samples:   r.tr.Samples(),
		Clicks:    r.tr.Clicks(),
	}, nil
}
