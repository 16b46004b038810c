package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ivlev/zoomcast/internal/capture"
	"github.com/ivlev/zoomcast/internal/video"
)

// ErrSinkTerminated reports that the encoder sink stopped accepting frames
// (broken pipe). Fatal for the current run, not for the process.
var ErrSinkTerminated = errors.New("encoder sink terminated")

const (
	grabBackoff = 2 * time.Millisecond
	paceSleep   = 500 * time.Microsecond
	pauseSleep  = 50 * time.Millisecond
)

// Pipeline drives a capture source and an encoder sink so that the number
// of frames delivered to the sink tracks wall-clock time:
// floor(elapsed * fps) at every instant. A dedicated acquisition loop
// polls the source as fast as it allows and keeps only the newest frame;
// the pacing loop duplicates that frame to cover any deficit, so a stall
// in either the source or the sink never loses real time.
type Pipeline struct {
	source capture.Source
	sink   video.FrameSink
	fps    int

	// Единственное разделяемое состояние между захватом и выдачей.
	// Блокировка держится только на чтение/запись указателя, никогда
	// поверх I/O.
	mu     sync.Mutex
	latest *image.RGBA

	stateMu     sync.Mutex
	startTime   time.Time
	stopTime    time.Time
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration

	running    atomic.Bool
	framesSent atomic.Int64
	lastErr    error

	ready     chan struct{}
	stopped   chan struct{}
	readyOnce sync.Once
	stopOnce  sync.Once
}

func New(source capture.Source, sink video.FrameSink, fps int) *Pipeline {
	if fps <= 0 {
		fps = 30
	}
	return &Pipeline{
		source:  source,
		sink:    sink,
		fps:     fps,
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Ready is closed the instant the first frame has been captured.
func (p *Pipeline) Ready() <-chan struct{} { return p.ready }

// StartTime is the wall-clock origin of the recording (set at the first
// captured frame). Valid once Ready is closed.
func (p *Pipeline) StartTime() time.Time {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.startTime
}

func (p *Pipeline) FramesSent() int64 { return p.framesSent.Load() }

// MediaTime converts the current moment to seconds of recorded material,
// excluding pauses. Negative before the first frame and while paused.
func (p *Pipeline) MediaTime() float64 {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.startTime.IsZero() || p.paused {
		return -1
	}
	return (time.Since(p.startTime) - p.pausedTotal).Seconds()
}

func (p *Pipeline) Err() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.lastErr
}

// Stop requests graceful shutdown. Acquisition exits at its next poll;
// pacing finishes the deficit accumulated up to this moment, then closes
// the sink.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		p.stateMu.Lock()
		p.stopTime = time.Now()
		p.stateMu.Unlock()
		p.running.Store(false)
		close(p.stopped)
	})
}

// Pause freezes pacing and acquisition. Paused wall time is excluded from
// the frame accounting, so the output contains no filler for the pause.
func (p *Pipeline) Pause() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if !p.paused {
		p.paused = true
		p.pausedAt = time.Now()
	}
}

func (p *Pipeline) Resume() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.paused {
		p.pausedTotal += time.Since(p.pausedAt)
		p.paused = false
	}
}

// Run blocks until Stop (or a STOP line on control) and returns the
// terminal state of the run. notify receives a single "READY <epoch_ms>"
// line at the first captured frame; either stream may be nil.
func (p *Pipeline) Run(control io.Reader, notify io.Writer) error {
	p.running.Store(true)

	if control != nil {
		go p.listenControl(control)
	}

	acqDone := make(chan struct{})
	go p.acquireLoop(notify, acqDone)

	// Неблокирующее ожидание первого кадра
	select {
	case <-p.ready:
	case <-p.stopped:
		<-acqDone
		return p.finish(p.sink.Close())
	}

	var sent int64
	for p.running.Load() {
		if p.isPaused() {
			time.Sleep(pauseSleep)
			continue
		}
		target := p.targetFrames(time.Now())
		if target > sent {
			// Добираем дефицит дубликатами последнего кадра
			frame := p.latestFrame()
			for ; sent < target; sent++ {
				if err := p.sink.WriteFrame(frame); err != nil {
					return p.fail(err)
				}
				p.framesSent.Add(1)
			}
		} else {
			time.Sleep(paceSleep)
		}
	}

	// Финальный добор до момента STOP: burst дописывается целиком,
	// усечённых кадров не бывает.
	target := p.targetFrames(p.stopMoment())
	frame := p.latestFrame()
	for ; sent < target; sent++ {
		if err := p.sink.WriteFrame(frame); err != nil {
			return p.fail(err)
		}
		p.framesSent.Add(1)
	}

	<-acqDone
	return p.finish(p.sink.Close())
}

func (p *Pipeline) acquireLoop(notify io.Writer, done chan struct{}) {
	defer close(done)
	for p.running.Load() {
		if p.isPaused() {
			time.Sleep(pauseSleep)
			continue
		}
		img, err := p.source.Grab()
		if err != nil || img == nil {
			// CaptureUnavailable: краткий backoff и повтор
			time.Sleep(grabBackoff)
			continue
		}

		p.mu.Lock()
		p.latest = img
		p.mu.Unlock()

		p.readyOnce.Do(func() {
			now := time.Now()
			p.stateMu.Lock()
			p.startTime = now
			p.stateMu.Unlock()
			if notify != nil {
				fmt.Fprintf(notify, "READY %d\n", now.UnixMilli())
			}
			close(p.ready)
		})
	}
}

func (p *Pipeline) latestFrame() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

func (p *Pipeline) targetFrames(at time.Time) int64 {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	end := at
	if p.paused && p.pausedAt.Before(at) {
		end = p.pausedAt
	}
	elapsed := end.Sub(p.startTime) - p.pausedTotal
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed.Seconds() * float64(p.fps))
}

func (p *Pipeline) stopMoment() time.Time {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.stopTime.IsZero() {
		return time.Now()
	}
	return p.stopTime
}

func (p *Pipeline) isPaused() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.paused
}

func (p *Pipeline) fail(err error) error {
	p.running.Store(false)
	wrapped := fmt.Errorf("%w: %v", ErrSinkTerminated, err)
	p.sink.Close()
	return p.finish(wrapped)
}

func (p *Pipeline) finish(err error) error {
	p.stateMu.Lock()
	p.lastErr = err
	p.stateMu.Unlock()
	return err
}
