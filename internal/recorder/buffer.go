package recorder

import (
	"errors"
	"image"
	"log"
	"sync"
)

// FrameRecord is one captured frame with its position on the media
// timeline. Duplicated frames share the same *image.RGBA, the pixels are
// never mutated after capture.
type FrameRecord struct {
	Time float64
	Img  *image.RGBA
}

// Buffer accumulates frames in memory and assigns timestamps by frame
// index (n / fps). Implements video.FrameSink, so the pacing pipeline can
// write into it exactly like into an encoder.
//
// Hitting the memory budget is not a dead sink: the material captured so
// far must survive. The first write past the limit fires onFull once
// (the recorder wires it to a graceful pipeline stop) and overflow frames
// are dropped, never turned into an error.
type Buffer struct {
	mu      sync.Mutex
	fps     int
	limit   int
	frames  []FrameRecord
	closed  bool
	full    bool
	dropped int
	onFull  func()
}

// NewBuffer creates a buffer for at most limit frames; limit <= 0 means
// unbounded.
func NewBuffer(fps, limit int) *Buffer {
	return &Buffer{fps: fps, limit: limit}
}

func (b *Buffer) WriteFrame(img *image.RGBA) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("буфер уже закрыт")
	}
	if b.limit > 0 && len(b.frames) >= b.limit {
		b.dropped++
		firstOverflow := !b.full
		b.full = true
		onFull := b.onFull
		b.mu.Unlock()

		if firstOverflow {
			log.Printf("[!] Бюджет кадров в памяти исчерпан (%d), запись усекается", b.limit)
			if onFull != nil {
				onFull()
			}
		}
		return nil
	}
	b.frames = append(b.frames, FrameRecord{
		Time: float64(len(b.frames)) / float64(b.fps),
		Img:  img,
	})
	b.mu.Unlock()
	return nil
}

// Truncated reports whether the memory budget cut the recording short,
// and how many paced frames were dropped past the limit.
func (b *Buffer) Truncated() (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.full, b.dropped
}

func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Duration is the media length of the buffered material in seconds.
func (b *Buffer) Duration() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(len(b.frames)) / float64(b.fps)
}

// Frames returns the buffered records. The slice is a copy, the images
// are shared.
func (b *Buffer) Frames() []FrameRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]FrameRecord, len(b.frames))
	copy(out, b.frames)
	return out
}
