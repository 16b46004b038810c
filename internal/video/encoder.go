package video

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
)

// FrameSink consumes a sequential stream of fixed-size frames. WriteFrame
// may block (backpressure); Close ends the stream and waits for the sink
// to finish flushing.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// FFmpegSink pipes raw RGBA frames into an ffmpeg process over stdin.
type FFmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	width  int
	height int
	out    bytes.Buffer
	closed bool
}

func NewFFmpegSink(videoPath string, width, height, fps int, encoderName string, quality int) (*FFmpegSink, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	// Качество в зависимости от энкодера
	switch encoderName {
	case "h264_videotoolbox":
		bitrate := quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}
	args = append(args, videoPath)

	cmd := exec.Command("ffmpeg", args...)

	sink := &FFmpegSink{cmd: cmd, width: width, height: height}
	cmd.Stdout = &sink.out
	cmd.Stderr = &sink.out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	sink.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return sink, nil
}

// WriteFrame records one whole frame. The write is a single call so a
// failed sink never leaves a partial frame in the stream.
func (s *FFmpegSink) WriteFrame(img *image.RGBA) error {
	if img.Bounds().Dx() != s.width || img.Bounds().Dy() != s.height {
		return fmt.Errorf("кадр %dx%d не совпадает с потоком %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), s.width, s.height)
	}
	return writeRawRGBA(s.stdin, img)
}

// Close завершает поток и дожидается, пока ffmpeg допишет файл.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %v, output: %s", err, s.out.String())
	}
	return nil
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	rgba := img
	// Проверяем, имеет ли изображение стандартный шаг (stride)
	if rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
