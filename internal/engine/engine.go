package engine

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/pipeline"
	"github.com/ivlev/zoomcast/internal/recorder"
	"github.com/ivlev/zoomcast/internal/renderer"
	"github.com/ivlev/zoomcast/internal/system"
	"github.com/ivlev/zoomcast/internal/timeline"
	"github.com/ivlev/zoomcast/internal/track"
	"github.com/ivlev/zoomcast/internal/video"
)

// Progress receives the export completion fraction in [0,1].
type Progress func(fraction float64)

const (
	progressEvery = 15
	smoothSigma   = 3.0
)

// ExportJob describes one full export: the recorded material, the zoom
// segments to apply and the output settings.
type ExportJob struct {
	Recording    *recorder.Recording
	Segments     []timeline.Segment
	Output       config.OutputConfig
	Workers      int
	Encoder      string
	Quality      int
	SmoothCursor bool
	QRURL        string
	QRSeconds    float64
	ShowStats    bool
}

type composed struct {
	idx int
	img *image.RGBA
}

// Render composes every recorded frame and streams the result into an
// ffmpeg encoder at videoPath.
func Render(job ExportJob, videoPath string, progress Progress) error {
	sink, err := video.NewFFmpegSink(videoPath, job.Output.Width, job.Output.Height,
		job.Recording.FPS, job.Encoder, job.Quality)
	if err != nil {
		return err
	}
	if err := RenderTo(job, sink, progress); err != nil {
		sink.Close()
		return err
	}
	return sink.Close()
}

// RenderTo runs the export against an arbitrary frame sink. Compositing
// is parallel over timestamps, the write order to the sink is strictly
// by frame index; a frame that cannot be composed is skipped, never
// reordered.
func RenderTo(job ExportJob, sink video.FrameSink, progress Progress) error {
	rec := job.Recording
	frames := rec.Frames
	if len(frames) == 0 {
		return fmt.Errorf("нет кадров для экспорта")
	}

	samples := rec.Samples
	if job.SmoothCursor {
		smoothed := track.SmoothTrajectory(samples, smoothSigma)
		if len(smoothed) == len(samples) {
			samples = smoothed
		} else {
			log.Printf("[!] Сглаживание траектории пропущено, используем сырые данные")
		}
	}

	comp := renderer.NewCompositor(job.Output, rec.Monitor)
	workers := system.ExportWorkers(job.Workers)
	if workers > len(frames) {
		workers = len(frames)
	}

	outro, outroCount := buildOutro(job, rec.FPS)
	total := len(frames) + outroCount

	log.Printf("[*] Экспорт: %d кадров, %d воркеров, энкодер %s", total, workers, job.Encoder)
	composeStart := time.Now()

	jobs := make(chan int, len(frames))
	results := make(chan composed, workers*2)

	// Пул композиторов (CPU bound)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				fr := frames[i]
				if fr.Img == nil {
					log.Printf("[!] Кадр %d повреждён, пропускаем", i)
					results <- composed{idx: i}
					continue
				}
				zoom := timeline.Evaluate(job.Segments, fr.Time)
				results <- composed{
					idx: i,
					img: comp.Compose(fr.Img, fr.Time, samples, rec.Clicks, zoom),
				}
			}
			return nil
		})
	}

	for i := range frames {
		jobs <- i
	}
	close(jobs)

	go func() {
		g.Wait()
		close(results)
	}()

	// Единственный писатель: восстанавливает порядок кадров и пишет в
	// энкодер строго по возрастанию индекса
	var writeErr error
	pending := make(map[int]composed, workers*2)
	next := 0
	written := 0
	for res := range results {
		pending[res.idx] = res
		for {
			cur, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if cur.img == nil {
				continue
			}
			if writeErr == nil {
				if err := sink.WriteFrame(cur.img); err != nil {
					writeErr = fmt.Errorf("%w: %v", pipeline.ErrSinkTerminated, err)
				}
			}
			system.PutImage(cur.img)
			written++
			if progress != nil && written%progressEvery == 0 {
				progress(float64(written) / float64(total))
			}
		}
	}
	if writeErr != nil {
		return writeErr
	}

	composeDur := time.Since(composeStart)

	// Финальная заставка с QR-кодом
	for i := 0; i < outroCount; i++ {
		if err := sink.WriteFrame(outro); err != nil {
			return fmt.Errorf("%w: %v", pipeline.ErrSinkTerminated, err)
		}
		written++
		if progress != nil && written%progressEvery == 0 {
			progress(float64(written) / float64(total))
		}
	}
	if outro != nil {
		system.PutImage(outro)
	}

	if progress != nil {
		progress(1.0)
	}

	if job.ShowStats {
		fps := float64(written) / composeDur.Seconds()
		log.Printf("[*] Статистика: %d кадров за %.1fs (%.1f fps), разрешение %dx%d",
			written, composeDur.Seconds(), fps, job.Output.Width, job.Output.Height)
	}
	return nil
}
