package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/director"
	"github.com/ivlev/zoomcast/internal/engine"
	"github.com/ivlev/zoomcast/internal/project"
	"github.com/ivlev/zoomcast/internal/recorder"
	"github.com/ivlev/zoomcast/internal/system"
	"github.com/ivlev/zoomcast/internal/timeline"
	"github.com/ivlev/zoomcast/internal/track"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	os.MkdirAll("output", 0755)

	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	fpsPtr := flag.Int("fps", 30, "FPS записи")
	monitorPtr := flag.Int("monitor", 0, "Индекс монитора для захвата")
	widthPtr := flag.Int("width", 0, "Ширина вывода (0 - как у монитора)")
	heightPtr := flag.Int("height", 0, "Высота вывода (0 - как у монитора)")
	paddingPtr := flag.Int("padding", 40, "Отступ вокруг записи (px)")
	cornersPtr := flag.Int("corners", 18, "Радиус скругления углов (px)")
	shadowPtr := flag.Bool("shadow", true, "Мягкая тень под записью")
	ripplesPtr := flag.Bool("ripples", true, "Круги при кликах мыши")
	cursorPtr := flag.Float64("cursor-scale", 1.0, "Масштаб курсора (0 - не рисовать)")
	bgPtr := flag.String("bg", "#252535", "Цвет фона #RRGGBB")
	autozoomPtr := flag.Bool("autozoom", true, "Автоматические зумы по кликам")
	smoothPtr := flag.Bool("smooth", true, "Сглаживать траекторию курсора")
	timelinePtr := flag.String("timeline", "", "YAML с готовыми зум-сегментами (отключает autozoom)")
	projectPtr := flag.String("project", "", "Куда сохранить файл проекта (YAML)")
	eventsPtr := flag.String("events", "", "JSON-лента событий мыши от внешнего трекера")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Потоки экспорта")
	encoderPtr := flag.String("encoder", "", "Видеоэнкодер (пусто - автоопределение)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF, VideoToolbox: битрейт = Q*100кбит/с)")
	qrPtr := flag.String("qr", "", "Ссылка для QR-кода в финальной заставке")
	qrSecsPtr := flag.Float64("qr-seconds", 3, "Длительность заставки с QR-кодом")
	statsPtr := flag.Bool("stats", false, "Печатать статистику экспорта")

	flag.Parse()

	bg, err := config.ParseHex(*bgPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	// ── Запись ───────────────────────────────────────────────
	rec, err := recorder.New(*monitorPtr, *fpsPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации захвата: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println()
		log.Println("[*] Получен сигнал, останавливаем запись")
		rec.Stop()
	}()

	fmt.Println("--- [ZOOMCAST] ---")
	fmt.Printf("[*] Монитор %d @ %d FPS. STOP в stdin или Ctrl+C для остановки\n", *monitorPtr, *fpsPtr)

	rec.Start(ctx, os.Stdin, os.Stdout)
	recording, err := rec.Wait()
	if err != nil {
		log.Fatalf("[-] Ошибка записи: %v", err)
	}
	if len(recording.Frames) == 0 {
		log.Fatalf("[-] Ошибка: не захвачено ни одного кадра")
	}

	// Внешняя лента событий дополняет данные глобального хука
	if *eventsPtr != "" {
		mergeEventFeed(recording, *eventsPtr)
	}

	// ── Таймлайн зумов ───────────────────────────────────────
	var segments []timeline.Segment
	switch {
	case *timelinePtr != "":
		segs, err := project.LoadSegments(*timelinePtr)
		if err != nil {
			log.Fatalf("[-] Ошибка таймлайна: %v", err)
		}
		tl := timeline.New(recording.Duration)
		if err := tl.Load(segs); err != nil {
			log.Fatalf("[-] Ошибка таймлайна: %v", err)
		}
		segments = tl.Segments()
		fmt.Printf("[*] Загружен таймлайн: %d сегментов из %s\n", len(segments), *timelinePtr)
	case *autozoomPtr:
		segments = director.GenerateZooms(recording.Clicks, recording.Monitor,
			recording.Duration, director.DefaultOptions())
		fmt.Printf("[*] Автозум: %d кликов -> %d сегментов\n", len(recording.Clicks), len(segments))
	}

	// ── Параметры вывода ─────────────────────────────────────
	width, height := *widthPtr, *heightPtr
	if width <= 0 {
		width = recording.Monitor.Width
	}
	if height <= 0 {
		height = recording.Monitor.Height
	}
	out := config.DefaultOutput(width, height)
	out.Padding = *paddingPtr
	out.CornerRadius = *cornersPtr
	out.Shadow = *shadowPtr
	out.ClickRipples = *ripplesPtr
	out.CursorScale = *cursorPtr
	out.Background = bg

	encoderName := *encoderPtr
	if encoderName == "" {
		encoderName, _ = system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
	}
	quality := *qualityPtr
	if quality == 0 {
		quality = system.DefaultQuality(encoderName)
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join("output", fmt.Sprintf("zoomcast_%s.mp4", timestamp))
	}

	// ── Файл проекта ─────────────────────────────────────────
	if *projectPtr != "" {
		p := &project.Project{
			Session:  recording.ID.String(),
			Created:  recording.StartedAt,
			FPS:      recording.FPS,
			Duration: recording.Duration,
			Monitor:  recording.Monitor,
			Segments: segments,
			Output:   out,
		}
		if err := project.Save(*projectPtr, p); err != nil {
			log.Printf("[!] Не удалось сохранить проект: %v", err)
		} else {
			fmt.Printf("[*] Проект сохранён: %s\n", *projectPtr)
		}
	}

	// ── Экспорт ──────────────────────────────────────────────
	job := engine.ExportJob{
		Recording:    recording,
		Segments:     segments,
		Output:       out,
		Workers:      *workersPtr,
		Encoder:      encoderName,
		Quality:      quality,
		SmoothCursor: *smoothPtr,
		QRURL:        *qrPtr,
		QRSeconds:    *qrSecsPtr,
		ShowStats:    *statsPtr,
	}

	progress := func(f float64) {
		fmt.Printf("\r[>] Экспорт: %3.0f%%", f*100)
	}
	if err := engine.Render(job, finalOutput, progress); err != nil {
		fmt.Println()
		log.Fatalf("[-] Ошибка экспорта: %v", err)
	}
	fmt.Println()

	fmt.Printf("[+++] Успех! Результат: %s\n", finalOutput)
}

// mergeEventFeed mixes clicks and cursor samples from an external tracker
// feed into the recording, keeping both series sorted by time.
func mergeEventFeed(recording *recorder.Recording, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[!] Не удалось открыть ленту событий: %v", err)
		return
	}
	defer f.Close()

	tr := track.NewTrack()
	origin := float64(recording.StartedAt.UnixNano()) / 1e9
	if err := track.ReadFeed(f, tr, origin); err != nil {
		log.Printf("[!] Ошибка чтения ленты событий: %v", err)
		return
	}

	samples, clicks := tr.Counts()
	recording.Samples = append(recording.Samples, tr.Samples()...)
	recording.Clicks = append(recording.Clicks, tr.Clicks()...)
	sort.SliceStable(recording.Samples, func(i, j int) bool {
		return recording.Samples[i].Time < recording.Samples[j].Time
	})
	sort.SliceStable(recording.Clicks, func(i, j int) bool {
		return recording.Clicks[i].Time < recording.Clicks[j].Time
	})
	fmt.Printf("[*] Лента событий: +%d позиций, +%d кликов\n", samples, clicks)
}
