package pipeline

import (
	"bufio"
	"io"
	"log"
	"strings"
)

// listenControl reads the line protocol from the controlling process.
// Единственная команда: "STOP" — мягкая остановка записи. Всё прочее
// игнорируется, EOF тоже трактуется как STOP (управляющий процесс ушёл).
func (p *Pipeline) listenControl(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.EqualFold(line, "STOP"):
			log.Println("[*] Получена команда STOP, завершаем запись")
			p.Stop()
			return
		case strings.EqualFold(line, "PAUSE"):
			log.Println("[*] Запись на паузе")
			p.Pause()
		case strings.EqualFold(line, "RESUME"):
			log.Println("[*] Запись продолжена")
			p.Resume()
		default:
			log.Printf("[!] Неизвестная команда: %q", line)
		}
	}
	p.Stop()
}
