package track

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
)

// feedEvent mirrors the wire format of the external listener process:
// one JSON object per line, times in epoch seconds.
type feedEvent struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button"`
	Time   float64 `json:"time"`
}

// ReadFeed consumes a line-delimited JSON event stream from an external
// cursor/click listener and appends to tr, rebasing epoch timestamps onto
// the session origin. Malformed lines are skipped. Returns when the stream
// ends.
func ReadFeed(r io.Reader, tr *Track, originEpoch float64) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev feedEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Printf("[!] Пропущено некорректное событие: %v", err)
			continue
		}

		t := ev.Time - originEpoch
		if t < 0 {
			continue
		}

		switch ev.Type {
		case "click":
			button := ev.Button
			if button != ButtonLeft && button != ButtonRight {
				button = ButtonLeft
			}
			tr.AddClick(ClickEvent{Time: t, X: ev.X, Y: ev.Y, Button: button})
		case "move":
			tr.AddSample(CursorSample{Time: t, X: ev.X, Y: ev.Y})
		}
	}
	return sc.Err()
}
