package config

import "testing"

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#252535", RGB{R: 0x25, G: 0x25, B: 0x35}, false},
		{"FFFFFF", RGB{R: 255, G: 255, B: 255}, false},
		{"  #000000 ", RGB{}, false},
		{"#FFF", RGB{}, true},
		{"", RGB{}, true},
		{"#GGGGGG", RGB{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHex(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}

func TestDefaultOutput(t *testing.T) {
	out := DefaultOutput(1920, 1080)
	if out.Width != 1920 || out.Height != 1080 {
		t.Errorf("Size not propagated: %dx%d", out.Width, out.Height)
	}
	if out.Padding <= 0 || !out.Shadow || !out.ClickRipples {
		t.Errorf("Defaults look wrong: %+v", out)
	}
	if out.RippleLife <= 0 || out.CursorScale <= 0 {
		t.Errorf("Defaults look wrong: %+v", out)
	}
}
