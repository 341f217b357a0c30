package ytdlp

import "testing"

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		line string
		frac float64
		ok   bool
	}{
		{"[download]   1.6% of    4.42MiB at  511.66KiB/s ETA 00:08", 0.016, true},
		{"[download]  42.3% of 4.42MiB at 1.2MiB/s ETA 00:02", 0.423, true},
		{"[download] 100% of 4.42MiB in 00:04", 1.0, true},
		{"  [download] 100.0% of ~4.42MiB", 1.0, true},
		{"[download] Destination: temp/abc_source.webm", 0, false},
		{"[ExtractAudio] Destination: temp/abc_source.mp3", 0, false},
		{"[youtube] dQw4w9WgXcQ: Downloading webpage", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		frac, ok := parseProgressLine(tt.line)
		if ok != tt.ok {
			t.Errorf("parseProgressLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if ok && (frac < tt.frac-1e-9 || frac > tt.frac+1e-9) {
			t.Errorf("parseProgressLine(%q) = %v, want %v", tt.line, frac, tt.frac)
		}
	}
}
