package jobs

import "testing"

func TestPhaseProgress(t *testing.T) {
	tests := []struct {
		phase Phase
		frac  float64
		want  int
	}{
		{PhaseAcquire, 0, 0},
		{PhaseAcquire, 0.5, 30},
		{PhaseAcquire, 1, 60},
		{PhaseAcquire, -0.5, 0},
		{PhaseAcquire, 2, 60},
		{PhaseConvert, 0, 60},
		{PhaseConvert, 0.5, 80},
		{PhaseConvert, 1, 100},
		{PhaseConvert, 1.5, 100},
	}
	for _, tt := range tests {
		if got := PhaseProgress(tt.phase, tt.frac); got != tt.want {
			t.Errorf("PhaseProgress(%d, %v) = %d, want %d", tt.phase, tt.frac, got, tt.want)
		}
	}
}

func TestPhaseProgressMonotonicAcrossPhases(t *testing.T) {
	// the end of acquisition never exceeds the start of conversion
	if PhaseProgress(PhaseAcquire, 1) > PhaseProgress(PhaseConvert, 0) {
		t.Error("phase boundary not monotonic")
	}
	prev := -1
	for _, frac := range []float64{0, 0.1, 0.4, 0.9, 1} {
		p := PhaseProgress(PhaseAcquire, frac)
		if p < prev {
			t.Errorf("acquire progress regressed: %d after %d", p, prev)
		}
		prev = p
	}
	for _, frac := range []float64{0, 0.3, 0.7, 1} {
		p := PhaseProgress(PhaseConvert, frac)
		if p < prev {
			t.Errorf("convert progress regressed: %d after %d", p, prev)
		}
		prev = p
	}
}
