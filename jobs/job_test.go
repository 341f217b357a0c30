package jobs

import "testing"

func TestValidTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusQueued, StatusProcessing},
		{StatusQueued, StatusFailed},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusFailed},
	}
	for _, tr := range allowed {
		if !ValidTransition(tr.from, tr.to) {
			t.Errorf("%s -> %s should be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusQueued, StatusCompleted},
		{StatusProcessing, StatusQueued},
		{StatusCompleted, StatusProcessing},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusProcessing},
		{StatusFailed, StatusCompleted},
	}
	for _, tr := range denied {
		if ValidTransition(tr.from, tr.to) {
			t.Errorf("%s -> %s should be denied", tr.from, tr.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusQueued.Terminal() || StatusProcessing.Terminal() {
		t.Error("queued/processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}
