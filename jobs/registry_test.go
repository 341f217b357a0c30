package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry()
	job := r.Create("song.mp3")
	if job.ID == "" {
		t.Fatal("empty job id")
	}
	if job.Status != StatusQueued {
		t.Errorf("Status = %s, want %s", job.Status, StatusQueued)
	}

	got, err := r.Get(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "song.mp3" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}

	if _, err := r.Get("no-such-id"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrJobNotFound", err)
	}
}

func TestUniqueIDs(t *testing.T) {
	r := NewRegistry()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := r.Create("x").ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestProgressMonotonic(t *testing.T) {
	r := NewRegistry()
	id := r.Create("x").ID
	r.setProcessing(id)

	r.setProgress(id, 40)
	r.setProgress(id, 20) // late report, must not regress
	snap, _ := r.Get(id)
	if snap.Progress != 40 {
		t.Errorf("Progress = %d, want 40", snap.Progress)
	}

	r.setProgress(id, 130)
	snap, _ = r.Get(id)
	if snap.Progress != 100 {
		t.Errorf("Progress = %d, want clamp to 100", snap.Progress)
	}
}

func TestTerminalFrozen(t *testing.T) {
	r := NewRegistry()
	id := r.Create("x").ID
	r.setProcessing(id)
	r.complete(id, "/out/a.ogg")

	r.fail(id, "too late")
	r.setProgress(id, 10)
	r.setMessage(id, "ignored")

	snap, _ := r.Get(id)
	if snap.Status != StatusCompleted {
		t.Errorf("Status = %s, terminal state was mutated", snap.Status)
	}
	if snap.OutputPath != "/out/a.ogg" || snap.Progress != 100 {
		t.Errorf("snapshot mutated after terminal: %+v", snap)
	}
}

func TestCompleteRequiresProcessing(t *testing.T) {
	r := NewRegistry()
	id := r.Create("x").ID
	r.complete(id, "/out/a.ogg") // queued -> completed is not a legal edge
	snap, _ := r.Get(id)
	if snap.Status != StatusQueued {
		t.Errorf("Status = %s, want queued", snap.Status)
	}
	if snap.OutputPath != "" {
		t.Errorf("OutputPath set on non-completed job")
	}
}

func TestOutputPathIffCompleted(t *testing.T) {
	r := NewRegistry()
	id := r.Create("x").ID
	r.setProcessing(id)
	r.fail(id, "encoder exploded")

	snap, _ := r.Get(id)
	if snap.OutputPath != "" {
		t.Error("failed job has an output path")
	}
	if snap.ErrorDetail != "encoder exploded" {
		t.Errorf("ErrorDetail = %q", snap.ErrorDetail)
	}
}

func TestConcurrentJobsIndependent(t *testing.T) {
	r := NewRegistry()
	const n = 50

	ids := make([]string, n)
	for i := range ids {
		ids[i] = r.Create("x").ID
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			r.setProcessing(id)
			for p := 0; p <= 100; p += 7 {
				r.setProgress(id, p)
			}
			if i%3 == 0 {
				r.fail(id, "boom")
			} else {
				r.complete(id, "/out/"+id+".ogg")
			}
		}(i, id)
	}

	// hammer reads while writers run
	for k := 0; k < 200; k++ {
		for _, id := range ids {
			snap, err := r.Get(id)
			if err != nil {
				t.Errorf("Get(%s): %v", id, err)
			}
			if snap.Progress < 0 || snap.Progress > 100 {
				t.Errorf("torn progress %d", snap.Progress)
			}
		}
	}
	wg.Wait()

	for i, id := range ids {
		snap, _ := r.Get(id)
		if !snap.Status.Terminal() {
			t.Errorf("job %d not terminal: %s", i, snap.Status)
		}
		if i%3 == 0 && snap.Status != StatusFailed {
			t.Errorf("job %d = %s, want failed", i, snap.Status)
		}
		if i%3 != 0 && snap.OutputPath == "" {
			t.Errorf("job %d completed without output path", i)
		}
	}
}

func TestArtifact(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()

	id := r.Create("song.mp3").ID
	out := filepath.Join(dir, id+"_song.ogg")
	if err := os.WriteFile(out, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	r.setProcessing(id)
	r.complete(id, out)

	path, name, err := r.Artifact(id)
	if err != nil {
		t.Fatal(err)
	}
	if path != out {
		t.Errorf("path = %q", path)
	}
	if name != "song.ogg" {
		t.Errorf("cleaned name = %q, want job prefix stripped", name)
	}
}

func TestArtifactErrors(t *testing.T) {
	r := NewRegistry()

	if _, _, err := r.Artifact("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("unknown id: %v, want ErrJobNotFound", err)
	}

	id := r.Create("x").ID
	if _, _, err := r.Artifact(id); !errors.Is(err, ErrNotReady) {
		t.Errorf("queued job: %v, want ErrNotReady", err)
	}

	// completed job whose file was swept
	out := filepath.Join(t.TempDir(), id+"_x.ogg")
	if err := os.WriteFile(out, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	r.setProcessing(id)
	r.complete(id, out)
	os.Remove(out)

	_, _, err := r.Artifact(id)
	var gone *ArtifactGoneError
	if !errors.As(err, &gone) {
		t.Fatalf("swept artifact: %v, want *ArtifactGoneError", err)
	}
	if errors.Is(err, ErrJobNotFound) {
		t.Error("swept artifact must not be conflated with job-not-found")
	}
}
