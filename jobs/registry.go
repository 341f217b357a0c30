package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned for ids the registry has never issued.
var ErrJobNotFound = errors.New("job not found")

// ErrNotReady is returned when output is requested for a non-completed job.
var ErrNotReady = errors.New("job output not ready")

// ArtifactGoneError reports a completed job whose output file has since
// been reclaimed. Distinct from ErrJobNotFound: the job record still exists.
type ArtifactGoneError struct {
	JobID string
	Path  string
}

func (e *ArtifactGoneError) Error() string {
	return fmt.Sprintf("output for job %s no longer exists at %s", e.JobID, e.Path)
}

// Registry owns every job record for the life of the process. All access
// goes through it; callers outside this package only receive snapshots.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Snapshot
}

func NewRegistry() *Registry {
	return &Registry{jobs: map[string]*Snapshot{}}
}

// Create issues a new job in queued state and returns its snapshot.
func (r *Registry) Create(displayName string) Snapshot {
	job := &Snapshot{
		ID:          uuid.Must(uuid.NewV7()).String(),
		DisplayName: displayName,
		Status:      StatusQueued,
		Message:     "Queued for processing...",
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return *job
}

// Get returns a snapshot of the job, or ErrJobNotFound.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, ErrJobNotFound
	}
	return *job, nil
}

// List returns snapshots of all jobs, newest first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Artifact returns the output path and a cleaned download filename for a
// completed job. The job id prefix is stripped from the filename.
func (r *Registry) Artifact(id string) (string, string, error) {
	snap, err := r.Get(id)
	if err != nil {
		return "", "", err
	}
	if snap.Status != StatusCompleted || snap.OutputPath == "" {
		return "", "", ErrNotReady
	}
	if _, err := os.Stat(snap.OutputPath); err != nil {
		return "", "", &ArtifactGoneError{JobID: id, Path: snap.OutputPath}
	}

	name := filepath.Base(snap.OutputPath)
	name = strings.TrimPrefix(name, id+"_")
	return snap.OutputPath, name, nil
}

// update applies fn to the live record under the lock. No-op for unknown
// ids and for records already in a terminal state.
func (r *Registry) update(id string, fn func(*Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	fn(job)
}

func (r *Registry) setProcessing(id string) {
	r.update(id, func(j *Snapshot) {
		if ValidTransition(j.Status, StatusProcessing) {
			j.Status = StatusProcessing
		}
	})
}

// setProgress clamps to keep the visible percentage monotonic within a run.
func (r *Registry) setProgress(id string, pct int) {
	r.update(id, func(j *Snapshot) {
		if pct > 100 {
			pct = 100
		}
		if pct > j.Progress {
			j.Progress = pct
		}
	})
}

func (r *Registry) setMessage(id, msg string) {
	r.update(id, func(j *Snapshot) { j.Message = msg })
}

func (r *Registry) setDisplayName(id, name string) {
	r.update(id, func(j *Snapshot) { j.DisplayName = name })
}

func (r *Registry) complete(id, outputPath string) {
	r.update(id, func(j *Snapshot) {
		if !ValidTransition(j.Status, StatusCompleted) {
			return
		}
		j.Status = StatusCompleted
		j.Progress = 100
		j.OutputPath = outputPath
		j.Message = "Conversion completed!"
	})
}

func (r *Registry) fail(id string, detail string) {
	r.update(id, func(j *Snapshot) {
		if !ValidTransition(j.Status, StatusFailed) {
			return
		}
		j.Status = StatusFailed
		j.ErrorDetail = detail
		j.Message = "Error: " + detail
	})
}
