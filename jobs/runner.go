package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"audioconv/formats"
	"audioconv/sources"
	"audioconv/transcode"
)

// Acquirer produces a local audio file for a source descriptor.
type Acquirer interface {
	Acquire(ctx context.Context, desc sources.Descriptor, scratchDir, jobID string, progress func(float64)) (string, string, error)
}

// Converter re-encodes a local audio file per the request.
type Converter interface {
	Convert(ctx context.Context, inputPath string, req transcode.Request, jobID string) (string, error)
}

// Runner drives jobs from submission through acquisition and conversion to
// a terminal state. Every stage error is recorded on the job; nothing
// propagates beyond the job boundary.
type Runner struct {
	Registry   *Registry
	Acquirer   Acquirer
	Converter  Converter
	ScratchDir string

	// OnTerminal, when set, is called once with the final snapshot of
	// every job that reaches completed or failed.
	OnTerminal func(Snapshot)
}

func NewRunner(reg *Registry, acq Acquirer, conv Converter, scratchDir string) *Runner {
	return &Runner{
		Registry:   reg,
		Acquirer:   acq,
		Converter:  conv,
		ScratchDir: scratchDir,
	}
}

// Submit validates the request, creates a queued job, and schedules its
// execution on its own goroutine. It returns as soon as the record exists.
func (r *Runner) Submit(raw, displayName string, req transcode.Request) (string, error) {
	if _, err := formats.Resolve(req.Format); err != nil {
		return "", err
	}

	if displayName == "" {
		displayName = filepath.Base(raw)
	}
	job := r.Registry.Create(displayName)

	go r.run(context.Background(), job.ID, raw, req)
	return job.ID, nil
}

// RunBatch converts every item through a fixed-size worker pool and blocks
// until all jobs reach a terminal state. Worker count defaults to 4.
func (r *Runner) RunBatch(ctx context.Context, raws []string, req transcode.Request, workers int) []Snapshot {
	if workers <= 0 {
		workers = 4
	}

	ids := make([]string, len(raws))
	for i, raw := range raws {
		ids[i] = r.Registry.Create(filepath.Base(raw)).ID
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				r.run(ctx, ids[i], raws[i], req)
			}
		}()
	}
	for i := range raws {
		work <- i
	}
	close(work)
	wg.Wait()

	out := make([]Snapshot, len(ids))
	for i, id := range ids {
		out[i], _ = r.Registry.Get(id)
	}
	return out
}

// run executes one job: resolve format, classify, acquire, convert,
// finalize. Scratch files from remote acquisition are removed best-effort
// once conversion has returned, whatever the outcome.
func (r *Runner) run(ctx context.Context, id, raw string, req transcode.Request) {
	defer func() {
		if r.OnTerminal == nil {
			return
		}
		if snap, err := r.Registry.Get(id); err == nil && snap.Status.Terminal() {
			r.OnTerminal(snap)
		}
	}()

	if _, err := formats.Resolve(req.Format); err != nil {
		r.Registry.fail(id, err.Error())
		return
	}

	r.Registry.setProcessing(id)
	r.Registry.setProgress(id, PhaseProgress(PhaseAcquire, 0))

	desc := sources.Classify(raw)
	if desc.Kind == sources.KindRemoteURL {
		r.Registry.setMessage(id, "Downloading audio...")
	}

	inputPath, title, err := r.Acquirer.Acquire(ctx, desc, r.ScratchDir, id,
		func(frac float64) {
			r.Registry.setProgress(id, PhaseProgress(PhaseAcquire, frac))
		})
	if err != nil {
		r.Registry.fail(id, err.Error())
		return
	}
	if desc.Kind == sources.KindRemoteURL {
		r.Registry.setDisplayName(id, title)
	}
	r.Registry.setProgress(id, PhaseProgress(PhaseConvert, 0))
	r.Registry.setMessage(id, "Converting audio...")

	outputPath, convErr := r.Converter.Convert(ctx, inputPath, req, id)

	// the scratch file is no longer needed whatever convert's outcome
	if desc.Kind == sources.KindRemoteURL {
		r.cleanupScratch(id, inputPath)
	}

	if convErr != nil {
		r.Registry.fail(id, convErr.Error())
		return
	}
	r.Registry.complete(id, outputPath)
}

// cleanupScratch deletes an acquired temp file. Best-effort: a failure is
// logged and never changes the job's outcome.
func (r *Runner) cleanupScratch(id, path string) {
	if !strings.HasPrefix(filepath.Base(path), id+"_") {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Errorf("failed to remove scratch file %s for job %s: %v", path, id, err)
	}
}
