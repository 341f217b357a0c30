package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"audioconv/ffmpeg"
	"audioconv/formats"
)

// Naming selects how output filenames avoid collisions.
type Naming int

const (
	// NameJobPrefix prefixes the filename with the job id, so concurrent
	// jobs are structurally collision-free and a retried job overwrites
	// its own prior output.
	NameJobPrefix Naming = iota
	// NameCounterSuffix appends _1, _2, ... until the name is free in the
	// output directory. Used by the batch CLI where filenames should stay
	// human-readable.
	NameCounterSuffix
)

// Request carries the desired output configuration. Zero-valued optional
// fields mean "leave it to the encoder": no resampling, default bitrate,
// source channel layout.
type Request struct {
	Format     string
	SampleRate int
	Bitrate    string
	Channels   int
}

// ConversionError reports an encoder failure with its captured diagnostics.
type ConversionError struct {
	Detail string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("conversion failed: %s", e.Detail)
	}
	return fmt.Sprintf("conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

type runFunc func(ctx context.Context, args ...string) ([]byte, []byte, error)

// Transcoder re-encodes local audio files into catalog formats.
type Transcoder struct {
	OutDir string
	Naming Naming

	run runFunc
}

func New(outDir string, naming Naming) *Transcoder {
	return &Transcoder{OutDir: outDir, Naming: naming, run: ffmpeg.Run}
}

// Convert re-encodes inputPath per req and returns the output path.
//
// The encoder writes to a hidden temp name in the output directory which is
// renamed over the final path only on success, so a failed run never
// clobbers an earlier good output. The input file is never deleted here.
func (t *Transcoder) Convert(ctx context.Context, inputPath string, req Request, jobID string) (string, error) {
	spec, err := formats.Resolve(req.Format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(t.OutDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", t.OutDir, err)
	}

	outputPath := t.outputPath(spec, inputPath, jobID)

	// temp name keeps the real extension so ffmpeg picks the right muxer
	tmpPath := filepath.Join(t.OutDir, "."+filepath.Base(outputPath))

	args := buildArgs(spec, req, inputPath, tmpPath)
	_, stderr, err := t.run(ctx, args...)
	if err != nil {
		os.Remove(tmpPath)
		return "", &ConversionError{Detail: strings.TrimSpace(string(stderr)), Err: err}
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return "", &ConversionError{Err: err}
	}
	return outputPath, nil
}

func (t *Transcoder) outputPath(spec formats.Spec, inputPath, jobID string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	if t.Naming == NameJobPrefix {
		return filepath.Join(t.OutDir, fmt.Sprintf("%s_%s.%s", jobID, stem, spec.Ext))
	}

	// counter-suffix mode: song.ogg, song_1.ogg, song_2.ogg, ...
	path := filepath.Join(t.OutDir, fmt.Sprintf("%s.%s", stem, spec.Ext))
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(t.OutDir, fmt.Sprintf("%s_%d.%s", stem, counter, spec.Ext))
	}
}

// buildArgs assembles the encoder parameters as a strict overlay: optional
// request fields that are unset produce no flag at all, and a bitrate on a
// lossless format is dropped rather than passed through.
func buildArgs(spec formats.Spec, req Request, inputPath, outputPath string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-acodec", spec.Codec,
	}
	if req.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(req.SampleRate))
	}
	if req.Bitrate != "" && !spec.Lossless() {
		args = append(args, "-b:a", req.Bitrate)
	}
	if req.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(req.Channels))
	}
	args = append(args, "-y", outputPath)
	return args
}
