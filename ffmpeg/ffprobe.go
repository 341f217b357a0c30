package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Ffprobe runs ffprobe with the provided args and returns (stdout, stderr, error)
func Ffprobe(ctx context.Context, args ...string) ([]byte, []byte, error) {
	ffprobe := "ffprobe"
	log.Infoln(ffprobe, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, ffprobe, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err != nil {
		log.Errorf("ffprobe error: %v", err)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// SampleRate returns the sample rate in Hz of the first audio stream.
func SampleRate(ctx context.Context, path string) (int, error) {
	stdout, _, err := Ffprobe(ctx,
		"-v", "quiet",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}

	rate, err := strconv.Atoi(strings.TrimSpace(string(stdout)))
	if err != nil {
		return 0, fmt.Errorf("parse sample rate: %w", err)
	}
	return rate, nil
}

// Duration returns the length in seconds of the media file at path.
func Duration(ctx context.Context, path string) (float64, error) {
	stdout, _, err := Ffprobe(ctx,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(stdout)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return seconds, nil
}
