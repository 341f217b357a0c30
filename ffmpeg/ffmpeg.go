package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Run invokes ffmpeg with the provided args and returns (stdout, stderr, error).
// Both streams are captured so encoder diagnostics can be attached to errors.
func Run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	ffmpeg := "ffmpeg"
	log.Infoln(ffmpeg, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err != nil {
		log.Errorf("ffmpeg error: %v", err)
		log.Debugln("stderr:", stderr.String())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
