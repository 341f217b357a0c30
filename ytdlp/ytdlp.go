package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var pctRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)

// Run invokes yt-dlp with the provided args and returns (stdout, stderr, error)
func Run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	ytdlp := "yt-dlp"
	log.Infoln(ytdlp, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, ytdlp, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err != nil {
		log.Errorf("yt-dlp error: %v", err)
		log.Debugln("stderr:", stderr.String())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// Title fetches the remote title without downloading anything. A dead or
// unavailable video fails here, before any bytes are transferred.
func Title(ctx context.Context, url string) (string, error) {
	stdout, stderr, err := Run(ctx, "--simulate", "--no-playlist", "--print", "%(title)s", url)
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	title := strings.TrimSpace(string(stdout))
	if title == "" {
		return "", fmt.Errorf("yt-dlp returned no title")
	}
	return title, nil
}

// DownloadAudio downloads the best audio stream for url, extracting it to
// mp3 at the path described by the output template. Download percentages
// parsed from yt-dlp's progress lines are reported through progress as a
// fraction in [0,1]; progress may be nil.
func DownloadAudio(ctx context.Context, url, outputTemplate string, progress func(float64)) error {
	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "320",
		"--no-playlist",
		"--newline",
		"-o", outputTemplate,
		url,
	}
	log.Infoln("yt-dlp", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("yt-dlp stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("yt-dlp start: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		log.Debugln("yt-dlp:", line)
		if frac, ok := parseProgressLine(line); ok && progress != nil {
			progress(frac)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// parseProgressLine extracts the percent from a "[download]  42.3% of ..."
// line as a fraction in [0,1].
func parseProgressLine(line string) (float64, bool) {
	if !strings.HasPrefix(strings.TrimSpace(line), "[download]") {
		return 0, false
	}
	m := pctRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	return pct / 100, true
}
