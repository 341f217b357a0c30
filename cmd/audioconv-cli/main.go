// Command audioconv-cli converts local audio files and YouTube URLs in
// batch, using a fixed-size worker pool instead of the server's
// goroutine-per-job scheduling.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"audioconv/config"
	"audioconv/ffmpeg"
	"audioconv/formats"
	"audioconv/jobs"
	"audioconv/sources"
	"audioconv/transcode"
	"audioconv/ytdlp"
)

func main() {
	os.Exit(run())
}

func run() int {
	formatID := flag.String("f", "ogg", "output format")
	sampleRate := flag.Int("s", 0, "sample rate in Hz (e.g. 32000 for HOI4); 0 keeps the source rate")
	bitrate := flag.String("b", "", "bitrate (e.g. 128k, 256k); empty uses the format default")
	channels := flag.Int("c", 0, "channel count; 0 keeps the source layout")
	outputDir := flag.String("o", "converted", "output directory")
	presetName := flag.String("preset", "", "preset settings (hoi4, stellaris, ck3, hq, compressed, podcast, music_hq, voice)")
	workers := flag.Int("j", 4, "number of parallel jobs")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 1
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	ffmpeg.Init(log)
	ytdlp.Init(log)
	jobs.Init(log)

	req := transcode.Request{
		Format:     *formatID,
		SampleRate: *sampleRate,
		Bitrate:    *bitrate,
		Channels:   *channels,
	}
	if *presetName != "" {
		preset, ok := config.Default().Presets[*presetName]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown preset: %s\n", *presetName)
			return 1
		}
		req.Format = preset.Format
		req.SampleRate = preset.SampleRate
		req.Bitrate = preset.Bitrate
		fmt.Printf("Using %s preset: %s", *presetName, preset.Format)
		if preset.SampleRate > 0 {
			fmt.Printf(", %d Hz", preset.SampleRate)
		}
		if preset.Bitrate != "" {
			fmt.Printf(", %s", preset.Bitrate)
		}
		fmt.Println()
	}

	if _, err := formats.Resolve(req.Format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintf(os.Stderr, "supported formats: %s\n", strings.Join(formats.IDs(), ", "))
		return 1
	}

	items := expandInputs(flag.Args())
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "no input files found")
		return 1
	}

	scratchDir, err := os.MkdirTemp("", "audioconv-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer os.RemoveAll(scratchDir)

	fmt.Printf("Processing %d item(s) -> %s (format %s)\n", len(items), *outputDir, req.Format)

	registry := jobs.NewRegistry()
	transcoder := transcode.New(*outputDir, transcode.NameCounterSuffix)
	runner := jobs.NewRunner(registry, sources.NewResolver(), transcoder, scratchDir)

	snaps := runner.RunBatch(context.Background(), items, req, *workers)

	succeeded := 0
	for _, snap := range snaps {
		if snap.Status == jobs.StatusCompleted {
			succeeded++
			fmt.Printf("  ok   %s -> %s\n", snap.DisplayName, snap.OutputPath)
		} else {
			fmt.Printf("  FAIL %s: %s\n", snap.DisplayName, snap.ErrorDetail)
		}
	}

	absOut, _ := filepath.Abs(*outputDir)
	fmt.Printf("Conversion complete! %d/%d files converted successfully.\n", succeeded, len(items))
	fmt.Printf("Output directory: %s\n", absOut)

	if succeeded != len(items) {
		return 1
	}
	return 0
}

// expandInputs resolves glob patterns in the arguments. URLs and plain
// paths pass through untouched.
func expandInputs(args []string) []string {
	var items []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") && sources.Classify(arg).Kind == sources.KindLocalFile {
			matches, err := filepath.Glob(arg)
			if err == nil && len(matches) > 0 {
				items = append(items, matches...)
				continue
			}
		}
		items = append(items, arg)
	}
	return items
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: audioconv-cli [flags] <files, globs, or YouTube URLs>

Examples:
  # Convert a single file to OGG (HOI4 settings)
  audioconv-cli -f ogg -s 32000 -b 128k audio.mp3

  # Convert a YouTube video to MP3
  audioconv-cli -f mp3 "https://youtube.com/watch?v=..."

  # Batch convert with a preset
  audioconv-cli -preset hoi4 '*.mp3'

Supported formats: %s

Flags:
`, strings.Join(formats.IDs(), ", "))
	flag.PrintDefaults()
}
