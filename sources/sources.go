package sources

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"audioconv/ytdlp"
)

type Kind string

const (
	KindLocalFile Kind = "file"
	KindRemoteURL Kind = "url"
)

// Descriptor identifies where input audio bytes come from: a validated
// local upload, or a video URL whose audio track must be extracted first.
type Descriptor struct {
	Kind Kind
	Path string // set for KindLocalFile
	URL  string // set for KindRemoteURL
}

// InvalidSourceError reports a malformed URL or a missing local file.
type InvalidSourceError struct {
	Source string
	Reason string
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source %q: %s", e.Source, e.Reason)
}

// AcquisitionError wraps a download or extraction failure.
type AcquisitionError struct {
	URL string
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

var videoHosts = []string{"youtube.com", "youtu.be"}

// Classify decides whether raw names a remote video URL or a local file.
// Anything whose hostname matches a recognized video host is remote;
// everything else is treated as a local path.
func Classify(raw string) Descriptor {
	if isVideoURL(raw) {
		return Descriptor{Kind: KindRemoteURL, URL: raw}
	}
	return Descriptor{Kind: KindLocalFile, Path: raw}
}

func isVideoURL(raw string) bool {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host := strings.ToLower(u.Hostname())
		for _, h := range videoHosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return true
			}
		}
		return false
	}
	// scheme-less input like "youtu.be/xyz"
	for _, h := range videoHosts {
		if strings.Contains(raw, h+"/") {
			return true
		}
	}
	return false
}

// Downloader is the external video-audio extraction tool.
type Downloader interface {
	Title(ctx context.Context, url string) (string, error)
	DownloadAudio(ctx context.Context, url, outputTemplate string, progress func(float64)) error
}

type ytdlpDownloader struct{}

func (ytdlpDownloader) Title(ctx context.Context, url string) (string, error) {
	return ytdlp.Title(ctx, url)
}

func (ytdlpDownloader) DownloadAudio(ctx context.Context, url, outputTemplate string, progress func(float64)) error {
	return ytdlp.DownloadAudio(ctx, url, outputTemplate, progress)
}

// Resolver turns a Descriptor into a local audio file ready for encoding.
type Resolver struct {
	DL Downloader
}

func NewResolver() *Resolver {
	return &Resolver{DL: ytdlpDownloader{}}
}

// Acquire returns a local audio path and a display title for the source.
//
// Local files are checked for existence and returned as-is. Remote URLs are
// probed for their title first, then downloaded and extracted into
// scratchDir under a name that embeds jobID, so concurrent jobs can never
// collide. Download percentages arrive on progress as fractions in [0,1].
func (r *Resolver) Acquire(ctx context.Context, desc Descriptor, scratchDir, jobID string, progress func(float64)) (string, string, error) {
	switch desc.Kind {
	case KindLocalFile:
		if _, err := os.Stat(desc.Path); err != nil {
			return "", "", &InvalidSourceError{Source: desc.Path, Reason: "file does not exist"}
		}
		return desc.Path, filepath.Base(desc.Path), nil

	case KindRemoteURL:
		title, err := r.DL.Title(ctx, desc.URL)
		if err != nil {
			return "", "", &AcquisitionError{URL: desc.URL, Err: err}
		}

		template := filepath.Join(scratchDir, jobID+"_source.%(ext)s")
		if err := r.DL.DownloadAudio(ctx, desc.URL, template, progress); err != nil {
			return "", "", &AcquisitionError{URL: desc.URL, Err: err}
		}

		// the extractor decides the final extension, so glob for the result
		matches, err := filepath.Glob(filepath.Join(scratchDir, jobID+"_source.*"))
		if err != nil || len(matches) == 0 {
			return "", "", &AcquisitionError{URL: desc.URL, Err: fmt.Errorf("no audio file produced")}
		}
		return matches[0], title, nil

	default:
		return "", "", &InvalidSourceError{Source: string(desc.Kind), Reason: "unknown source kind"}
	}
}
