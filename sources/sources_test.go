package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", KindRemoteURL},
		{"https://youtube.com/watch?v=abc", KindRemoteURL},
		{"https://youtu.be/dQw4w9WgXcQ", KindRemoteURL},
		{"https://music.youtube.com/watch?v=abc", KindRemoteURL},
		{"youtu.be/dQw4w9WgXcQ", KindRemoteURL},
		{"https://example.com/song.mp3", KindLocalFile},
		{"https://notyoutube.community/watch", KindLocalFile},
		{"song.mp3", KindLocalFile},
		{"/data/uploads/abc_song.wav", KindLocalFile},
		{"my youtube.com mixtape.mp3", KindLocalFile},
	}
	for _, tt := range tests {
		d := Classify(tt.raw)
		if d.Kind != tt.kind {
			t.Errorf("Classify(%q).Kind = %s, want %s", tt.raw, d.Kind, tt.kind)
		}
		switch tt.kind {
		case KindRemoteURL:
			if d.URL != tt.raw {
				t.Errorf("Classify(%q).URL = %q", tt.raw, d.URL)
			}
		case KindLocalFile:
			if d.Path != tt.raw {
				t.Errorf("Classify(%q).Path = %q", tt.raw, d.Path)
			}
		}
	}
}

func TestAcquireLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	r := NewResolver()
	got, title, err := r.Acquire(context.Background(), Classify(path), dir, "job1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	if title != "song.mp3" {
		t.Errorf("title = %q", title)
	}
}

func TestAcquireMissingLocalFile(t *testing.T) {
	r := NewResolver()
	_, _, err := r.Acquire(context.Background(), Classify("/nope/missing.mp3"), t.TempDir(), "job1", nil)
	var ise *InvalidSourceError
	if !errors.As(err, &ise) {
		t.Fatalf("got %v, want *InvalidSourceError", err)
	}
}

type fakeDownloader struct {
	title     string
	titleErr  error
	dlErr     error
	dlCalls   int
	titleGot  string
	makeFiles []string // basenames to create in the scratch dir on download
	scratch   string
}

func (f *fakeDownloader) Title(_ context.Context, url string) (string, error) {
	f.titleGot = url
	return f.title, f.titleErr
}

func (f *fakeDownloader) DownloadAudio(_ context.Context, _, _ string, progress func(float64)) error {
	f.dlCalls++
	if f.dlErr != nil {
		return f.dlErr
	}
	for _, name := range f.makeFiles {
		if err := os.WriteFile(filepath.Join(f.scratch, name), []byte("audio"), 0600); err != nil {
			return err
		}
	}
	if progress != nil {
		progress(0.5)
		progress(1.0)
	}
	return nil
}

func TestAcquireRemote(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeDownloader{title: "Some Song", scratch: dir, makeFiles: []string{"job9_source.mp3"}}
	r := &Resolver{DL: fake}

	var fracs []float64
	path, title, err := r.Acquire(context.Background(),
		Classify("https://youtu.be/abc"), dir, "job9",
		func(f float64) { fracs = append(fracs, f) })
	if err != nil {
		t.Fatal(err)
	}
	if title != "Some Song" {
		t.Errorf("title = %q", title)
	}
	if filepath.Base(path) != "job9_source.mp3" {
		t.Errorf("path = %q", path)
	}
	if len(fracs) != 2 || fracs[1] != 1.0 {
		t.Errorf("progress fractions = %v", fracs)
	}
}

func TestAcquireRemoteDeadVideo(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeDownloader{titleErr: fmt.Errorf("Video unavailable"), scratch: dir}
	r := &Resolver{DL: fake}

	_, _, err := r.Acquire(context.Background(), Classify("https://youtu.be/dead"), dir, "job2", nil)
	var ae *AcquisitionError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want *AcquisitionError", err)
	}
	if fake.dlCalls != 0 {
		t.Errorf("download attempted %d times after failed title probe", fake.dlCalls)
	}
	// nothing left behind in the scratch dir
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("scratch dir not empty: %v", entries)
	}
}

func TestAcquireRemoteNoFileProduced(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeDownloader{title: "T", scratch: dir} // download "succeeds" but writes nothing
	r := &Resolver{DL: fake}

	_, _, err := r.Acquire(context.Background(), Classify("https://youtu.be/x"), dir, "job3", nil)
	var ae *AcquisitionError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want *AcquisitionError", err)
	}
}
