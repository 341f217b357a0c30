package sweep

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSweepOnce(t *testing.T) {
	uploads := t.TempDir()
	outputs := t.TempDir()

	old1 := writeAged(t, uploads, "old.mp3", 25*time.Hour)
	old2 := writeAged(t, outputs, "old.ogg", 48*time.Hour)
	fresh := writeAged(t, outputs, "fresh.ogg", 23*time.Hour)

	s := New([]string{uploads, outputs}, 24*time.Hour, time.Hour)
	s.sweepOnce(time.Now())

	for _, path := range []string{old1, old2} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should have been swept", path)
		}
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("%s just inside the threshold was swept: %v", fresh, err)
	}
}

func TestSweepSkipsDirsAndMissingRoots(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "keepdir")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(sub, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	// a missing managed dir must not stop the sweep of the others
	old := writeAged(t, root, "old.bin", 48*time.Hour)
	s := New([]string{filepath.Join(root, "nope"), root}, 24*time.Hour, time.Hour)
	s.sweepOnce(time.Now())

	if _, err := os.Stat(sub); err != nil {
		t.Errorf("directory was removed: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("aged file survived sweep")
	}
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "old.bin", 48*time.Hour)

	s := New([]string{dir}, 24*time.Hour, time.Hour)
	s.Start()
	s.Stop() // must not hang; initial sweep already ran

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("initial sweep did not run: %v", entries)
	}
}
