package sweep

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger = logrus.New()

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "sweep",
	}).Logger
	return nil
}

// Sweeper periodically deletes aged files from the managed directories to
// bound disk usage. It only touches the filesystem; job records are never
// consulted or modified.
type Sweeper struct {
	Dirs     []string
	MaxAge   time.Duration
	Interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func New(dirs []string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{
		Dirs:     dirs,
		MaxAge:   maxAge,
		Interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every tick until Stop is called.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		s.sweepOnce(time.Now())
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.sweepOnce(time.Now())
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// sweepOnce deletes every regular file older than MaxAge. Failures on
// individual files are logged and skipped so one bad file cannot stall the
// rest of the sweep.
func (s *Sweeper) sweepOnce(now time.Time) {
	cutoff := now.Add(-s.MaxAge)
	removed := 0
	for _, dir := range s.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Debugf("skipping %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Debugf("failed to remove %s: %v", path, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Infof("sweep removed %d aged files", removed)
	}
}
