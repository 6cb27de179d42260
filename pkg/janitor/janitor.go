// Package janitor runs the scheduled sweep that reclaims orphaned JobDirs:
// the §4.5 state machine promises every job reaches "Cleaned", but a
// worker process that crashes between "Accepted" and "Cleaned" leaves its
// JobDir on disk with no coordinator left to destroy it. The janitor is the
// thing that eventually gets it there anyway.
package janitor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coderunner/sandbox/pkg/observability"
)

// Sweeper removes JobDirs under base/exec that are older than grace and
// reports what it did via metrics, if configured.
type Sweeper struct {
	base    string
	grace   time.Duration
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewSweeper builds a Sweeper over base/exec with the given grace period: a
// JobDir younger than grace is assumed to still have a live coordinator and
// is left alone.
func NewSweeper(base string, grace time.Duration, log *observability.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{base: base, grace: grace, log: log, metrics: metrics}
}

// Sweep performs one pass and returns the number of directories removed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	execBase := filepath.Join(s.base, "exec")
	entries, err := os.ReadDir(execBase)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).Warn("janitor: failed to list exec base")
		}
		return 0
	}

	cutoff := time.Now().Add(-s.grace)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(execBase, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			if s.log != nil {
				s.log.WithField("path", path).WithError(err).Warn("janitor: failed to remove orphaned job directory")
			}
			continue
		}
		removed++
		if s.log != nil {
			s.log.WithField("path", path).Info("janitor: removed orphaned job directory")
		}
	}

	if s.metrics != nil {
		s.metrics.JanitorSweepsTotal.Inc()
		if removed > 0 {
			s.metrics.JanitorOrphansRemovedTotal.Add(float64(removed))
		}
	}

	return removed
}

// Scheduler runs Sweep on a cron schedule until Stop is called.
type Scheduler struct {
	cron *cron.Cron
	sw   *Sweeper
}

// NewScheduler wires sw to fire every interval via a cron spec built from a
// plain duration, so callers configure it the same way they configure every
// other interval in this service (SANDBOX_JANITOR_INTERVAL) without having
// to hand-author a cron expression.
func NewScheduler(sw *Sweeper, interval time.Duration) *Scheduler {
	c := cron.New()
	spec := "@every " + interval.String()
	c.AddFunc(spec, func() {
		if sw.log != nil {
			defer observability.RecoverPanic(sw.log, "janitor sweep")
		}
		sw.Sweep(context.Background())
	})
	return &Scheduler{cron: c, sw: sw}
}

// Start begins the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
