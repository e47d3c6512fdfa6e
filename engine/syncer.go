// ABOUTME: Sync scheduler over the pending-submission queue
// ABOUTME: Drains oldest-first on a timer and on offline-to-online transitions
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/purpledash/fieldsync/metrics"
	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/normalize"
	"github.com/purpledash/fieldsync/queue"
	"github.com/purpledash/fieldsync/store"
)

// DefaultSyncInterval is how often the daemon attempts a drain.
const DefaultSyncInterval = 20 * time.Second

// SubmitResult reports what happened to one capture.
type SubmitResult struct {
	Outcome string // models.SubmitOutcomeSaved or models.SubmitOutcomeQueued
	VIN     string
	JobID   string // queue entry id when queued, empty when saved
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Applied int
	Buried  int
	Stopped bool // a transient failure halted the pass early
	Skipped bool // offline, or another drain was already running
}

// Syncer owns the submit path and the drain loop. Drains are serialized by
// the syncing flag; a tick that lands mid-drain is dropped, not queued.
type Syncer struct {
	queue    queue.Store
	rec      *Reconciler
	monitor  ConnectivityMonitor
	metrics  *metrics.Registry
	interval time.Duration

	mu      sync.Mutex
	syncing bool
}

func NewSyncer(q queue.Store, rec *Reconciler, mon ConnectivityMonitor) *Syncer {
	return &Syncer{queue: q, rec: rec, monitor: mon, interval: DefaultSyncInterval}
}

// WithMetrics attaches a metrics registry; nil is allowed.
func (s *Syncer) WithMetrics(reg *metrics.Registry) *Syncer {
	s.metrics = reg
	return s
}

// WithInterval overrides the drain interval; non-positive keeps the default.
func (s *Syncer) WithInterval(d time.Duration) *Syncer {
	if d > 0 {
		s.interval = d
	}
	return s
}

// SubmitOrQueue is the single entry point for a capture. Invalid payloads
// are rejected outright and never queued. Offline, the payload is queued.
// Online, it is reconciled immediately; a network-shaped failure falls back
// to the queue under the same idempotency key, anything else surfaces to
// the operator.
func (s *Syncer) SubmitOrQueue(ctx context.Context, p models.SubmissionPayload) (*SubmitResult, error) {
	if err := ValidatePayload(p); err != nil {
		s.count(func(r *metrics.Registry) { r.SubmitRejected.Inc() })
		return nil, err
	}
	vin := normalize.VIN(p.VIN)
	job := queue.NewPendingJob(p)

	if !s.monitor.Online() {
		if err := s.queue.Push(job); err != nil {
			return nil, err
		}
		s.count(func(r *metrics.Registry) { r.SubmitQueued.Inc() })
		s.updateDepth()
		return &SubmitResult{Outcome: models.SubmitOutcomeQueued, VIN: vin, JobID: job.ID.String()}, nil
	}

	if _, err := s.rec.Reconcile(ctx, p, job.IdempotencyKey); err != nil {
		if !store.IsTransient(err) {
			s.count(func(r *metrics.Registry) { r.SubmitRejected.Inc() })
			return nil, err
		}
		log.Printf("submit for %s hit a transient failure, queuing: %v", vin, err)
		if qerr := s.queue.Push(job); qerr != nil {
			return nil, qerr
		}
		s.count(func(r *metrics.Registry) { r.SubmitQueued.Inc() })
		s.updateDepth()
		return &SubmitResult{Outcome: models.SubmitOutcomeQueued, VIN: vin, JobID: job.ID.String()}, nil
	}

	s.count(func(r *metrics.Registry) { r.SubmitSaved.Inc() })
	return &SubmitResult{Outcome: models.SubmitOutcomeSaved, VIN: vin}, nil
}

// Drain replays queued entries oldest-first. Each attempt bumps the entry's
// counter before reconciling, so a crash mid-attempt still leaves a trace.
// Validation failures are buried and the pass continues; the first
// transient failure stops the pass, leaving the rest for the next run.
func (s *Syncer) Drain(ctx context.Context) DrainResult {
	if !s.monitor.Online() {
		return DrainResult{Skipped: true}
	}

	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return DrainResult{Skipped: true}
	}
	s.syncing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	jobs, err := s.queue.ListAll()
	if err != nil {
		log.Printf("drain: list queue: %v", err)
		return DrainResult{Skipped: true}
	}

	var result DrainResult
	// Stored newest-first; replay in capture order.
	for i := len(jobs) - 1; i >= 0; i-- {
		job := jobs[i]
		if err := s.queue.BumpAttempt(job.ID); err != nil {
			log.Printf("drain: bump %s: %v", job.ID, err)
		}
		job.Attempts++

		_, err := s.rec.Reconcile(ctx, job.Payload, job.IdempotencyKey)
		switch {
		case err == nil:
			if rerr := s.queue.Remove(job.ID); rerr != nil {
				log.Printf("drain: remove %s: %v", job.ID, rerr)
			}
			result.Applied++
			s.count(func(r *metrics.Registry) { r.DrainApplied.Inc() })
		case IsValidation(err):
			log.Printf("drain: burying %s: %v", job.ID, err)
			if berr := s.queue.Bury(job, err.Error()); berr != nil {
				log.Printf("drain: bury %s: %v", job.ID, berr)
			}
			result.Buried++
			s.count(func(r *metrics.Registry) { r.DrainDead.Inc() })
		default:
			log.Printf("drain: stopping after %s (attempt %d): %v", job.ID, job.Attempts, err)
			result.Stopped = true
			s.count(func(r *metrics.Registry) { r.DrainFailed.Inc() })
		}
		if result.Stopped {
			break
		}
	}

	s.updateDepth()
	return result
}

// Run drains on the interval and immediately whenever connectivity returns,
// until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	s.monitor.Subscribe(func(online bool) {
		s.count(func(r *metrics.Registry) {
			if online {
				r.Online.Set(1)
			} else {
				r.Online.Set(0)
			}
		})
		if online {
			go s.Drain(ctx)
		}
	})

	s.Drain(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Drain(ctx)
		}
	}
}

// Status reports the operator-facing snapshot.
func (s *Syncer) Status() (queued int, dead int, online bool, syncing bool) {
	queued, _ = s.queue.Count()
	if deadJobs, err := s.queue.ListDead(); err == nil {
		dead = len(deadJobs)
	}
	s.mu.Lock()
	syncing = s.syncing
	s.mu.Unlock()
	return queued, dead, s.monitor.Online(), syncing
}

func (s *Syncer) count(fn func(*metrics.Registry)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

func (s *Syncer) updateDepth() {
	if s.metrics == nil {
		return
	}
	if n, err := s.queue.Count(); err == nil {
		s.metrics.QueueDepth.Set(float64(n))
	}
}
