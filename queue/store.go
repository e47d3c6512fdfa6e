// ABOUTME: Durable device-local queue of pending submissions
// ABOUTME: Defines the Store interface, entry construction, and the in-memory backend
package queue

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/purpledash/fieldsync/models"
)

// Store is the persistent pending-submission queue. Entries are stored
// newest-first; callers that need chronological order reverse ListAll.
// Implementations serialize the whole list as one blob per mutation, so
// concurrent writers from separate processes are not coordinated.
type Store interface {
	// Enqueue wraps the payload in a fresh PendingJob and prepends it.
	Enqueue(payload models.SubmissionPayload) (models.PendingJob, error)
	// Push prepends an already-constructed entry, preserving its
	// idempotency key (used when an immediate submit falls back to the
	// queue after a network-shaped failure).
	Push(job models.PendingJob) error
	// ListAll returns the stored list as-is (newest-first).
	ListAll() ([]models.PendingJob, error)
	// Remove deletes the entry with the given id; no-op when absent.
	Remove(id uuid.UUID) error
	// BumpAttempt increments the attempt count for the given id.
	BumpAttempt(id uuid.UUID) error
	// Count returns the number of queued entries.
	Count() (int, error)
	// Bury moves a terminally failed entry to the dead-letter list.
	Bury(job models.PendingJob, reason string) error
	// ListDead returns the dead-letter list, newest-first.
	ListDead() ([]models.DeadJob, error)
	Close() error
}

// NewPendingJob snapshots a payload into a queue entry with a fresh id and
// a client-generated idempotency key.
func NewPendingJob(payload models.SubmissionPayload) models.PendingJob {
	now := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return models.PendingJob{
		ID:             uuid.New(),
		IdempotencyKey: ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		CreatedAt:      now,
		Attempts:       0,
		Payload:        payload,
	}
}

func encodePending(jobs []models.PendingJob) ([]byte, error) { return json.Marshal(jobs) }

// decodePending tolerates corruption: an unparsable blob behaves as empty.
func decodePending(blob []byte) []models.PendingJob {
	if len(blob) == 0 {
		return nil
	}
	var jobs []models.PendingJob
	if err := json.Unmarshal(blob, &jobs); err != nil {
		return nil
	}
	return jobs
}

func encodeDead(jobs []models.DeadJob) ([]byte, error) { return json.Marshal(jobs) }

func decodeDead(blob []byte) []models.DeadJob {
	if len(blob) == 0 {
		return nil
	}
	var jobs []models.DeadJob
	if err := json.Unmarshal(blob, &jobs); err != nil {
		return nil
	}
	return jobs
}

func removeByID(jobs []models.PendingJob, id uuid.UUID) []models.PendingJob {
	out := jobs[:0]
	for _, j := range jobs {
		if j.ID != id {
			out = append(out, j)
		}
	}
	return out
}

func bumpByID(jobs []models.PendingJob, id uuid.UUID) {
	for i := range jobs {
		if jobs[i].ID == id {
			jobs[i].Attempts++
			return
		}
	}
}

// MemoryStore is a non-durable Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	pending []models.PendingJob
	dead    []models.DeadJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Enqueue(payload models.SubmissionPayload) (models.PendingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := NewPendingJob(payload)
	s.pending = append([]models.PendingJob{job}, s.pending...)
	return job, nil
}

func (s *MemoryStore) Push(job models.PendingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append([]models.PendingJob{job}, s.pending...)
	return nil
}

func (s *MemoryStore) ListAll() ([]models.PendingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PendingJob, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

func (s *MemoryStore) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = removeByID(s.pending, id)
	return nil
}

func (s *MemoryStore) BumpAttempt(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bumpByID(s.pending, id)
	return nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), nil
}

func (s *MemoryStore) Bury(job models.PendingJob, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = removeByID(s.pending, job.ID)
	s.dead = append([]models.DeadJob{{PendingJob: job, Reason: reason, BuriedAt: time.Now()}}, s.dead...)
	return nil
}

func (s *MemoryStore) ListDead() ([]models.DeadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DeadJob, len(s.dead))
	copy(out, s.dead)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
