// ABOUTME: Pebble-backed implementation of the pending-submission queue
// ABOUTME: Alternate durable backend with the same one-blob-per-list layout
package queue

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/purpledash/fieldsync/models"
)

// PebbleStore mirrors BadgerStore on Pebble. Pebble has no interactive
// transactions, so a process-local mutex serializes the read-modify-write.
type PebbleStore struct {
	mu sync.Mutex
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func (s *PebbleStore) readBlob(key []byte) []byte {
	val, closer, err := s.db.Get(key)
	if err != nil {
		return nil
	}
	blob := append([]byte(nil), val...)
	_ = closer.Close()
	return blob
}

func (s *PebbleStore) writePending(jobs []models.PendingJob) error {
	blob, err := encodePending(jobs)
	if err != nil {
		return err
	}
	return s.db.Set(pendingKey, blob, pebble.Sync)
}

func (s *PebbleStore) Enqueue(payload models.SubmissionPayload) (models.PendingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := NewPendingJob(payload)
	jobs := append([]models.PendingJob{job}, decodePending(s.readBlob(pendingKey))...)
	if err := s.writePending(jobs); err != nil {
		return models.PendingJob{}, fmt.Errorf("enqueue: %w", err)
	}
	return job, nil
}

func (s *PebbleStore) Push(job models.PendingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writePending(append([]models.PendingJob{job}, decodePending(s.readBlob(pendingKey))...))
}

func (s *PebbleStore) ListAll() ([]models.PendingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodePending(s.readBlob(pendingKey)), nil
}

func (s *PebbleStore) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writePending(removeByID(decodePending(s.readBlob(pendingKey)), id))
}

func (s *PebbleStore) BumpAttempt(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := decodePending(s.readBlob(pendingKey))
	bumpByID(jobs, id)
	return s.writePending(jobs)
}

func (s *PebbleStore) Count() (int, error) {
	jobs, err := s.ListAll()
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (s *PebbleStore) Bury(job models.PendingJob, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writePending(removeByID(decodePending(s.readBlob(pendingKey)), job.ID)); err != nil {
		return err
	}
	dead := append([]models.DeadJob{{PendingJob: job, Reason: reason, BuriedAt: time.Now()}},
		decodeDead(s.readBlob(deadKey))...)
	blob, err := encodeDead(dead)
	if err != nil {
		return err
	}
	return s.db.Set(deadKey, blob, pebble.Sync)
}

func (s *PebbleStore) ListDead() ([]models.DeadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeDead(s.readBlob(deadKey)), nil
}
