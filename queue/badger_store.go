// ABOUTME: BadgerDB-backed implementation of the pending-submission queue
// ABOUTME: Persists the whole list as one JSON blob per key, read-modify-write
package queue

import (
	"fmt"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"github.com/purpledash/fieldsync/models"
)

var (
	pendingKey = []byte("fieldsync/pending")
	deadKey    = []byte("fieldsync/dead")
)

// BadgerStore is the default durable queue backend.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) readPending(txn *badger.Txn) []models.PendingJob {
	item, err := txn.Get(pendingKey)
	if err != nil {
		return nil
	}
	blob, err := item.ValueCopy(nil)
	if err != nil {
		return nil
	}
	return decodePending(blob)
}

func (s *BadgerStore) writePending(txn *badger.Txn, jobs []models.PendingJob) error {
	blob, err := encodePending(jobs)
	if err != nil {
		return err
	}
	return txn.Set(pendingKey, blob)
}

func (s *BadgerStore) Enqueue(payload models.SubmissionPayload) (models.PendingJob, error) {
	job := NewPendingJob(payload)
	err := s.db.Update(func(txn *badger.Txn) error {
		jobs := append([]models.PendingJob{job}, s.readPending(txn)...)
		return s.writePending(txn, jobs)
	})
	if err != nil {
		return models.PendingJob{}, fmt.Errorf("enqueue: %w", err)
	}
	return job, nil
}

func (s *BadgerStore) Push(job models.PendingJob) error {
	return s.db.Update(func(txn *badger.Txn) error {
		jobs := append([]models.PendingJob{job}, s.readPending(txn)...)
		return s.writePending(txn, jobs)
	})
}

func (s *BadgerStore) ListAll() ([]models.PendingJob, error) {
	var jobs []models.PendingJob
	err := s.db.View(func(txn *badger.Txn) error {
		jobs = s.readPending(txn)
		return nil
	})
	return jobs, err
}

func (s *BadgerStore) Remove(id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return s.writePending(txn, removeByID(s.readPending(txn), id))
	})
}

func (s *BadgerStore) BumpAttempt(id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		jobs := s.readPending(txn)
		bumpByID(jobs, id)
		return s.writePending(txn, jobs)
	})
}

func (s *BadgerStore) Count() (int, error) {
	jobs, err := s.ListAll()
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (s *BadgerStore) Bury(job models.PendingJob, reason string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := s.writePending(txn, removeByID(s.readPending(txn), job.ID)); err != nil {
			return err
		}
		var dead []models.DeadJob
		if item, err := txn.Get(deadKey); err == nil {
			if blob, err := item.ValueCopy(nil); err == nil {
				dead = decodeDead(blob)
			}
		}
		dead = append([]models.DeadJob{{PendingJob: job, Reason: reason, BuriedAt: time.Now()}}, dead...)
		blob, err := encodeDead(dead)
		if err != nil {
			return err
		}
		return txn.Set(deadKey, blob)
	})
}

func (s *BadgerStore) ListDead() ([]models.DeadJob, error) {
	var dead []models.DeadJob
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(deadKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		blob, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		dead = decodeDead(blob)
		return nil
	})
	return dead, err
}
