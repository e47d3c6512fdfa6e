// ABOUTME: In-memory EntityStore for tests and dry runs
// ABOUTME: Thread-safe maps with optional per-operation failure injection
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/purpledash/fieldsync/models"
)

// MemoryStore holds all rows in memory. FailWith lets tests inject an error
// for a named operation ("InsertJob", "UpdateLegacy", ...).
type MemoryStore struct {
	mu       sync.Mutex
	Vehicles []models.Vehicle
	Customer []models.Customer
	Jobs     []models.Job
	Lines    []models.ServiceLine
	Legacy   []models.LegacyRecord
	History  []models.ServiceHistoryEntry

	failures map[string]error
}

func NewMemoryEntityStore() *MemoryStore {
	return &MemoryStore{failures: make(map[string]error)}
}

// FailWith makes the named operation return err until cleared with nil.
func (s *MemoryStore) FailWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *MemoryStore) failure(op string) error {
	return s.failures[op]
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure("Ping")
}

func (s *MemoryStore) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("FindVehicleByVIN"); err != nil {
		return nil, err
	}
	for i := range s.Vehicles {
		if s.Vehicles[i].VIN == vin {
			v := s.Vehicles[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertVehicle"); err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.Vehicles = append(s.Vehicles, *v)
	return nil
}

func (s *MemoryStore) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateVehicle"); err != nil {
		return err
	}
	v.UpdatedAt = time.Now()
	for i := range s.Vehicles {
		if s.Vehicles[i].ID == v.ID {
			s.Vehicles[i] = *v
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) FindCustomerByPhoneKey(ctx context.Context, key string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("FindCustomerByPhoneKey"); err != nil {
		return nil, err
	}
	for i := range s.Customer {
		if s.Customer[i].PhoneKey == key {
			c := s.Customer[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertCustomer(ctx context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertCustomer"); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.Customer = append(s.Customer, *c)
	return nil
}

func (s *MemoryStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateCustomer"); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	for i := range s.Customer {
		if s.Customer[i].ID == c.ID {
			s.Customer[i] = *c
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) FindJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("FindJobByIdempotencyKey"); err != nil {
		return nil, err
	}
	for i := range s.Jobs {
		if s.Jobs[i].IdempotencyKey == key {
			j := s.Jobs[i]
			return &j, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertJob(ctx context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertJob"); err != nil {
		return err
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	j.CreatedAt = time.Now()
	s.Jobs = append(s.Jobs, *j)
	return nil
}

func (s *MemoryStore) InsertServiceLine(ctx context.Context, l *models.ServiceLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertServiceLine"); err != nil {
		return err
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	s.Lines = append(s.Lines, *l)
	return nil
}

func (s *MemoryStore) FindLegacyByVIN(ctx context.Context, vin string) (*models.LegacyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("FindLegacyByVIN"); err != nil {
		return nil, err
	}
	for i := range s.Legacy {
		if strings.EqualFold(s.Legacy[i].VIN, vin) {
			r := s.Legacy[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertLegacy(ctx context.Context, r *models.LegacyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertLegacy"); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.UpdatedAt = time.Now()
	s.Legacy = append(s.Legacy, *r)
	return nil
}

func (s *MemoryStore) UpdateLegacy(ctx context.Context, r *models.LegacyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateLegacy"); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	for i := range s.Legacy {
		if s.Legacy[i].ID == r.ID {
			s.Legacy[i] = *r
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) ListServiceHistory(ctx context.Context, vin string) ([]models.ServiceHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListServiceHistory"); err != nil {
		return nil, err
	}
	var out []models.ServiceHistoryEntry
	for i := range s.History {
		if s.History[i].VIN == vin {
			out = append(out, s.History[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertServiceHistory(ctx context.Context, e *models.ServiceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertServiceHistory"); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.History = append(s.History, *e)
	return nil
}
