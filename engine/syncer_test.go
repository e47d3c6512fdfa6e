// ABOUTME: Tests for the submit path and queue drain scheduler
// ABOUTME: Covers offline queuing, ordered replay, transient stops, and burials
package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/queue"
	"github.com/purpledash/fieldsync/store"
)

func newTestSyncer(st *store.MemoryStore, online bool) (*Syncer, *queue.MemoryStore, *StaticMonitor) {
	mon := NewStaticMonitor(online)
	q := queue.NewMemoryStore()
	rec := NewReconciler(st, nil, mon)
	return NewSyncer(q, rec, mon), q, mon
}

func TestSubmitOnlineSavesImmediately(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, _ := newTestSyncer(st, true)

	res, err := s.SubmitOrQueue(context.Background(), testPayload())
	require.NoError(t, err)
	require.Equal(t, models.SubmitOutcomeSaved, res.Outcome)
	require.Equal(t, "1HGCM82633A004352", res.VIN)

	n, err := q.Count()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, st.Jobs, 1)
}

func TestSubmitOfflineQueues(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, _ := newTestSyncer(st, false)

	res, err := s.SubmitOrQueue(context.Background(), testPayload())
	require.NoError(t, err)
	require.Equal(t, models.SubmitOutcomeQueued, res.Outcome)
	require.NotEmpty(t, res.JobID)

	n, err := q.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Empty(t, st.Jobs)
}

func TestSubmitInvalidNeverQueued(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, _ := newTestSyncer(st, false)

	p := testPayload()
	p.VIN = "too-short"
	_, err := s.SubmitOrQueue(context.Background(), p)
	require.Error(t, err)
	require.True(t, IsValidation(err))

	n, err := q.Count()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSubmitTransientFailureFallsBackToQueue(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, _ := newTestSyncer(st, true)
	st.FailWith("InsertJob", store.Transient(errors.New("gateway timeout")))

	res, err := s.SubmitOrQueue(context.Background(), testPayload())
	require.NoError(t, err)
	require.Equal(t, models.SubmitOutcomeQueued, res.Outcome)

	// The queued entry keeps the idempotency key from the failed attempt,
	// so the eventual replay cannot double-insert the job.
	jobs, err := q.ListAll()
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	st.FailWith("InsertJob", nil)
	result := s.Drain(context.Background())
	require.Equal(t, 1, result.Applied)
	require.Len(t, st.Jobs, 1)
	require.Equal(t, jobs[0].IdempotencyKey, st.Jobs[0].IdempotencyKey)
}

func TestSubmitHardFailureSurfaces(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, _ := newTestSyncer(st, true)
	st.FailWith("InsertJob", errors.New("422 rejected"))

	_, err := s.SubmitOrQueue(context.Background(), testPayload())
	require.Error(t, err)

	n, err := q.Count()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDrainReplaysOldestFirst(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, mon := newTestSyncer(st, false)

	for i := 0; i < 3; i++ {
		p := testPayload()
		p.Notes = fmt.Sprintf("capture %d", i)
		_, err := s.SubmitOrQueue(context.Background(), p)
		require.NoError(t, err)
	}

	mon.SetOnline(true)
	result := s.Drain(context.Background())
	require.Equal(t, 3, result.Applied)
	require.False(t, result.Stopped)

	n, err := q.Count()
	require.NoError(t, err)
	require.Zero(t, n)

	require.Len(t, st.Jobs, 3)
	for i, job := range st.Jobs {
		require.Equal(t, fmt.Sprintf("capture %d", i), job.Notes)
	}
}

func TestDrainStopsOnFirstTransientFailure(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, mon := newTestSyncer(st, false)

	for i := 0; i < 2; i++ {
		_, err := s.SubmitOrQueue(context.Background(), testPayload())
		require.NoError(t, err)
	}
	mon.SetOnline(true)
	st.FailWith("InsertJob", store.Transient(errors.New("connection refused")))

	result := s.Drain(context.Background())
	require.Zero(t, result.Applied)
	require.True(t, result.Stopped)

	jobs, err := q.ListAll()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	// Only the oldest entry was attempted; newest-first order means it is
	// the last element.
	require.Equal(t, 1, jobs[1].Attempts)
	require.Zero(t, jobs[0].Attempts)
}

func TestDrainBuriesInvalidEntriesAndContinues(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, q, mon := newTestSyncer(st, false)

	bad := testPayload()
	bad.CustomerName = ""
	require.NoError(t, q.Push(queue.NewPendingJob(bad)))
	_, err := s.SubmitOrQueue(context.Background(), testPayload())
	require.NoError(t, err)

	mon.SetOnline(true)
	result := s.Drain(context.Background())
	require.Equal(t, 1, result.Applied)
	require.Equal(t, 1, result.Buried)
	require.False(t, result.Stopped)

	dead, err := q.ListDead()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	require.Contains(t, dead[0].Reason, "customer name")

	n, err := q.Count()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDrainSkippedWhileOffline(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, _, _ := newTestSyncer(st, false)

	result := s.Drain(context.Background())
	require.True(t, result.Skipped)
}

func TestStatusReportsQueueAndConnectivity(t *testing.T) {
	st := store.NewMemoryEntityStore()
	s, _, mon := newTestSyncer(st, false)

	_, err := s.SubmitOrQueue(context.Background(), testPayload())
	require.NoError(t, err)

	queued, dead, online, syncing := s.Status()
	require.Equal(t, 1, queued)
	require.Zero(t, dead)
	require.False(t, online)
	require.False(t, syncing)

	mon.SetOnline(true)
	_, _, online, _ = s.Status()
	require.True(t, online)
}
