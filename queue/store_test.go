// ABOUTME: Unit tests for the pending-submission queue
// ABOUTME: Verifies ordering, removal, attempt counting, burial, and corruption tolerance
package queue

import (
	"fmt"
	"testing"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/purpledash/fieldsync/models"
)

func payloadFor(n int) models.SubmissionPayload {
	return models.SubmissionPayload{
		VIN:          fmt.Sprintf("1HGCM82633A00435%d", n%10),
		CustomerName: fmt.Sprintf("customer-%d", n),
		PackageID:    "basic",
		TotalCharged: "100",
	}
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	bs, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	ps, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"badger": bs,
		"pebble": ps,
	}
}

func TestEnqueueOrderNewestFirst(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			var chronological []uuid.UUID
			for i := 0; i < 5; i++ {
				job, err := store.Enqueue(payloadFor(i))
				require.NoError(t, err)
				chronological = append(chronological, job.ID)
			}

			jobs, err := store.ListAll()
			require.NoError(t, err)
			require.Len(t, jobs, 5)

			// Stored list reversed must equal submission order.
			for i, job := range jobs {
				require.Equal(t, chronological[len(chronological)-1-i], job.ID)
			}

			count, err := store.Count()
			require.NoError(t, err)
			require.Equal(t, 5, count)
		})
	}
}

func TestRemoveAndBump(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			first, err := store.Enqueue(payloadFor(1))
			require.NoError(t, err)
			second, err := store.Enqueue(payloadFor(2))
			require.NoError(t, err)

			require.NoError(t, store.BumpAttempt(first.ID))
			require.NoError(t, store.BumpAttempt(first.ID))

			jobs, err := store.ListAll()
			require.NoError(t, err)
			for _, job := range jobs {
				switch job.ID {
				case first.ID:
					require.Equal(t, 2, job.Attempts)
				case second.ID:
					require.Equal(t, 0, job.Attempts)
				}
			}

			require.NoError(t, store.Remove(second.ID))
			// Removing an absent id is a no-op.
			require.NoError(t, store.Remove(uuid.New()))

			jobs, err = store.ListAll()
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			require.Equal(t, first.ID, jobs[0].ID)
		})
	}
}

func TestBumpDoesNotMutatePayload(t *testing.T) {
	store := NewMemoryStore()
	job, err := store.Enqueue(payloadFor(7))
	require.NoError(t, err)
	require.NoError(t, store.BumpAttempt(job.ID))

	jobs, err := store.ListAll()
	require.NoError(t, err)
	require.Equal(t, job.Payload, jobs[0].Payload)
	require.Equal(t, job.IdempotencyKey, jobs[0].IdempotencyKey)
	require.Equal(t, 1, jobs[0].Attempts)
}

func TestBury(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			job, err := store.Enqueue(payloadFor(3))
			require.NoError(t, err)

			require.NoError(t, store.Bury(job, "invalid VIN"))

			count, err := store.Count()
			require.NoError(t, err)
			require.Equal(t, 0, count)

			dead, err := store.ListDead()
			require.NoError(t, err)
			require.Len(t, dead, 1)
			require.Equal(t, job.ID, dead[0].ID)
			require.Equal(t, "invalid VIN", dead[0].Reason)
		})
	}
}

func TestIdempotencyKeysAreUnique(t *testing.T) {
	store := NewMemoryStore()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		job, err := store.Enqueue(payloadFor(i))
		require.NoError(t, err)
		require.NotEmpty(t, job.IdempotencyKey)
		require.False(t, seen[job.IdempotencyKey], "duplicate idempotency key")
		seen[job.IdempotencyKey] = true
	}
}

func TestCorruptBlobBehavesAsEmpty(t *testing.T) {
	dir := t.TempDir()
	bs, err := NewBadgerStore(dir)
	require.NoError(t, err)

	_, err = bs.Enqueue(payloadFor(1))
	require.NoError(t, err)

	// Clobber the stored blob with garbage.
	require.NoError(t, bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pendingKey, []byte("{not json"))
	}))

	jobs, err := bs.ListAll()
	require.NoError(t, err)
	require.Empty(t, jobs)

	// The store keeps working after corruption.
	_, err = bs.Enqueue(payloadFor(2))
	require.NoError(t, err)
	count, err := bs.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, bs.Close())
}

func TestBadgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	bs, err := NewBadgerStore(dir)
	require.NoError(t, err)

	job, err := bs.Enqueue(payloadFor(4))
	require.NoError(t, err)
	require.NoError(t, bs.Close())

	bs, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	jobs, err := bs.ListAll()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, job.ID, jobs[0].ID)
}
