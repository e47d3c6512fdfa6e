// ABOUTME: Tests for the SQLite EntityStore
// ABOUTME: Covers roundtrips, nil-on-absent lookups, and case-insensitive legacy VIN matching
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/purpledash/fieldsync/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVehicleRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	missing, err := s.FindVehicleByVIN(ctx, "1HGCM82633A004352")
	require.NoError(t, err)
	require.Nil(t, missing)

	v := &models.Vehicle{VIN: "1HGCM82633A004352", Year: 2003, Make: "Honda", Model: "Accord"}
	require.NoError(t, s.InsertVehicle(ctx, v))
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", v.ID.String())

	found, err := s.FindVehicleByVIN(ctx, "1HGCM82633A004352")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, v.ID, found.ID)
	require.Equal(t, 2003, found.Year)

	found.Nickname = "The Daily"
	require.NoError(t, s.UpdateVehicle(ctx, found))

	again, err := s.FindVehicleByVIN(ctx, "1HGCM82633A004352")
	require.NoError(t, err)
	require.Equal(t, "The Daily", again.Nickname)
}

func TestCustomerLookupByPhoneKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := &models.Customer{Name: "Dana Fields", Phone: "(312) 555-0147", PhoneKey: "3125550147"}
	require.NoError(t, s.InsertCustomer(ctx, c))

	found, err := s.FindCustomerByPhoneKey(ctx, "3125550147")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Dana Fields", found.Name)

	none, err := s.FindCustomerByPhoneKey(ctx, "0000000000")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestJobAndServiceLines(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v := &models.Vehicle{VIN: "1HGCM82633A004352"}
	require.NoError(t, s.InsertVehicle(ctx, v))
	c := &models.Customer{Name: "Dana Fields"}
	require.NoError(t, s.InsertCustomer(ctx, c))

	j := &models.Job{
		CustomerID:     c.ID,
		VehicleID:      v.ID,
		PerformedAt:    time.Now(),
		TotalCents:     25000,
		Currency:       models.DefaultCurrency,
		Status:         models.JobStatusCompleted,
		IdempotencyKey: "01JTESTKEY",
	}
	require.NoError(t, s.InsertJob(ctx, j))
	require.NoError(t, s.InsertServiceLine(ctx, &models.ServiceLine{JobID: j.ID, ServiceID: "full-detail", Quantity: 1}))

	found, err := s.FindJobByIdempotencyKey(ctx, "01JTESTKEY")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, int64(25000), found.TotalCents)
	require.Equal(t, c.ID, found.CustomerID)

	none, err := s.FindJobByIdempotencyKey(ctx, "01JOTHERKEY")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestJobIdempotencyKeyUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := &models.Job{PerformedAt: time.Now(), Currency: "USD", Status: models.JobStatusCompleted, IdempotencyKey: "01JDUPKEY"}
	require.NoError(t, s.InsertJob(ctx, j))

	dup := &models.Job{PerformedAt: time.Now(), Currency: "USD", Status: models.JobStatusCompleted, IdempotencyKey: "01JDUPKEY"}
	require.Error(t, s.InsertJob(ctx, dup))
}

func TestLegacyVINMatchIsCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := &models.LegacyRecord{VIN: "1HGCM82633A004352", CustomerName: "Dana Fields"}
	require.NoError(t, s.InsertLegacy(ctx, r))

	found, err := s.FindLegacyByVIN(ctx, "1hgcm82633a004352")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Dana Fields", found.CustomerName)

	found.CustomerName = "D. Fields"
	require.NoError(t, s.UpdateLegacy(ctx, found))

	again, err := s.FindLegacyByVIN(ctx, "1HGCM82633A004352")
	require.NoError(t, err)
	require.Equal(t, "D. Fields", again.CustomerName)
}

func TestServiceHistoryByVIN(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertServiceHistory(ctx, &models.ServiceHistoryEntry{
		VIN: "1HGCM82633A004352", Date: "2024-01-15", ServiceType: "Full Detail", Technician: "Mo",
	}))
	require.NoError(t, s.InsertServiceHistory(ctx, &models.ServiceHistoryEntry{
		VIN: "1HGCM82633A004352", Date: "2024-06-02", ServiceType: "Interior",
	}))
	require.NoError(t, s.InsertServiceHistory(ctx, &models.ServiceHistoryEntry{
		VIN: "5YJSA1E26MF000001", Date: "2024-03-01", ServiceType: "Wash",
	}))

	entries, err := s.ListServiceHistory(ctx, "1HGCM82633A004352")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "2024-06-02", entries[0].Date) // newest first

	empty, err := s.ListServiceHistory(ctx, "JH4KA7561PC000000")
	require.NoError(t, err)
	require.Empty(t, empty)
}
