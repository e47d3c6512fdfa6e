// ABOUTME: Tests for submission reconciliation
// ABOUTME: Covers entity dedupe, merge policy, idempotent replays, and best-effort steps
package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/store"
	"github.com/purpledash/fieldsync/vindecode"
)

func testPayload() models.SubmissionPayload {
	return models.SubmissionPayload{
		VIN:          "1HGCM82633A004352",
		Year:         2003,
		Make:         "Honda",
		Model:        "Accord",
		CustomerName: "Dana Fields",
		Phone:        "(312) 555-0147",
		Email:        " Dana@Example.COM ",
		Address:      "12 Elm St",
		Zip:          "60601",
		PackageID:    "full-detail",
		AddOnIDs:     []string{"pet-hair", "engine-bay"},
		TotalCharged: "250",
	}
}

func newTestReconciler(st *store.MemoryStore, dec vindecode.Decoder, online bool) *Reconciler {
	return NewReconciler(st, dec, NewStaticMonitor(online))
}

func TestReconcileCreatesEntities(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	vin, err := r.Reconcile(context.Background(), testPayload(), "key-1")
	require.NoError(t, err)
	require.Equal(t, "1HGCM82633A004352", vin)

	require.Len(t, st.Vehicles, 1)
	require.Equal(t, 2003, st.Vehicles[0].Year)
	require.Equal(t, "Honda", st.Vehicles[0].Make)

	require.Len(t, st.Customer, 1)
	require.Equal(t, "3125550147", st.Customer[0].PhoneKey)
	require.Equal(t, "dana@example.com", st.Customer[0].Email)

	require.Len(t, st.Jobs, 1)
	require.Equal(t, int64(25000), st.Jobs[0].TotalCents)
	require.Equal(t, models.DefaultCurrency, st.Jobs[0].Currency)
	require.Equal(t, models.JobStatusCompleted, st.Jobs[0].Status)
	require.Equal(t, "key-1", st.Jobs[0].IdempotencyKey)

	require.Len(t, st.Lines, 3) // package plus two add-ons
	require.Equal(t, "full-detail", st.Lines[0].ServiceID)
	for _, line := range st.Lines {
		require.Equal(t, 1, line.Quantity)
		require.Equal(t, st.Jobs[0].ID, line.JobID)
	}

	require.Len(t, st.Legacy, 1)
	require.Equal(t, "Dana Fields", st.Legacy[0].CustomerName)
}

func TestReconcileVehicleDedupedByVIN(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	_, err := r.Reconcile(context.Background(), testPayload(), "key-1")
	require.NoError(t, err)

	second := testPayload()
	second.VIN = "1hgcm82633a004352 " // same VIN, sloppy entry
	second.Nickname = "The Daily"
	_, err = r.Reconcile(context.Background(), second, "key-2")
	require.NoError(t, err)

	require.Len(t, st.Vehicles, 1)
	require.Equal(t, "The Daily", st.Vehicles[0].Nickname)
	require.Len(t, st.Jobs, 2)
	require.Len(t, st.Legacy, 1)
}

func TestReconcileCustomerMergeOnlyFillsEmptyFields(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	first := testPayload()
	first.Address = ""
	_, err := r.Reconcile(context.Background(), first, "key-1")
	require.NoError(t, err)

	second := testPayload()
	second.Phone = "1-312-555-0147" // same dedupe key
	second.Email = "other@example.com"
	second.CustomerName = "D. Fields"
	second.Address = "99 Oak Ave"
	_, err = r.Reconcile(context.Background(), second, "key-2")
	require.NoError(t, err)

	require.Len(t, st.Customer, 1)
	c := st.Customer[0]
	require.Equal(t, "Dana Fields", c.Name)            // populated, not overwritten
	require.Equal(t, "dana@example.com", c.Email)      // populated, not overwritten
	require.Equal(t, "99 Oak Ave", c.Address)          // was empty, filled
}

func TestReconcileNoPhoneMeansNewCustomer(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	p := testPayload()
	p.Phone = ""
	_, err := r.Reconcile(context.Background(), p, "key-1")
	require.NoError(t, err)
	_, err = r.Reconcile(context.Background(), p, "key-2")
	require.NoError(t, err)

	require.Len(t, st.Customer, 2)
}

func TestReconcileRejectsInvalidVIN(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	p := testPayload()
	p.VIN = "1HGCM82633A00435I" // I is not in the VIN alphabet
	_, err := r.Reconcile(context.Background(), p, "key-1")
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Empty(t, st.Vehicles)
	require.Empty(t, st.Jobs)
}

func TestReconcileIdempotencyKeySkipsDuplicateJob(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	_, err := r.Reconcile(context.Background(), testPayload(), "key-1")
	require.NoError(t, err)
	_, err = r.Reconcile(context.Background(), testPayload(), "key-1")
	require.NoError(t, err)

	require.Len(t, st.Jobs, 1)
	require.Len(t, st.Lines, 3)
}

func TestReconcileLegacyMirrorFailureIsNonFatal(t *testing.T) {
	st := store.NewMemoryEntityStore()
	st.FailWith("InsertLegacy", errors.New("mirror down"))
	r := newTestReconciler(st, nil, true)

	_, err := r.Reconcile(context.Background(), testPayload(), "key-1")
	require.NoError(t, err)
	require.Len(t, st.Jobs, 1)
	require.Empty(t, st.Legacy)
}

func TestReconcileDecodeFillsOnlyGaps(t *testing.T) {
	st := store.NewMemoryEntityStore()
	dec := &vindecode.StaticDecoder{Identity: &models.VehicleIdentity{
		Year: 2004, Make: "Acura", Model: "TSX", Trim: "Base",
	}}
	r := newTestReconciler(st, dec, true)

	p := testPayload()
	p.Year = 0
	p.Model = "" // Make stays "Honda" from the operator
	_, err := r.Reconcile(context.Background(), p, "key-1")
	require.NoError(t, err)

	require.Equal(t, 1, dec.Calls)
	v := st.Vehicles[0]
	require.Equal(t, 2004, v.Year)     // gap filled by decode
	require.Equal(t, "Honda", v.Make)  // operator input wins
	require.Equal(t, "TSX", v.Model)   // gap filled by decode
}

func TestReconcileSkipsDecodeWhenOffline(t *testing.T) {
	st := store.NewMemoryEntityStore()
	dec := &vindecode.StaticDecoder{Identity: &models.VehicleIdentity{Year: 2004}}
	r := newTestReconciler(st, dec, false)

	p := testPayload()
	p.Year = 0
	_, err := r.Reconcile(context.Background(), p, "key-1")
	require.NoError(t, err)
	require.Zero(t, dec.Calls)
	require.Zero(t, st.Vehicles[0].Year)
}

func TestReconcileDecodeFailureIsNonFatal(t *testing.T) {
	st := store.NewMemoryEntityStore()
	dec := &vindecode.StaticDecoder{Err: errors.New("decoder unavailable")}
	r := newTestReconciler(st, dec, true)

	p := testPayload()
	p.Year = 0
	p.Make = ""
	p.Model = ""
	_, err := r.Reconcile(context.Background(), p, "key-1")
	require.NoError(t, err)
	require.Len(t, st.Jobs, 1)
}

func TestReconcileHistoryLinkFailureIsNonFatal(t *testing.T) {
	st := store.NewMemoryEntityStore()
	r := newTestReconciler(st, nil, true)

	// Seed the vehicle so the identity pass has nothing to change, then
	// make the link-only update fail.
	_, err := r.Reconcile(context.Background(), testPayload(), "key-1")
	require.NoError(t, err)
	st.FailWith("UpdateVehicle", errors.New("conflict"))

	p := testPayload()
	p.ServiceHistoryLink = "https://drive.google.com/drive/folders/abc123"
	_, err = r.Reconcile(context.Background(), p, "key-2")
	require.NoError(t, err)
	require.Len(t, st.Jobs, 2)
}

func TestReconcileVehicleInsertFailureAborts(t *testing.T) {
	st := store.NewMemoryEntityStore()
	st.FailWith("InsertVehicle", store.Transient(errors.New("connection reset")))
	r := newTestReconciler(st, nil, true)

	_, err := r.Reconcile(context.Background(), testPayload(), "key-1")
	require.Error(t, err)
	require.True(t, store.IsTransient(err))
	require.Empty(t, st.Jobs)
}
