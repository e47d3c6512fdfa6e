// ABOUTME: Reconciliation of one captured submission into the entity store
// ABOUTME: Resolves vehicle and customer, records the job, and mirrors the legacy row
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/purpledash/fieldsync/metrics"
	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/normalize"
	"github.com/purpledash/fieldsync/store"
	"github.com/purpledash/fieldsync/vindecode"
)

// Reconciler applies one submission payload to the entity store. The same
// code path serves immediate online submits and queue drains; the
// idempotency key makes replays after partial failures safe at the job
// level.
type Reconciler struct {
	store   store.EntityStore
	decoder vindecode.Decoder
	monitor ConnectivityMonitor
	metrics *metrics.Registry
}

func NewReconciler(st store.EntityStore, dec vindecode.Decoder, mon ConnectivityMonitor) *Reconciler {
	return &Reconciler{store: st, decoder: dec, monitor: mon}
}

// WithMetrics attaches a metrics registry; nil is allowed.
func (r *Reconciler) WithMetrics(reg *metrics.Registry) *Reconciler {
	r.metrics = reg
	return r
}

// ValidatePayload checks the fields a submission cannot do without. It is
// deliberately narrow: everything else is normalized or defaulted instead
// of rejected, because captures happen in a driveway, not at a desk.
func ValidatePayload(p models.SubmissionPayload) error {
	vin := normalize.VIN(p.VIN)
	if !normalize.IsValidVIN(vin) {
		return validationf("invalid VIN %q", p.VIN)
	}
	if p.CustomerName == "" {
		return validationf("customer name is required")
	}
	if p.PackageID == "" {
		return validationf("package is required")
	}
	if normalize.DollarsToCents(p.TotalCharged) <= 0 {
		return validationf("total charged must be a positive amount, got %q", p.TotalCharged)
	}
	return nil
}

// Reconcile applies the payload and returns the canonical VIN. Failures in
// entity resolution or the job insert abort the run and leave the entry
// eligible for retry; the history link and legacy mirror are best-effort.
func (r *Reconciler) Reconcile(ctx context.Context, p models.SubmissionPayload, idempotencyKey string) (string, error) {
	if r.metrics != nil {
		start := time.Now()
		defer func() { r.metrics.ReconcileLatency.Observe(time.Since(start).Seconds()) }()
	}

	if err := ValidatePayload(p); err != nil {
		return "", err
	}
	vin := normalize.VIN(p.VIN)

	vehicle, err := r.resolveVehicle(ctx, vin, p)
	if err != nil {
		return "", err
	}

	if p.ServiceHistoryLink != "" && p.ServiceHistoryLink != vehicle.ServiceHistoryLink {
		vehicle.ServiceHistoryLink = p.ServiceHistoryLink
		if err := r.store.UpdateVehicle(ctx, vehicle); err != nil {
			log.Printf("history link update for %s failed: %v", vin, err)
		}
	}

	customer, err := r.resolveCustomer(ctx, p)
	if err != nil {
		return "", err
	}

	if err := r.recordJob(ctx, vehicle, customer, p, idempotencyKey); err != nil {
		return "", err
	}

	if err := r.mirrorLegacy(ctx, vin, vehicle, customer); err != nil {
		log.Printf("legacy mirror for %s failed: %v", vin, err)
	}

	return vin, nil
}

// resolveVehicle finds or creates the per-VIN row, folds in the payload's
// identity fields, and fills remaining gaps from the decoder when online.
func (r *Reconciler) resolveVehicle(ctx context.Context, vin string, p models.SubmissionPayload) (*models.Vehicle, error) {
	vehicle, err := r.store.FindVehicleByVIN(ctx, vin)
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	if vehicle == nil {
		vehicle = &models.Vehicle{VIN: vin}
		if err := r.store.InsertVehicle(ctx, vehicle); err != nil {
			return nil, fmt.Errorf("insert vehicle: %w", err)
		}
	}

	changed := applyVehicleFields(vehicle, p)

	if r.decoder != nil && r.isOnline() && identityIncomplete(vehicle) {
		identity, err := r.decoder.Decode(ctx, vin)
		if err != nil {
			log.Printf("vin decode for %s failed: %v", vin, err)
		} else if identity != nil {
			changed = applyDecodedIdentity(vehicle, *identity) || changed
		}
	}

	if changed {
		if err := r.store.UpdateVehicle(ctx, vehicle); err != nil {
			return nil, fmt.Errorf("update vehicle: %w", err)
		}
	}
	return vehicle, nil
}

// applyVehicleFields overwrites vehicle fields with any the payload carries.
// The latest capture wins; blanks never clobber existing values.
func applyVehicleFields(v *models.Vehicle, p models.SubmissionPayload) bool {
	changed := false
	setInt := func(dst *int, src int) {
		if src != 0 && *dst != src {
			*dst = src
			changed = true
		}
	}
	set := func(dst *string, src string) {
		if src != "" && *dst != src {
			*dst = src
			changed = true
		}
	}
	setInt(&v.Year, p.Year)
	set(&v.Make, p.Make)
	set(&v.Model, p.Model)
	set(&v.Trim, p.Trim)
	set(&v.Nickname, p.Nickname)
	set(&v.LicensePlate, p.LicensePlate)
	set(&v.Odometer, p.Odometer)
	set(&v.LeaseOrOwned, p.LeaseOrOwned)
	set(&v.PrimaryUse, p.PrimaryUse)
	return changed
}

func identityIncomplete(v *models.Vehicle) bool {
	return v.Year == 0 || v.Make == "" || v.Model == ""
}

// applyDecodedIdentity fills only fields still empty. Operator input always
// outranks the decoder.
func applyDecodedIdentity(v *models.Vehicle, id models.VehicleIdentity) bool {
	changed := false
	if v.Year == 0 && id.Year != 0 {
		v.Year = id.Year
		changed = true
	}
	if v.Make == "" && id.Make != "" {
		v.Make = id.Make
		changed = true
	}
	if v.Model == "" && id.Model != "" {
		v.Model = id.Model
		changed = true
	}
	if v.Trim == "" && id.Trim != "" {
		v.Trim = id.Trim
		changed = true
	}
	return changed
}

// resolveCustomer dedupes by phone key and merges only into empty fields.
// A payload with no phone digits always creates a fresh customer.
func (r *Reconciler) resolveCustomer(ctx context.Context, p models.SubmissionPayload) (*models.Customer, error) {
	phoneKey := normalize.Phone(p.Phone)

	var customer *models.Customer
	if phoneKey != "" {
		existing, err := r.store.FindCustomerByPhoneKey(ctx, phoneKey)
		if err != nil {
			return nil, fmt.Errorf("find customer: %w", err)
		}
		customer = existing
	}

	if customer == nil {
		customer = &models.Customer{
			Name:     p.CustomerName,
			Phone:    p.Phone,
			PhoneKey: phoneKey,
			Email:    normalize.Email(p.Email),
			Address:  p.Address,
			Zip:      normalize.Zip(p.Zip),
		}
		if err := r.store.InsertCustomer(ctx, customer); err != nil {
			return nil, fmt.Errorf("insert customer: %w", err)
		}
		return customer, nil
	}

	if mergeCustomer(customer, p) {
		if err := r.store.UpdateCustomer(ctx, customer); err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}
	return customer, nil
}

// mergeCustomer fills empty fields from the payload and never overwrites
// populated ones.
func mergeCustomer(c *models.Customer, p models.SubmissionPayload) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&c.Name, p.CustomerName)
	fill(&c.Phone, p.Phone)
	fill(&c.Email, normalize.Email(p.Email))
	fill(&c.Address, p.Address)
	fill(&c.Zip, normalize.Zip(p.Zip))
	return changed
}

// recordJob inserts the job and its service lines, skipping entirely when a
// job with this idempotency key already exists from an earlier attempt.
func (r *Reconciler) recordJob(ctx context.Context, vehicle *models.Vehicle, customer *models.Customer, p models.SubmissionPayload, idempotencyKey string) error {
	existing, err := r.store.FindJobByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return fmt.Errorf("find job: %w", err)
	}
	if existing != nil {
		return nil
	}

	currency := p.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	performedAt := p.PerformedAt
	if performedAt.IsZero() {
		performedAt = time.Now()
	}

	job := &models.Job{
		CustomerID:     customer.ID,
		VehicleID:      vehicle.ID,
		PerformedAt:    performedAt,
		Notes:          p.Notes,
		TotalCents:     normalize.DollarsToCents(p.TotalCharged),
		Currency:       currency,
		Status:         models.JobStatusCompleted,
		IdempotencyKey: idempotencyKey,
	}
	if err := r.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	serviceIDs := append([]string{p.PackageID}, p.AddOnIDs...)
	for _, sid := range serviceIDs {
		line := &models.ServiceLine{JobID: job.ID, ServiceID: sid, Quantity: 1}
		if err := r.store.InsertServiceLine(ctx, line); err != nil {
			return fmt.Errorf("insert service line %s: %w", sid, err)
		}
	}
	return nil
}

// mirrorLegacy keeps the old dashboard's denormalized per-VIN row current.
func (r *Reconciler) mirrorLegacy(ctx context.Context, vin string, vehicle *models.Vehicle, customer *models.Customer) error {
	record, err := r.store.FindLegacyByVIN(ctx, vin)
	if err != nil {
		return err
	}
	insert := record == nil
	if insert {
		record = &models.LegacyRecord{VIN: vin}
	}

	record.CustomerName = customer.Name
	record.Phone = customer.Phone
	record.Email = customer.Email
	record.Address = customer.Address
	record.Zip = customer.Zip
	record.Year = vehicle.Year
	record.Make = vehicle.Make
	record.Model = vehicle.Model
	record.Trim = vehicle.Trim
	record.Nickname = vehicle.Nickname
	record.ServiceHistoryLink = vehicle.ServiceHistoryLink

	if insert {
		return r.store.InsertLegacy(ctx, record)
	}
	return r.store.UpdateLegacy(ctx, record)
}

func (r *Reconciler) isOnline() bool {
	return r.monitor == nil || r.monitor.Online()
}
