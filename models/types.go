// ABOUTME: Data models for field-capture entities
// ABOUTME: Defines SubmissionPayload, PendingJob, Vehicle, Customer, Job, and legacy records
package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionPayload is the normalized snapshot of one captured detailing job.
// It is immutable once a PendingJob wraps it.
type SubmissionPayload struct {
	VIN                string    `json:"vin"`
	Year               int       `json:"year,omitempty"`
	Make               string    `json:"make,omitempty"`
	Model              string    `json:"model,omitempty"`
	Trim               string    `json:"trim,omitempty"`
	Nickname           string    `json:"nickname,omitempty"`
	LicensePlate       string    `json:"license_plate,omitempty"`
	Odometer           string    `json:"odometer,omitempty"`
	LeaseOrOwned       string    `json:"lease_or_owned,omitempty"`
	PrimaryUse         string    `json:"primary_use,omitempty"`
	ServiceHistoryLink string    `json:"service_history_link,omitempty"`
	CustomerName       string    `json:"customer_name"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email,omitempty"`
	Address            string    `json:"address,omitempty"`
	Zip                string    `json:"zip,omitempty"`
	PackageID          string    `json:"package_id"`
	AddOnIDs           []string  `json:"addon_ids,omitempty"`
	TotalCharged       string    `json:"total_charged"`
	Currency           string    `json:"currency,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	PerformedAt        time.Time `json:"performed_at"`
}

// PendingJob is one queued submission. The payload snapshot never changes;
// only Attempts moves until the entry is removed after a confirmed
// reconciliation.
type PendingJob struct {
	ID             uuid.UUID         `json:"id"`
	IdempotencyKey string            `json:"idempotency_key"`
	CreatedAt      time.Time         `json:"created_at"`
	Attempts       int               `json:"attempts"`
	Payload        SubmissionPayload `json:"payload"`
}

// DeadJob is a PendingJob that failed validation during a drain and will
// never be retried. Kept so invalid captures are surfaced, not dropped.
type DeadJob struct {
	PendingJob
	Reason   string    `json:"reason"`
	BuriedAt time.Time `json:"buried_at"`
}

// Vehicle is keyed by normalized VIN; at most one row per VIN.
type Vehicle struct {
	ID                 uuid.UUID `json:"id"`
	VIN                string    `json:"vin"`
	Year               int       `json:"year,omitempty"`
	Make               string    `json:"make,omitempty"`
	Model              string    `json:"model,omitempty"`
	Trim               string    `json:"trim,omitempty"`
	Nickname           string    `json:"nickname,omitempty"`
	LicensePlate       string    `json:"license_plate,omitempty"`
	Odometer           string    `json:"odometer,omitempty"`
	LeaseOrOwned       string    `json:"lease_or_owned,omitempty"`
	PrimaryUse         string    `json:"primary_use,omitempty"`
	ServiceHistoryLink string    `json:"service_history_link,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Customer is deduped by PhoneKey (digits only, leading country code digit
// stripped). Customers without a phone have an empty key and are never
// deduped.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	PhoneKey  string    `json:"phone_key,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Status    string    `json:"status,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job is one completed service event. Inserted once, never updated.
type Job struct {
	ID             uuid.UUID `json:"id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	VehicleID      uuid.UUID `json:"vehicle_id"`
	PerformedAt    time.Time `json:"performed_at"`
	Notes          string    `json:"notes,omitempty"`
	TotalCents     int64     `json:"total_cents"` // minor currency units
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// ServiceLine joins a Job to one catalog service id, quantity fixed at 1.
type ServiceLine struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	ServiceID string    `json:"service_id"`
	Quantity  int       `json:"quantity"`
}

// LegacyRecord is the denormalized per-VIN mirror consumed by the old
// dashboard read path. At most one row per VIN, maintained by a
// find-then-update-or-insert sequence.
type LegacyRecord struct {
	ID                 uuid.UUID `json:"id"`
	VIN                string    `json:"vin"`
	CustomerName       string    `json:"customer_name,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email,omitempty"`
	Address            string    `json:"address,omitempty"`
	Zip                string    `json:"zip,omitempty"`
	Year               int       `json:"year,omitempty"`
	Make               string    `json:"make,omitempty"`
	Model              string    `json:"model,omitempty"`
	Trim               string    `json:"trim,omitempty"`
	Nickname           string    `json:"nickname,omitempty"`
	ServiceHistoryLink string    `json:"service_history_link,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ServiceHistoryEntry is one historical service row, keyed by VIN, fed by
// the CSV importer and shown on the dashboard read paths.
type ServiceHistoryEntry struct {
	ID                     uuid.UUID `json:"id"`
	VIN                    string    `json:"vin"`
	Date                   string    `json:"date,omitempty"`
	ServiceType            string    `json:"service_type,omitempty"`
	ServiceNotes           string    `json:"service_notes,omitempty"`
	NextRecommendedService string    `json:"next_recommended_service,omitempty"`
	PhotosLink             string    `json:"photos_link,omitempty"`
	Technician             string    `json:"technician,omitempty"`
	Price                  string    `json:"price,omitempty"`
	CustomerFeedback       string    `json:"customer_feedback,omitempty"`
}

// VehicleIdentity is the best-effort result of a VIN decode.
type VehicleIdentity struct {
	Year  int    `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Trim  string `json:"trim,omitempty"`
}

// Job status constants.
const (
	JobStatusCompleted = "completed"
)

// Submission outcome constants, as reported to the operator.
const (
	SubmitOutcomeSaved  = "saved"
	SubmitOutcomeQueued = "queued"
)

// DefaultCurrency is applied when a payload carries no currency code.
const DefaultCurrency = "USD"
