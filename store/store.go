// ABOUTME: EntityStore port for the hosted relational service
// ABOUTME: Typed find/insert/update operations over the reconciliation tables
package store

import (
	"context"

	"github.com/purpledash/fieldsync/models"
)

// EntityStore is the boundary to the shared relational store. Find methods
// return (nil, nil) when no row matches. Implementations: RemoteStore for
// the hosted HTTP API, SQLiteStore for local/dev mode, MemoryStore for
// tests.
type EntityStore interface {
	FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	InsertVehicle(ctx context.Context, v *models.Vehicle) error
	UpdateVehicle(ctx context.Context, v *models.Vehicle) error

	FindCustomerByPhoneKey(ctx context.Context, key string) (*models.Customer, error)
	InsertCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error

	FindJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	InsertJob(ctx context.Context, j *models.Job) error
	InsertServiceLine(ctx context.Context, l *models.ServiceLine) error

	FindLegacyByVIN(ctx context.Context, vin string) (*models.LegacyRecord, error)
	InsertLegacy(ctx context.Context, r *models.LegacyRecord) error
	UpdateLegacy(ctx context.Context, r *models.LegacyRecord) error

	ListServiceHistory(ctx context.Context, vin string) ([]models.ServiceHistoryEntry, error)
	InsertServiceHistory(ctx context.Context, e *models.ServiceHistoryEntry) error

	// Ping checks reachability; a transient error means offline.
	Ping(ctx context.Context) error

	Close() error
}

// Collection names on the remote relational API.
const (
	CollectionVehicles    = "vehicles"
	CollectionCustomers   = "customers"
	CollectionJobs        = "jobs"
	CollectionJobServices = "job_services"
	CollectionLegacy      = "customer_data_legacy"
	CollectionHistory     = "service_history"
)
