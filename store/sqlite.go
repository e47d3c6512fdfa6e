// ABOUTME: SQLite-backed EntityStore implementation
// ABOUTME: Opens a WAL-mode database and implements the relational operations locally
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/purpledash/fieldsync/models"
)

// SQLiteStore implements EntityStore against a local SQLite file. Used in
// dev mode, by the CSV importers, and in integration tests.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Single connection avoids database-locked errors.
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for schema tooling.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, vin, year, make, model, trim, nickname, license_plate, odometer,
		       lease_or_owned, primary_use, service_history_link, created_at, updated_at
		FROM vehicles WHERE vin = ? LIMIT 1
	`, vin).Scan(
		&v.ID, &v.VIN, &v.Year, &v.Make, &v.Model, &v.Trim, &v.Nickname,
		&v.LicensePlate, &v.Odometer, &v.LeaseOrOwned, &v.PrimaryUse,
		&v.ServiceHistoryLink, &v.CreatedAt, &v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteStore) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (id, vin, year, make, model, trim, nickname, license_plate,
			odometer, lease_or_owned, primary_use, service_history_link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID.String(), v.VIN, v.Year, v.Make, v.Model, v.Trim, v.Nickname,
		v.LicensePlate, v.Odometer, v.LeaseOrOwned, v.PrimaryUse,
		v.ServiceHistoryLink, v.CreatedAt, v.UpdatedAt)

	return err
}

func (s *SQLiteStore) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	v.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		UPDATE vehicles
		SET year = ?, make = ?, model = ?, trim = ?, nickname = ?, license_plate = ?,
			odometer = ?, lease_or_owned = ?, primary_use = ?, service_history_link = ?, updated_at = ?
		WHERE id = ?
	`, v.Year, v.Make, v.Model, v.Trim, v.Nickname, v.LicensePlate,
		v.Odometer, v.LeaseOrOwned, v.PrimaryUse, v.ServiceHistoryLink,
		v.UpdatedAt, v.ID.String())

	return err
}

func (s *SQLiteStore) FindCustomerByPhoneKey(ctx context.Context, key string) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, phone_key, email, address, zip, status, notes, created_at, updated_at
		FROM customers WHERE phone_key = ? LIMIT 1
	`, key).Scan(
		&c.ID, &c.Name, &c.Phone, &c.PhoneKey, &c.Email, &c.Address, &c.Zip,
		&c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) InsertCustomer(ctx context.Context, c *models.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, phone_key, email, address, zip, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID.String(), c.Name, c.Phone, c.PhoneKey, c.Email, c.Address, c.Zip,
		c.Status, c.Notes, c.CreatedAt, c.UpdatedAt)

	return err
}

func (s *SQLiteStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, phone = ?, phone_key = ?, email = ?, address = ?, zip = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Phone, c.PhoneKey, c.Email, c.Address, c.Zip, c.Status, c.Notes,
		c.UpdatedAt, c.ID.String())

	return err
}

func (s *SQLiteStore) FindJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	j := &models.Job{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, vehicle_id, performed_at, notes, total_cents, currency, status, idempotency_key, created_at
		FROM jobs WHERE idempotency_key = ? LIMIT 1
	`, key).Scan(
		&j.ID, &j.CustomerID, &j.VehicleID, &j.PerformedAt, &j.Notes,
		&j.TotalCents, &j.Currency, &j.Status, &j.IdempotencyKey, &j.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (s *SQLiteStore) InsertJob(ctx context.Context, j *models.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	j.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, customer_id, vehicle_id, performed_at, notes, total_cents, currency, status, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID.String(), j.CustomerID.String(), j.VehicleID.String(), j.PerformedAt,
		j.Notes, j.TotalCents, j.Currency, j.Status, j.IdempotencyKey, j.CreatedAt)

	return err
}

func (s *SQLiteStore) InsertServiceLine(ctx context.Context, l *models.ServiceLine) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_services (id, job_id, service_id, quantity)
		VALUES (?, ?, ?, ?)
	`, l.ID.String(), l.JobID.String(), l.ServiceID, l.Quantity)

	return err
}

func (s *SQLiteStore) FindLegacyByVIN(ctx context.Context, vin string) (*models.LegacyRecord, error) {
	r := &models.LegacyRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, vin, customer_name, phone, email, address, zip, year, make, model, trim, nickname, service_history_link, updated_at
		FROM customer_data_legacy WHERE vin = ? COLLATE NOCASE LIMIT 1
	`, vin).Scan(
		&r.ID, &r.VIN, &r.CustomerName, &r.Phone, &r.Email, &r.Address, &r.Zip,
		&r.Year, &r.Make, &r.Model, &r.Trim, &r.Nickname, &r.ServiceHistoryLink, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) InsertLegacy(ctx context.Context, r *models.LegacyRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customer_data_legacy (id, vin, customer_name, phone, email, address, zip, year, make, model, trim, nickname, service_history_link, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID.String(), r.VIN, r.CustomerName, r.Phone, r.Email, r.Address, r.Zip,
		r.Year, r.Make, r.Model, r.Trim, r.Nickname, r.ServiceHistoryLink, r.UpdatedAt)

	return err
}

func (s *SQLiteStore) UpdateLegacy(ctx context.Context, r *models.LegacyRecord) error {
	r.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		UPDATE customer_data_legacy
		SET customer_name = ?, phone = ?, email = ?, address = ?, zip = ?, year = ?, make = ?, model = ?, trim = ?, nickname = ?, service_history_link = ?, updated_at = ?
		WHERE id = ?
	`, r.CustomerName, r.Phone, r.Email, r.Address, r.Zip, r.Year, r.Make,
		r.Model, r.Trim, r.Nickname, r.ServiceHistoryLink, r.UpdatedAt, r.ID.String())

	return err
}

func (s *SQLiteStore) ListServiceHistory(ctx context.Context, vin string) ([]models.ServiceHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vin, date, service_type, service_notes, next_recommended_service, photos_link, technician, price, customer_feedback
		FROM service_history
		WHERE vin = ?
		ORDER BY date DESC
	`, vin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ServiceHistoryEntry
	for rows.Next() {
		var e models.ServiceHistoryEntry
		if err := rows.Scan(&e.ID, &e.VIN, &e.Date, &e.ServiceType, &e.ServiceNotes,
			&e.NextRecommendedService, &e.PhotosLink, &e.Technician, &e.Price, &e.CustomerFeedback); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) InsertServiceHistory(ctx context.Context, e *models.ServiceHistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_history (id, vin, date, service_type, service_notes, next_recommended_service, photos_link, technician, price, customer_feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.VIN, e.Date, e.ServiceType, e.ServiceNotes,
		e.NextRecommendedService, e.PhotosLink, e.Technician, e.Price, e.CustomerFeedback)

	return err
}
