// ABOUTME: SQLite schema for the local relational store
// ABOUTME: Mirrors the remote collections for dev mode, importers, and tests
package store

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id TEXT PRIMARY KEY,
	vin TEXT NOT NULL,
	year INTEGER,
	make TEXT,
	model TEXT,
	trim TEXT,
	nickname TEXT,
	license_plate TEXT,
	odometer TEXT,
	lease_or_owned TEXT,
	primary_use TEXT,
	service_history_link TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vehicles_vin ON vehicles(vin);

CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT,
	phone_key TEXT,
	email TEXT,
	address TEXT,
	zip TEXT,
	status TEXT,
	notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_customers_phone_key ON customers(phone_key);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	vehicle_id TEXT NOT NULL,
	performed_at DATETIME NOT NULL,
	notes TEXT,
	total_cents INTEGER NOT NULL,
	currency TEXT NOT NULL DEFAULT 'USD',
	status TEXT NOT NULL,
	idempotency_key TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (customer_id) REFERENCES customers(id),
	FOREIGN KEY (vehicle_id) REFERENCES vehicles(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_idempotency_key ON jobs(idempotency_key);

CREATE TABLE IF NOT EXISTS job_services (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	service_id TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (job_id) REFERENCES jobs(id)
);

CREATE INDEX IF NOT EXISTS idx_job_services_job_id ON job_services(job_id);

CREATE TABLE IF NOT EXISTS customer_data_legacy (
	id TEXT PRIMARY KEY,
	vin TEXT NOT NULL,
	customer_name TEXT,
	phone TEXT,
	email TEXT,
	address TEXT,
	zip TEXT,
	year INTEGER,
	make TEXT,
	model TEXT,
	trim TEXT,
	nickname TEXT,
	service_history_link TEXT,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_legacy_vin ON customer_data_legacy(vin);

CREATE TABLE IF NOT EXISTS service_history (
	id TEXT PRIMARY KEY,
	vin TEXT NOT NULL,
	date TEXT,
	service_type TEXT,
	service_notes TEXT,
	next_recommended_service TEXT,
	photos_link TEXT,
	technician TEXT,
	price TEXT,
	customer_feedback TEXT
);

CREATE INDEX IF NOT EXISTS idx_service_history_vin ON service_history(vin);
`

// InitSchema creates all tables and indexes if they don't exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
