package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chains (
		resource_key TEXT NOT NULL,
		fiscal_year  INTEGER NOT NULL,
		version      INTEGER NOT NULL DEFAULT 1 CHECK(version > 0),
		updated_at   TEXT NOT NULL,
		PRIMARY KEY (resource_key, fiscal_year)
	)`,

	`CREATE TABLE IF NOT EXISTS schedule_items (
		id                   TEXT PRIMARY KEY,
		resource_key         TEXT NOT NULL,
		fiscal_year          INTEGER NOT NULL,
		order_index          INTEGER NOT NULL CHECK(order_index >= 0),
		assignment_type      TEXT NOT NULL DEFAULT 'auto'
		                     CHECK(assignment_type IN ('auto','manual')),
		start_date           TEXT,
		duration_workdays    INTEGER CHECK(duration_workdays IS NULL OR duration_workdays > 0),
		end_date             TEXT,
		exclude_non_workdays INTEGER NOT NULL DEFAULT 1,
		assigned_by          TEXT NOT NULL DEFAULT '',
		assigned_at          TEXT NOT NULL,
		closed_at            TEXT,
		FOREIGN KEY (resource_key, fiscal_year) REFERENCES chains(resource_key, fiscal_year) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_schedule_items_chain ON schedule_items(resource_key, fiscal_year)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_items_active_order
		ON schedule_items(resource_key, fiscal_year, order_index) WHERE closed_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS holiday_years (
		fiscal_year INTEGER PRIMARY KEY,
		imported_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS holidays (
		fiscal_year INTEGER NOT NULL REFERENCES holiday_years(fiscal_year) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (fiscal_year, date)
	)`,

	`CREATE TABLE IF NOT EXISTS work_items (
		id           TEXT PRIMARY KEY,
		resource_key TEXT NOT NULL,
		fiscal_year  INTEGER NOT NULL,
		title        TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending'
		             CHECK(status IN ('pending','approved','in_progress','completed','withdrawn')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_work_items_chain ON work_items(resource_key, fiscal_year)`,
	`CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items(status)`,

	`CREATE TABLE IF NOT EXISTS actual_progress (
		item_id           TEXT PRIMARY KEY,
		actual_start_date TEXT,
		actual_end_date   TEXT,
		progress_percent  INTEGER NOT NULL DEFAULT 0
		                  CHECK(progress_percent BETWEEN 0 AND 100),
		status_notes      TEXT NOT NULL DEFAULT '',
		updated_by        TEXT NOT NULL DEFAULT '',
		updated_at        TEXT NOT NULL
	)`,

	// v2: denormalised work item title for chain displays
	`ALTER TABLE schedule_items ADD COLUMN title TEXT NOT NULL DEFAULT ''`,
}
