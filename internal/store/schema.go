package store

import (
	"context"
	"fmt"
	"strings"
)

// {{id}} expands to the dialect's auto-increment primary key column.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS terms (
		taxonomy TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		alt_names TEXT NOT NULL DEFAULT '[]',
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (taxonomy, id)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		event_key TEXT PRIMARY KEY,
		descriptor_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		event_date TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS events_date ON events (event_date)`,
	`CREATE TABLE IF NOT EXISTS event_categories (
		event_key TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		PRIMARY KEY (event_key, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS visitor_registrations (
		{{id}},
		event_key TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		public_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		is_first_event INTEGER,
		join_mail_list INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS visitor_registrations_event ON visitor_registrations (event_key)`,
	`CREATE TABLE IF NOT EXISTS items (
		{{id}},
		event_key TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		item_type_id INTEGER NOT NULL DEFAULT 0,
		fixer_station_id INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '',
		visitor_id INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS items_event ON items (event_key)`,
	`CREATE TABLE IF NOT EXISTS volunteer_registrations (
		{{id}},
		event_key TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		public_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		fixer_station_id INTEGER NOT NULL DEFAULT 0,
		is_apprentice INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS volunteer_registrations_event ON volunteer_registrations (event_key)`,
	`CREATE TABLE IF NOT EXISTS volunteer_registration_roles (
		registration_id INTEGER NOT NULL,
		role_id INTEGER NOT NULL,
		PRIMARY KEY (registration_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sup_items (
		event_key TEXT NOT NULL,
		item_type_id INTEGER NOT NULL,
		fixer_station_id INTEGER NOT NULL,
		fixed_count INTEGER NOT NULL DEFAULT 0,
		repairable_count INTEGER NOT NULL DEFAULT 0,
		eol_count INTEGER NOT NULL DEFAULT 0,
		unreported_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (event_key, item_type_id, fixer_station_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sup_visitors (
		event_key TEXT PRIMARY KEY,
		first_time_count INTEGER NOT NULL DEFAULT 0,
		returning_count INTEGER NOT NULL DEFAULT 0,
		unreported_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sup_volunteers (
		event_key TEXT NOT NULL,
		role_id INTEGER NOT NULL,
		fixer_station_id INTEGER NOT NULL,
		head_count INTEGER NOT NULL DEFAULT 0,
		apprentice_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (event_key, role_id, fixer_station_id)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{id}}", id)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
