package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// dataTables are the seven CRM tables covered by the reset, the change-feed
// publication and the per-table read policies.  users is intentionally not
// reset wholesale; the seed admin below is upserted instead.
var dataTables = []string{
	"leads", "notes", "follow_ups", "products", "packages", "targets", "handle_customer_data",
}

// schema contains the DDL for every table the application touches.  All
// statements are idempotent (CREATE TABLE IF NOT EXISTS) so Migrate can run
// on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		role ENUM('superadmin','admin','hc') NOT NULL DEFAULT 'admin',
		contact_number VARCHAR(32) NOT NULL DEFAULT '',
		avatar_url VARCHAR(512) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		interested_product VARCHAR(255) NOT NULL DEFAULT '',
		status ENUM('new','contacted','qualified','closed') NOT NULL DEFAULT 'new',
		assigned_to BIGINT UNSIGNED NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_leads_assigned (assigned_to),
		KEY idx_leads_created (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT UNSIGNED NOT NULL,
		content TEXT NOT NULL,
		created_by BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_notes_lead (lead_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS follow_ups (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT UNSIGNED NOT NULL,
		content TEXT NOT NULL,
		follow_up_date DATE NOT NULL,
		created_by BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_follow_ups_lead (lead_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price_cents BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS packages (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price_cents BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS targets (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		period VARCHAR(16) NOT NULL,
		target_count INT UNSIGNED NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_targets_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS handle_customer_data (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT UNSIGNED NOT NULL,
		detail TEXT NOT NULL,
		handled_by BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_hc_lead (lead_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS change_feed_tables (
		table_name VARCHAR(64) NOT NULL PRIMARY KEY,
		enabled TINYINT(1) NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS read_policies (
		table_name VARCHAR(64) NOT NULL PRIMARY KEY,
		policy_name VARCHAR(128) NOT NULL
	)`,
}

// Migrate brings the database to the expected state: create all tables,
// clear the seven CRM data tables, seed the single superadmin account
// (upsert keyed by id so reruns do not duplicate it), enable the change-feed
// publication on all seven tables, and (re)install one read policy per
// table.  The policy itself is evaluated by the repository layer; the
// registry records which policy applies where.
func Migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate ddl: %w", err)
		}
	}

	for _, t := range dataTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("migrate reset %s: %w", t, err)
		}
	}

	// Seed admin. The placeholder hash forces a password reset on first
	// login; the row is keyed by id=1 so repeated migrations only refresh it.
	const seedAdmin = `INSERT INTO users (id, email, password_hash, full_name, role, is_active)
		VALUES (1, 'admin@crm.local', '$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy', 'System Admin', 'superadmin', 1)
		ON DUPLICATE KEY UPDATE email=VALUES(email), full_name=VALUES(full_name), role=VALUES(role), is_active=VALUES(is_active)`
	if _, err := db.ExecContext(ctx, seedAdmin); err != nil {
		return fmt.Errorf("migrate seed admin: %w", err)
	}

	for _, t := range dataTables {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO change_feed_tables (table_name, enabled) VALUES (?, 1) ON DUPLICATE KEY UPDATE enabled=1", t); err != nil {
			return fmt.Errorf("migrate publication %s: %w", t, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO read_policies (table_name, policy_name) VALUES (?, ?) ON DUPLICATE KEY UPDATE policy_name=VALUES(policy_name)",
			t, "role_visibility_"+t); err != nil {
			return fmt.Errorf("migrate policy %s: %w", t, err)
		}
	}
	return nil
}
