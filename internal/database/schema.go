package database

import (
	"context"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		phone VARCHAR(32) NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'member',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS class_types (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		slug VARCHAR(120) NOT NULL,
		description TEXT NULL,
		duration_minutes INT NOT NULL DEFAULT 60,
		default_capacity INT NOT NULL DEFAULT 20,
		credits_required INT NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_class_types_slug (slug),
		CHECK (credits_required >= 0),
		CHECK (default_capacity >= 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS classes (
		id CHAR(36) NOT NULL PRIMARY KEY,
		class_type_id CHAR(36) NOT NULL,
		trainer_id CHAR(36) NOT NULL,
		start_time DATETIME(6) NOT NULL,
		end_time DATETIME(6) NOT NULL,
		capacity INT NOT NULL,
		location VARCHAR(255) NULL,
		description TEXT NULL,
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		cancellation_reason TEXT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_classes_start_time (start_time),
		KEY idx_classes_trainer (trainer_id, start_time),
		CONSTRAINT fk_classes_type FOREIGN KEY (class_type_id) REFERENCES class_types (id),
		CONSTRAINT fk_classes_trainer FOREIGN KEY (trainer_id) REFERENCES users (id),
		CHECK (capacity >= 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS memberships (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		membership_type_id VARCHAR(64) NOT NULL,
		start_date DATETIME(6) NOT NULL,
		end_date DATETIME(6) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		remaining_credits INT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_memberships_user (user_id, status, end_date),
		CONSTRAINT fk_memberships_user FOREIGN KEY (user_id) REFERENCES users (id),
		CHECK (remaining_credits IS NULL OR remaining_credits >= 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		class_id CHAR(36) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'booked',
		credits_used INT NOT NULL DEFAULT 0,
		booking_time DATETIME(6) NOT NULL,
		cancellation_time DATETIME(6) NULL,
		cancellation_reason TEXT NULL,
		check_in_time DATETIME(6) NULL,
		UNIQUE KEY uq_bookings_user_class (user_id, class_id),
		KEY idx_bookings_class_status (class_id, status),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_class FOREIGN KEY (class_id) REFERENCES classes (id),
		CHECK (credits_used >= 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS waitlist_entries (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		class_id CHAR(36) NOT NULL,
		position INT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'waiting',
		join_time DATETIME(6) NOT NULL,
		notification_time DATETIME(6) NULL,
		UNIQUE KEY uq_waitlist_user_class (user_id, class_id),
		KEY idx_waitlist_class_status (class_id, status, position),
		CONSTRAINT fk_waitlist_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_waitlist_class FOREIGN KEY (class_id) REFERENCES classes (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		message TEXT NOT NULL,
		link VARCHAR(255) NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL,
		KEY idx_notifications_user (user_id, is_read, created_at),
		CONSTRAINT fk_notifications_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB`,
}

// The sqlite driver only decodes DATETIME columns declared exactly as
// DATETIME, so no fractional precision suffix here.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		phone TEXT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS class_types (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		default_capacity INTEGER NOT NULL DEFAULT 20 CHECK (default_capacity >= 0),
		credits_required INTEGER NOT NULL DEFAULT 1 CHECK (credits_required >= 0),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS classes (
		id TEXT NOT NULL PRIMARY KEY,
		class_type_id TEXT NOT NULL REFERENCES class_types (id),
		trainer_id TEXT NOT NULL REFERENCES users (id),
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity >= 0),
		location TEXT NULL,
		description TEXT NULL,
		is_cancelled BOOLEAN NOT NULL DEFAULT 0,
		cancellation_reason TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_classes_start_time ON classes (start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_classes_trainer ON classes (trainer_id, start_time)`,

	`CREATE TABLE IF NOT EXISTS memberships (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users (id),
		membership_type_id TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		remaining_credits INTEGER NULL CHECK (remaining_credits IS NULL OR remaining_credits >= 0),
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships (user_id, status, end_date)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users (id),
		class_id TEXT NOT NULL REFERENCES classes (id),
		status TEXT NOT NULL DEFAULT 'booked',
		credits_used INTEGER NOT NULL DEFAULT 0 CHECK (credits_used >= 0),
		booking_time DATETIME NOT NULL,
		cancellation_time DATETIME NULL,
		cancellation_reason TEXT NULL,
		check_in_time DATETIME NULL,
		UNIQUE (user_id, class_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_class_status ON bookings (class_id, status)`,

	`CREATE TABLE IF NOT EXISTS waitlist_entries (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users (id),
		class_id TEXT NOT NULL REFERENCES classes (id),
		position INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'waiting',
		join_time DATETIME NOT NULL,
		notification_time DATETIME NULL,
		UNIQUE (user_id, class_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waitlist_class_status ON waitlist_entries (class_id, status, position)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users (id),
		message TEXT NOT NULL,
		link TEXT NULL,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, is_read, created_at)`,
}

// InitSchema creates any missing tables. Statements run one by one since
// the mysql driver rejects multi-statement strings by default.
func (db *DB) InitSchema(ctx context.Context) error {
	statements := mysqlSchema
	if db.Dialect.Name == SQLite.Name {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
