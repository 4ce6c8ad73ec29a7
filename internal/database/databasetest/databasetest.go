// Package databasetest opens throwaway SQLite stores and seeds them for
// tests.
package databasetest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New opens a fresh store in a temp dir with the schema applied.
func New(t testing.TB) *database.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "fitstudio.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"

	db, err := database.Open(context.Background(), config.Database{
		Driver:          "sqlite",
		DSN:             dsn,
		ConnectAttempts: 1,
	}, DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.InitSchema(context.Background()))
	return db
}

// Fixtures inserts rows directly, bypassing the workflow.
type Fixtures struct {
	t  testing.TB
	db *database.DB
}

func NewFixtures(t testing.TB, db *database.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.db.ExecContext(context.Background(), query, args...)
	require.NoError(f.t, err)
}

// User creates an active user with the given role. passwordHash may be empty.
func (f *Fixtures) User(role, passwordHash string) string {
	f.t.Helper()
	id := uuid.NewString()
	f.exec(`INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, id+"@example.com", passwordHash, "Test", role, role, true, time.Now().UTC())
	return id
}

// ClassType creates an active class type.
func (f *Fixtures) ClassType(creditsRequired, defaultCapacity int) string {
	f.t.Helper()
	id := uuid.NewString()
	f.exec(`INSERT INTO class_types (id, name, slug, duration_minutes, default_capacity, credits_required, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Spin", "spin-"+id, 60, defaultCapacity, creditsRequired, true, time.Now().UTC())
	return id
}

// Class creates a one-hour session starting at start.
func (f *Fixtures) Class(classTypeID, trainerID string, start time.Time, capacity int) string {
	f.t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	start = start.UTC().Truncate(time.Microsecond)
	f.exec(`INSERT INTO classes (id, class_type_id, trainer_id, start_time, end_time, capacity, is_cancelled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, classTypeID, trainerID, start, start.Add(time.Hour), capacity, false, now, now)
	return id
}

// Membership creates an active membership valid for 30 days. A nil
// credits value means unlimited.
func (f *Fixtures) Membership(userID string, credits *int) string {
	f.t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	f.exec(`INSERT INTO memberships (id, user_id, membership_type_id, start_date, end_date, status, remaining_credits, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, "monthly", now.Add(-24*time.Hour), now.Add(30*24*time.Hour), "active", credits, now)
	return id
}

// Booking inserts a booking row with the given status.
func (f *Fixtures) Booking(userID, classID, status string, creditsUsed int) string {
	f.t.Helper()
	id := uuid.NewString()
	f.exec(`INSERT INTO bookings (id, user_id, class_id, status, credits_used, booking_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, classID, status, creditsUsed, time.Now().UTC())
	return id
}

// Credits returns a membership's remaining credits, nil when unlimited.
func (f *Fixtures) Credits(membershipID string) *int {
	f.t.Helper()
	var credits *int
	err := f.db.QueryRowContext(context.Background(),
		"SELECT remaining_credits FROM memberships WHERE id = ?", membershipID).Scan(&credits)
	require.NoError(f.t, err)
	return credits
}

func Ptr[T any](v T) *T {
	return &v
}
