package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const classColumns = `id, class_type_id, trainer_id, start_time, end_time, capacity, location,
	description, is_cancelled, cancellation_reason, created_at, updated_at`

const bookingColumns = `id, user_id, class_id, status, credits_used, booking_time,
	cancellation_time, cancellation_reason, check_in_time`

const waitlistColumns = `id, user_id, class_id, position, status, join_time, notification_time`

func scanClass(row rowScanner) (models.ClassSession, error) {
	var c models.ClassSession
	err := row.Scan(&c.ID, &c.ClassTypeID, &c.TrainerID, &c.StartTime, &c.EndTime, &c.Capacity,
		&c.Location, &c.Description, &c.IsCancelled, &c.CancellationReason, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.CreditsUsed, &b.BookingTime,
		&b.CancellationTime, &b.CancellationReason, &b.CheckInTime)
	return b, err
}

func scanWaitlistEntry(row rowScanner) (models.WaitlistEntry, error) {
	var w models.WaitlistEntry
	err := row.Scan(&w.ID, &w.UserID, &w.ClassID, &w.Position, &w.Status, &w.JoinTime, &w.NotificationTime)
	return w, err
}

// getClass loads a class session, locking its row when lock is set.
// The class row is always the first lock a transaction takes.
func (s *Service) getClass(ctx context.Context, q database.Querier, classID string, lock bool) (models.ClassSession, error) {
	query := "SELECT " + classColumns + " FROM classes WHERE id = ?"
	if lock {
		query = s.db.ForUpdate(query)
	}

	c, err := scanClass(q.QueryRowContext(ctx, query, classID))
	if errors.Is(err, sql.ErrNoRows) {
		return c, notFound("Class not found")
	}
	if err != nil {
		return c, fmt.Errorf("load class %s: %w", classID, err)
	}
	return c, nil
}

func (s *Service) getBooking(ctx context.Context, q database.Querier, bookingID string, lock bool) (models.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"
	if lock {
		query = s.db.ForUpdate(query)
	}

	b, err := scanBooking(q.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return b, notFound("Booking not found")
	}
	if err != nil {
		return b, fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	return b, nil
}

func (s *Service) getWaitlistEntry(ctx context.Context, q database.Querier, entryID string, lock bool) (models.WaitlistEntry, error) {
	query := "SELECT " + waitlistColumns + " FROM waitlist_entries WHERE id = ?"
	if lock {
		query = s.db.ForUpdate(query)
	}

	w, err := scanWaitlistEntry(q.QueryRowContext(ctx, query, entryID))
	if errors.Is(err, sql.ErrNoRows) {
		return w, notFound("Waitlist entry not found")
	}
	if err != nil {
		return w, fmt.Errorf("load waitlist entry %s: %w", entryID, err)
	}
	return w, nil
}
