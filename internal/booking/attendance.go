package booking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// Attendees lists every booking of a class with the member's details.
func (s *Service) Attendees(ctx context.Context, actor auth.Actor, classID string) ([]models.Attendee, error) {
	class, err := s.getClass(ctx, s.db, classID, false)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageClass(class.TrainerID) {
		return nil, forbidden("You do not have permission to view attendees for this class")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, u.first_name, u.last_name, u.email, b.status, b.booking_time, b.check_in_time
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.class_id = ?
		ORDER BY b.booking_time, b.id`, classID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	attendees := []models.Attendee{}
	for rows.Next() {
		var a models.Attendee
		if err := rows.Scan(&a.BookingID, &a.UserID, &a.FirstName, &a.LastName, &a.Email,
			&a.Status, &a.BookingTime, &a.CheckInTime); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// CheckIn marks a booked member as attended.
func (s *Service) CheckIn(ctx context.Context, actor auth.Actor, classID, bookingID string) (models.Booking, error) {
	return s.closeBooking(ctx, actor, classID, bookingID, models.BookingStatusAttended)
}

// MarkNoShow records that a booked member did not turn up. Credits are
// not refunded.
func (s *Service) MarkNoShow(ctx context.Context, actor auth.Actor, classID, bookingID string) (models.Booking, error) {
	return s.closeBooking(ctx, actor, classID, bookingID, models.BookingStatusNoShow)
}

func (s *Service) closeBooking(ctx context.Context, actor auth.Actor, classID, bookingID, status string) (models.Booking, error) {
	now := s.clock()
	var b models.Booking

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		class, err := s.getClass(ctx, tx, classID, true)
		if err != nil {
			return err
		}
		if !actor.CanManageClass(class.TrainerID) {
			return forbidden("You do not have permission to manage attendance for this class")
		}
		if class.IsCancelled {
			return invalidState("Class has been cancelled")
		}
		if status == models.BookingStatusNoShow && now.Before(class.StartTime) {
			return invalidState("Cannot mark a no-show before the class starts")
		}

		b, err = s.getBooking(ctx, tx, bookingID, true)
		if err != nil {
			return err
		}
		if b.ClassID != classID {
			return notFound("Booking not found for this class")
		}
		if b.Status != models.BookingStatusBooked {
			return invalidState("Booking is %s, expected booked", b.Status)
		}

		b.Status = status
		if status == models.BookingStatusAttended {
			b.CheckInTime = &now
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status = ?, check_in_time = ? WHERE id = ?",
			b.Status, b.CheckInTime, b.ID); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	s.log.Info("attendance recorded",
		slog.String("booking_id", b.ID),
		slog.String("class_id", classID),
		slog.String("status", status),
	)
	return b, nil
}
