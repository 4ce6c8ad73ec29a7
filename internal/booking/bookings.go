package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/metrics"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// BookingResult is either a confirmed booking or a waitlist entry,
// never both.
type BookingResult struct {
	Booking  *models.Booking
	Waitlist *models.WaitlistEntry
}

func (r BookingResult) Waitlisted() bool {
	return r.Waitlist != nil
}

// CreateBooking books a spot for the actor, or puts them on the waitlist
// when the class is full.
func (s *Service) CreateBooking(ctx context.Context, actor auth.Actor, classID string) (BookingResult, error) {
	if !actor.Can(auth.CapBookClasses) {
		return BookingResult{}, forbidden("You are not allowed to book classes")
	}
	now := s.clock()

	tx, err := s.db.StartTx(ctx)
	if err != nil {
		return BookingResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. --- Class checks (takes the class lock) ---
	class, err := s.getClass(ctx, tx, classID, true)
	if err != nil {
		return BookingResult{}, err
	}
	if class.StartTime.Before(now) {
		return BookingResult{}, invalidState("Cannot book a class that has already started")
	}
	if class.IsCancelled {
		return BookingResult{}, invalidState("This class has been cancelled")
	}

	// 2. --- Duplicate booking ---
	var existingStatus string
	err = tx.QueryRowContext(ctx,
		s.db.ForUpdate("SELECT status FROM bookings WHERE user_id = ? AND class_id = ?"),
		actor.UserID, classID).Scan(&existingStatus)
	switch {
	case err == nil:
		if existingStatus == models.BookingStatusBooked || existingStatus == models.BookingStatusAttended {
			return BookingResult{}, conflict("You have already booked this class")
		}
		return BookingResult{}, conflict("You have a %s booking for this class and cannot book it again", existingStatus)
	case !errors.Is(err, sql.ErrNoRows):
		return BookingResult{}, fmt.Errorf("check existing booking: %w", err)
	}

	// 3. --- Membership and credits ---
	membership, err := s.activeMembership(ctx, tx, actor.UserID, now, true)
	if err != nil {
		return BookingResult{}, err
	}
	if membership == nil {
		return BookingResult{}, forbidden("You do not have an active membership")
	}

	credits, err := creditsRequired(ctx, tx, class.ClassTypeID)
	if err != nil {
		return BookingResult{}, err
	}
	if !membership.Unlimited() && *membership.RemainingCredits < credits {
		return BookingResult{}, forbidden("Insufficient credits: %d required, %d remaining", credits, *membership.RemainingCredits)
	}

	// 4. --- Full class: waitlist instead ---
	ok, err := HasCapacity(ctx, tx, class)
	if err != nil {
		return BookingResult{}, err
	}
	if !ok {
		entry, err := s.joinWaitlist(ctx, tx, actor.UserID, classID, now)
		if err != nil {
			return BookingResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return BookingResult{}, fmt.Errorf("commit waitlist join: %w", err)
		}

		metrics.WaitlistJoined.Inc()
		s.log.Info("class full, member waitlisted",
			slog.String("class_id", classID),
			slog.String("user_id", actor.UserID),
			slog.Int("position", entry.Position),
		)
		s.publish(ctx, events.Event{
			Type:            events.WaitlistJoined,
			UserID:          actor.UserID,
			ClassID:         classID,
			WaitlistEntryID: entry.ID,
			Data:            map[string]any{"position": entry.Position},
		})
		return BookingResult{Waitlist: &entry}, nil
	}

	// 5. --- Book and debit ---
	b := models.Booking{
		ID:          newID(),
		UserID:      actor.UserID,
		ClassID:     classID,
		Status:      models.BookingStatusBooked,
		CreditsUsed: credits,
		BookingTime: now,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, class_id, status, credits_used, booking_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.ClassID, b.Status, b.CreditsUsed, b.BookingTime); err != nil {
		return BookingResult{}, fmt.Errorf("insert booking: %w", err)
	}
	if err := debitCredits(ctx, tx, membership, credits); err != nil {
		return BookingResult{}, err
	}

	// A member booking a spot they were waiting for leaves the waitlist.
	res, err := tx.ExecContext(ctx,
		"UPDATE waitlist_entries SET status = ? WHERE user_id = ? AND class_id = ? AND status IN (?, ?)",
		models.WaitlistStatusConverted, actor.UserID, classID,
		models.WaitlistStatusWaiting, models.WaitlistStatusNotified)
	if err != nil {
		return BookingResult{}, fmt.Errorf("convert waitlist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		if err := reorder(ctx, tx, classID); err != nil {
			return BookingResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return BookingResult{}, fmt.Errorf("commit booking: %w", err)
	}

	metrics.BookingsCreated.Inc()
	s.log.Info("booking created",
		slog.String("booking_id", b.ID),
		slog.String("class_id", classID),
		slog.String("user_id", actor.UserID),
		slog.Int("credits_used", credits),
	)
	s.publish(ctx, events.Event{
		Type:      events.BookingCreated,
		UserID:    actor.UserID,
		ClassID:   classID,
		BookingID: b.ID,
		Data:      map[string]any{"credits_used": credits},
	})
	return BookingResult{Booking: &b}, nil
}

// CancelBooking cancels a booked spot before the class starts, refunds its
// credits and offers the spot to the waitlist.
func (s *Service) CancelBooking(ctx context.Context, actor auth.Actor, bookingID, reason string) (models.Booking, error) {
	// 1. --- Ownership check before taking any lock ---
	b, err := s.getBooking(ctx, s.db, bookingID, false)
	if err != nil {
		return models.Booking{}, err
	}
	if !actor.CanActFor(b.UserID, auth.CapManageAnyBooking) {
		return models.Booking{}, forbidden("You do not have permission to cancel this booking")
	}

	now := s.clock()
	var refunded int

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		// 2. --- Lock class, then re-read the booking ---
		class, err := s.getClass(ctx, tx, b.ClassID, true)
		if err != nil {
			return err
		}
		b, err = s.getBooking(ctx, tx, bookingID, true)
		if err != nil {
			return err
		}
		if b.Status != models.BookingStatusBooked {
			return invalidState("Only active bookings can be cancelled")
		}
		if !now.Before(class.StartTime) {
			return invalidState("Cannot cancel a booking for a class that has already started")
		}

		// 3. --- Cancel and refund ---
		b.Status = models.BookingStatusCancelled
		b.CancellationTime = &now
		b.CancellationReason = optionalString(reason)
		if _, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status = ?, cancellation_time = ?, cancellation_reason = ? WHERE id = ?",
			b.Status, b.CancellationTime, b.CancellationReason, b.ID); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		refunded, err = s.refundCredits(ctx, tx, b.UserID, b.CreditsUsed, now)
		return err
	})
	if err != nil {
		return models.Booking{}, err
	}

	metrics.BookingsCancelled.WithLabelValues("member").Inc()
	metrics.CreditsRefunded.Add(float64(refunded))
	s.log.Info("booking cancelled",
		slog.String("booking_id", b.ID),
		slog.String("class_id", b.ClassID),
		slog.String("cancelled_by", actor.UserID),
		slog.Int("credits_refunded", refunded),
	)
	s.publish(ctx, events.Event{
		Type:      events.BookingCancelled,
		UserID:    b.UserID,
		ClassID:   b.ClassID,
		BookingID: b.ID,
		Data:      map[string]any{"credits_refunded": refunded, "cancelled_by": actor.UserID},
	})

	// 4. --- Offer the freed spot. The cancellation stands even if this fails. ---
	if _, err := s.PromoteNext(ctx, b.ClassID); err != nil {
		s.log.Error("failed to promote waitlist after cancellation",
			slog.String("class_id", b.ClassID),
			slog.Any("error", err),
		)
	}
	return b, nil
}

// GetBooking returns a booking visible to the actor.
func (s *Service) GetBooking(ctx context.Context, actor auth.Actor, bookingID string) (models.Booking, error) {
	b, err := s.getBooking(ctx, s.db, bookingID, false)
	if err != nil {
		return b, err
	}
	if !actor.CanActFor(b.UserID, auth.CapManageAnyBooking) {
		return models.Booking{}, forbidden("You do not have permission to view this booking")
	}
	return b, nil
}

// BookingFilter narrows a member's booking history. From and To bound the
// class start time; To is exclusive.
type BookingFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// UserBookings returns a member's booking history, latest class first.
func (s *Service) UserBookings(ctx context.Context, userID string, f BookingFilter) ([]models.BookingDetail, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT b.id, b.user_id, b.class_id, b.status, b.credits_used, b.booking_time,
			b.cancellation_time, b.cancellation_reason, b.check_in_time,
			ct.name, c.start_time, c.end_time, c.location, u.first_name, u.last_name, c.is_cancelled
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		JOIN class_types ct ON ct.id = c.class_type_id
		JOIN users u ON u.id = c.trainer_id
		WHERE b.user_id = ?`)
	args := []any{userID}

	if f.Status != "" {
		sb.WriteString(" AND b.status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		sb.WriteString(" AND c.start_time >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		sb.WriteString(" AND c.start_time < ?")
		args = append(args, f.To.UTC())
	}
	sb.WriteString(" ORDER BY c.start_time DESC")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.BookingDetail{}
	for rows.Next() {
		var d models.BookingDetail
		var first, last string
		if err := rows.Scan(&d.ID, &d.UserID, &d.ClassID, &d.Status, &d.CreditsUsed, &d.BookingTime,
			&d.CancellationTime, &d.CancellationReason, &d.CheckInTime,
			&d.ClassName, &d.ClassStartTime, &d.ClassEndTime, &d.Location, &first, &last, &d.ClassIsCancelled); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		d.TrainerName = models.User{FirstName: first, LastName: last}.FullName()
		bookings = append(bookings, d)
	}
	return bookings, rows.Err()
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
