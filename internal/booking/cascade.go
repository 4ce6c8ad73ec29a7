package booking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/metrics"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

const cascadeReason = "Class cancelled by trainer"

// CascadeResult summarises a class cancellation.
type CascadeResult struct {
	ClassID           string `json:"class_id"`
	CancelledBookings int    `json:"cancelled_bookings"`
	CreditsRefunded   int    `json:"credits_refunded"`
}

// CancelClass cancels a class session and every booking on it, refunding
// credits. Waitlist entries are left as they are and nobody is promoted.
// The whole cascade commits or rolls back as one unit.
func (s *Service) CancelClass(ctx context.Context, actor auth.Actor, classID, reason string) (CascadeResult, error) {
	now := s.clock()
	result := CascadeResult{ClassID: classID}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		class, err := s.getClass(ctx, tx, classID, true)
		if err != nil {
			return err
		}
		if !actor.CanManageClass(class.TrainerID) {
			return forbidden("You do not have permission to cancel this class")
		}
		if class.IsCancelled {
			return invalidState("Class is already cancelled")
		}
		if !now.Before(class.EndTime) {
			return invalidState("Cannot cancel a class that has already ended")
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return unprocessable("Cancellation reason is required")
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE classes SET is_cancelled = ?, cancellation_reason = ?, updated_at = ? WHERE id = ?",
			true, reason, now, classID); err != nil {
			return fmt.Errorf("cancel class: %w", err)
		}

		// Memberships are locked in user order so two cascades never
		// wait on each other.
		rows, err := tx.QueryContext(ctx,
			s.db.ForUpdate(`SELECT id, user_id, credits_used FROM bookings
			WHERE class_id = ? AND status = ?
			ORDER BY user_id, id`),
			classID, models.BookingStatusBooked)
		if err != nil {
			return fmt.Errorf("load bookings to cancel: %w", err)
		}
		var booked []models.Booking
		for rows.Next() {
			var b models.Booking
			if err := rows.Scan(&b.ID, &b.UserID, &b.CreditsUsed); err != nil {
				rows.Close()
				return fmt.Errorf("scan booking: %w", err)
			}
			booked = append(booked, b)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, b := range booked {
			if _, err := tx.ExecContext(ctx,
				"UPDATE bookings SET status = ?, cancellation_time = ?, cancellation_reason = ? WHERE id = ?",
				models.BookingStatusCancelled, now, cascadeReason, b.ID); err != nil {
				return fmt.Errorf("cancel booking %s: %w", b.ID, err)
			}
			refunded, err := s.refundCredits(ctx, tx, b.UserID, b.CreditsUsed, now)
			if err != nil {
				return err
			}
			if err := addNotification(ctx, tx, b.UserID,
				fmt.Sprintf("Your class on %s was cancelled: %s. %d credit(s) refunded.",
					class.StartTime.Format(classTimeLayout), reason, refunded),
				"/bookings", now); err != nil {
				return err
			}
			result.CancelledBookings++
			result.CreditsRefunded += refunded
		}
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}

	metrics.ClassesCancelled.Inc()
	metrics.BookingsCancelled.WithLabelValues("class").Add(float64(result.CancelledBookings))
	metrics.CreditsRefunded.Add(float64(result.CreditsRefunded))
	s.log.Info("class cancelled",
		slog.String("class_id", classID),
		slog.String("cancelled_by", actor.UserID),
		slog.Int("bookings_cancelled", result.CancelledBookings),
		slog.Int("credits_refunded", result.CreditsRefunded),
	)
	s.publish(ctx, events.Event{
		Type:    events.ClassCancelled,
		UserID:  actor.UserID,
		ClassID: classID,
		Data: map[string]any{
			"reason":             reason,
			"bookings_cancelled": result.CancelledBookings,
			"credits_refunded":   result.CreditsRefunded,
		},
	})
	return result, nil
}
