package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/metrics"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// joinWaitlist appends the user to the class waitlist. It must run in the
// caller's transaction after the class row has been locked, so two joins
// can never compute the same position.
//
// (user, class) is unique, so rejoining reuses the old row. That adds two
// edges to the entry lifecycle: removed -> waiting for a member who left
// and comes back, and notified -> waiting for a member whose freed spot
// was taken by someone else before they booked it. Either way the entry
// goes to the tail. Converted entries never come back here because the
// member already holds a booking.
func (s *Service) joinWaitlist(ctx context.Context, tx *sql.Tx, userID, classID string, now time.Time) (models.WaitlistEntry, error) {
	existing, err := scanWaitlistEntry(tx.QueryRowContext(ctx,
		s.db.ForUpdate("SELECT "+waitlistColumns+" FROM waitlist_entries WHERE user_id = ? AND class_id = ?"),
		userID, classID))
	found := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.WaitlistEntry{}, fmt.Errorf("load waitlist entry: %w", err)
	}
	if found && existing.Status == models.WaitlistStatusWaiting {
		return models.WaitlistEntry{}, conflict("You are already on the waitlist for this class")
	}

	var last int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM waitlist_entries WHERE class_id = ? AND status = ?",
		classID, models.WaitlistStatusWaiting,
	).Scan(&last); err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("load last waitlist position: %w", err)
	}

	entry := models.WaitlistEntry{
		ID:       newID(),
		UserID:   userID,
		ClassID:  classID,
		Position: last + 1,
		Status:   models.WaitlistStatusWaiting,
		JoinTime: now,
	}

	if found {
		entry.ID = existing.ID
		_, err = tx.ExecContext(ctx,
			`UPDATE waitlist_entries SET position = ?, status = ?, join_time = ?, notification_time = NULL
			WHERE id = ?`,
			entry.Position, entry.Status, entry.JoinTime, entry.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO waitlist_entries (id, user_id, class_id, position, status, join_time)
			VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.UserID, entry.ClassID, entry.Position, entry.Status, entry.JoinTime)
	}
	if err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("save waitlist entry: %w", err)
	}
	return entry, nil
}

// reorder renumbers the waiting entries of a class to 1..N by join time.
// Running it twice changes nothing.
func reorder(ctx context.Context, q database.Querier, classID string) error {
	rows, err := q.QueryContext(ctx,
		`SELECT id, position FROM waitlist_entries
		WHERE class_id = ? AND status = ?
		ORDER BY join_time, position, id`,
		classID, models.WaitlistStatusWaiting)
	if err != nil {
		return fmt.Errorf("load waitlist for reorder: %w", err)
	}

	type slot struct {
		id       string
		position int
	}
	var slots []slot
	for rows.Next() {
		var sl slot
		if err := rows.Scan(&sl.id, &sl.position); err != nil {
			rows.Close()
			return fmt.Errorf("scan waitlist slot: %w", err)
		}
		slots = append(slots, sl)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i, sl := range slots {
		if sl.position == i+1 {
			continue
		}
		if _, err := q.ExecContext(ctx,
			"UPDATE waitlist_entries SET position = ? WHERE id = ?", i+1, sl.id); err != nil {
			return fmt.Errorf("renumber waitlist entry %s: %w", sl.id, err)
		}
	}
	return nil
}

// ReorderWaitlist renumbers a class waitlist under the class lock.
func (s *Service) ReorderWaitlist(ctx context.Context, classID string) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getClass(ctx, tx, classID, true); err != nil {
			return err
		}
		return reorder(ctx, tx, classID)
	})
}

// PromoteNext moves the head of the waitlist to notified when the class
// has a free spot. No booking is created; the member has to book the spot
// themselves. It returns nil when nothing was promoted.
func (s *Service) PromoteNext(ctx context.Context, classID string) (*models.WaitlistEntry, error) {
	now := s.clock()

	tx, err := s.db.StartTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	class, err := s.getClass(ctx, tx, classID, true)
	if err != nil {
		return nil, err
	}
	if class.IsCancelled {
		return nil, nil
	}

	ok, err := HasCapacity(ctx, tx, class)
	if err != nil || !ok {
		return nil, err
	}

	entry, err := scanWaitlistEntry(tx.QueryRowContext(ctx,
		s.db.ForUpdate(`SELECT `+waitlistColumns+` FROM waitlist_entries
		WHERE class_id = ? AND status = ?
		ORDER BY position, join_time
		LIMIT 1`),
		classID, models.WaitlistStatusWaiting))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load waitlist head: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE waitlist_entries SET status = ?, notification_time = ? WHERE id = ?",
		models.WaitlistStatusNotified, now, entry.ID); err != nil {
		return nil, fmt.Errorf("promote waitlist entry: %w", err)
	}
	if err := reorder(ctx, tx, classID); err != nil {
		return nil, err
	}
	if err := addNotification(ctx, tx, entry.UserID,
		fmt.Sprintf("A spot opened up in your class on %s. Book it before someone else does.",
			class.StartTime.Format(classTimeLayout)),
		"/classes/"+classID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit promotion: %w", err)
	}

	entry.Status = models.WaitlistStatusNotified
	entry.NotificationTime = &now

	metrics.WaitlistPromoted.Inc()
	s.log.Info("waitlist entry promoted",
		slog.String("class_id", classID),
		slog.String("waitlist_entry_id", entry.ID),
		slog.String("user_id", entry.UserID),
	)
	s.notifyPromoted(ctx, entry)
	s.publish(ctx, events.Event{
		Type:            events.WaitlistPromoted,
		UserID:          entry.UserID,
		ClassID:         classID,
		WaitlistEntryID: entry.ID,
	})
	return &entry, nil
}

// RemoveFromWaitlist takes a waiting entry off the list and closes the gap.
func (s *Service) RemoveFromWaitlist(ctx context.Context, actor auth.Actor, entryID string) error {
	entry, err := s.getWaitlistEntry(ctx, s.db, entryID, false)
	if err != nil {
		return err
	}
	if !actor.CanActFor(entry.UserID, auth.CapManageAnyBooking) {
		return forbidden("You do not have permission to modify this waitlist entry")
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getClass(ctx, tx, entry.ClassID, true); err != nil {
			return err
		}

		entry, err = s.getWaitlistEntry(ctx, tx, entryID, true)
		if err != nil {
			return err
		}
		if entry.Status != models.WaitlistStatusWaiting {
			return invalidState("Only waiting entries can be removed from the waitlist")
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE waitlist_entries SET status = ? WHERE id = ?",
			models.WaitlistStatusRemoved, entryID); err != nil {
			return fmt.Errorf("remove waitlist entry: %w", err)
		}
		return reorder(ctx, tx, entry.ClassID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:            events.WaitlistRemoved,
		UserID:          entry.UserID,
		ClassID:         entry.ClassID,
		WaitlistEntryID: entry.ID,
	})
	return nil
}

// UserWaitlist lists a member's live entries, waiting or notified of a
// free spot, on classes that still run. A class cancellation leaves its
// entries waiting, so they are filtered here.
func (s *Service) UserWaitlist(ctx context.Context, userID string) ([]models.WaitlistDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.user_id, w.class_id, w.position, w.status, w.join_time, w.notification_time,
			ct.name, c.start_time, c.end_time, c.location
		FROM waitlist_entries w
		JOIN classes c ON c.id = w.class_id
		JOIN class_types ct ON ct.id = c.class_type_id
		WHERE w.user_id = ? AND w.status IN (?, ?) AND c.is_cancelled = ?
		ORDER BY c.start_time, w.position`,
		userID, models.WaitlistStatusWaiting, models.WaitlistStatusNotified, false)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	entries := []models.WaitlistDetail{}
	for rows.Next() {
		var d models.WaitlistDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.ClassID, &d.Position, &d.Status, &d.JoinTime, &d.NotificationTime,
			&d.ClassName, &d.ClassStartTime, &d.ClassEndTime, &d.Location); err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		entries = append(entries, d)
	}
	return entries, rows.Err()
}

// ClassWaitlist lists the waiting entries of a class in position order.
func (s *Service) ClassWaitlist(ctx context.Context, classID string) ([]models.WaitlistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+waitlistColumns+" FROM waitlist_entries WHERE class_id = ? AND status = ? ORDER BY position",
		classID, models.WaitlistStatusWaiting)
	if err != nil {
		return nil, fmt.Errorf("list class waitlist: %w", err)
	}
	defer rows.Close()

	entries := []models.WaitlistEntry{}
	for rows.Next() {
		w, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		entries = append(entries, w)
	}
	return entries, rows.Err()
}
