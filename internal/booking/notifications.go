package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

const (
	notificationLimit = 50
	classTimeLayout   = "Mon 2 Jan 15:04 MST"
)

// addNotification writes an in-app notice. It runs inside the caller's
// transaction so the notice exists exactly when the change it describes does.
func addNotification(ctx context.Context, q database.Querier, userID, message, link string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		newID(), userID, message, optionalString(link), false, now)
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

// UserNotifications returns the member's latest notices, unread first.
func (s *Service) UserNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY is_read ASC, created_at DESC, id
		LIMIT ?`, userID, notificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one of the member's own notices as read.
// Someone else's notice looks the same as a missing one.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM notifications WHERE id = ?", notificationID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return notFound("Notification not found")
	}
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = ? WHERE id = ?", true, notificationID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
