package booking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/metrics"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// ExpireNotified removes entries that have sat in notified longer than ttl
// and offers each freed turn to the next waiting member. A ttl of zero
// disables expiry. It returns the number of entries removed.
func (s *Service) ExpireNotified(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.clock().Add(-ttl)

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT class_id FROM waitlist_entries WHERE status = ? AND notification_time < ?`,
		models.WaitlistStatusNotified, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale notifications: %w", err)
	}
	var classIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan class id: %w", err)
		}
		classIDs = append(classIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	total := 0
	for _, classID := range classIDs {
		var expired int64
		err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := s.getClass(ctx, tx, classID, true); err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE waitlist_entries SET status = ?
				WHERE class_id = ? AND status = ? AND notification_time < ?`,
				models.WaitlistStatusRemoved, classID, models.WaitlistStatusNotified, cutoff)
			if err != nil {
				return fmt.Errorf("expire notifications: %w", err)
			}
			expired, err = res.RowsAffected()
			return err
		})
		if err != nil {
			return total, err
		}

		total += int(expired)
		metrics.WaitlistExpired.Add(float64(expired))
		s.log.Info("expired stale waitlist notifications",
			slog.String("class_id", classID),
			slog.Int64("expired", expired),
		)

		for i := int64(0); i < expired; i++ {
			entry, err := s.PromoteNext(ctx, classID)
			if err != nil {
				return total, err
			}
			if entry == nil {
				break
			}
		}
	}
	return total, nil
}
