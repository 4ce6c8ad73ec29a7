package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// TrainerStats are the KPIs on a trainer's dashboard.
type TrainerStats struct {
	UpcomingClasses int `json:"upcoming_classes"`
	BookedSpots     int `json:"booked_spots"`
	TotalCapacity   int `json:"total_capacity"`
	WaitingMembers  int `json:"waiting_members"`
	Attended30d     int `json:"attended_30d"`
	NoShows30d      int `json:"no_shows_30d"`
}

// TrainerDashboard summarises a trainer's upcoming classes and the last
// 30 days of attendance.
func (s *Service) TrainerDashboard(ctx context.Context, actor auth.Actor, trainerID string) (TrainerStats, error) {
	if trainerID == "" {
		trainerID = actor.UserID
	}
	if !actor.CanManageClass(trainerID) {
		return TrainerStats{}, forbidden("You do not have permission to view these stats")
	}

	now := s.clock()
	var stats TrainerStats

	// 1. Upcoming classes and their capacity
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(capacity), 0)
		FROM classes
		WHERE trainer_id = ? AND is_cancelled = ? AND start_time >= ?`,
		trainerID, false, now).Scan(&stats.UpcomingClasses, &stats.TotalCapacity)
	if err != nil {
		return stats, fmt.Errorf("count upcoming classes: %w", err)
	}

	// 2. Booked spots and waiting members on those classes
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM bookings b JOIN classes c ON c.id = b.class_id
				WHERE c.trainer_id = ? AND c.is_cancelled = ? AND c.start_time >= ? AND b.status = ?),
			(SELECT COUNT(*) FROM waitlist_entries w JOIN classes c ON c.id = w.class_id
				WHERE c.trainer_id = ? AND c.is_cancelled = ? AND c.start_time >= ? AND w.status = ?)`,
		trainerID, false, now, models.BookingStatusBooked,
		trainerID, false, now, models.WaitlistStatusWaiting,
	).Scan(&stats.BookedSpots, &stats.WaitingMembers)
	if err != nil {
		return stats, fmt.Errorf("count upcoming bookings: %w", err)
	}

	// 3. Attendance over the last 30 days
	since := now.Add(-30 * 24 * time.Hour)
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN b.status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN b.status = ? THEN 1 ELSE 0 END), 0)
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		WHERE c.trainer_id = ? AND c.start_time >= ? AND c.start_time < ?`,
		models.BookingStatusAttended, models.BookingStatusNoShow, trainerID, since, now,
	).Scan(&stats.Attended30d, &stats.NoShows30d)
	if err != nil {
		return stats, fmt.Errorf("count attendance: %w", err)
	}
	return stats, nil
}
