package booking

import (
	"context"
	"fmt"

	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// ActiveBookingCount counts the bookings that hold a spot in a class.
// Attended bookings keep their spot; cancelled and no-show ones do not.
func ActiveBookingCount(ctx context.Context, q database.Querier, classID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status IN (?, ?)",
		classID, models.BookingStatusBooked, models.BookingStatusAttended,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bookings for class %s: %w", classID, err)
	}
	return count, nil
}

// HasCapacity reports whether another booking fits in the class.
func HasCapacity(ctx context.Context, q database.Querier, class models.ClassSession) (bool, error) {
	count, err := ActiveBookingCount(ctx, q, class.ID)
	if err != nil {
		return false, err
	}
	return count < class.Capacity, nil
}
