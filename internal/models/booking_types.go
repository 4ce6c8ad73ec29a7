package models

import "time"

const (
	BookingStatusBooked    = "booked"
	BookingStatusCancelled = "cancelled"
	BookingStatusAttended  = "attended"
	BookingStatusNoShow    = "no-show"
)

// Booking is the model for the 'bookings' table.
// booked is the only non-terminal status.
type Booking struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"user_id" db:"user_id"`
	ClassID            string     `json:"class_id" db:"class_id"`
	Status             string     `json:"status" db:"status"`
	CreditsUsed        int        `json:"credits_used" db:"credits_used"`
	BookingTime        time.Time  `json:"booking_time" db:"booking_time"`
	CancellationTime   *time.Time `json:"cancellation_time,omitempty" db:"cancellation_time"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CheckInTime        *time.Time `json:"check_in_time,omitempty" db:"check_in_time"`
}

// BookingDetail adds the class fields shown in a member's booking history.
type BookingDetail struct {
	Booking

	ClassName        string    `json:"class_name" db:"-"`
	ClassStartTime   time.Time `json:"class_start_time" db:"-"`
	ClassEndTime     time.Time `json:"class_end_time" db:"-"`
	Location         *string   `json:"location,omitempty" db:"-"`
	TrainerName      string    `json:"trainer_name" db:"-"`
	ClassIsCancelled bool      `json:"class_is_cancelled" db:"-"`
}
