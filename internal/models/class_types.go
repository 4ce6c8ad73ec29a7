package models

import "time"

// ClassType is the model for the 'class_types' table
type ClassType struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Slug            string    `json:"slug" db:"slug"`
	Description     *string   `json:"description,omitempty" db:"description"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	DefaultCapacity int       `json:"default_capacity" db:"default_capacity"`
	CreditsRequired int       `json:"credits_required" db:"credits_required"` // Debited per booking
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ClassSession is the model for the 'classes' table.
// Sessions are never deleted, only flagged as cancelled.
type ClassSession struct {
	ID                 string    `json:"id" db:"id"`
	ClassTypeID        string    `json:"class_type_id" db:"class_type_id"`
	TrainerID          string    `json:"trainer_id" db:"trainer_id"`
	StartTime          time.Time `json:"start_time" db:"start_time"`
	EndTime            time.Time `json:"end_time" db:"end_time"`
	Capacity           int       `json:"capacity" db:"capacity"`
	Location           *string   `json:"location,omitempty" db:"location"`
	Description        *string   `json:"description,omitempty" db:"description"`
	IsCancelled        bool      `json:"is_cancelled" db:"is_cancelled"`
	CancellationReason *string   `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// ClassListing is a session as shown to a specific caller.
// The extra fields are computed by the listing queries, not stored.
type ClassListing struct {
	ClassSession

	ClassTypeName   string `json:"class_type_name" db:"-"`
	CreditsRequired int    `json:"credits_required" db:"-"`
	TrainerName     string `json:"trainer_name" db:"-"`
	BookingCount    int    `json:"booking_count" db:"-"`
	AvailableSpots  int    `json:"available_spots" db:"-"`
	WaitlistCount   int    `json:"waitlist_count" db:"-"`

	UserBookingStatus    *string `json:"user_booking_status" db:"-"`
	UserWaitlistPosition *int    `json:"user_waitlist_position" db:"-"`
}

// Attendee is a booking row joined with the member's contact details.
type Attendee struct {
	BookingID   string     `json:"booking_id"`
	UserID      string     `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	BookingTime time.Time  `json:"booking_time"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
}
