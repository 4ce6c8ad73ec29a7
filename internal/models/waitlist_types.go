package models

import "time"

const (
	WaitlistStatusWaiting   = "waiting"
	WaitlistStatusNotified  = "notified"
	WaitlistStatusConverted = "converted"
	WaitlistStatusRemoved   = "removed"
)

// WaitlistEntry is the model for the 'waitlist_entries' table.
// Only waiting entries carry a meaningful position.
type WaitlistEntry struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	ClassID          string     `json:"class_id" db:"class_id"`
	Position         int        `json:"position" db:"position"`
	Status           string     `json:"status" db:"status"`
	JoinTime         time.Time  `json:"join_time" db:"join_time"`
	NotificationTime *time.Time `json:"notification_time,omitempty" db:"notification_time"`
}

type WaitlistDetail struct {
	WaitlistEntry

	ClassName      string    `json:"class_name" db:"-"`
	ClassStartTime time.Time `json:"class_start_time" db:"-"`
	ClassEndTime   time.Time `json:"class_end_time" db:"-"`
	Location       *string   `json:"location,omitempty" db:"-"`
}
