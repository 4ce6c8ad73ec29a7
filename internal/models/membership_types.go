package models

import "time"

const (
	MembershipStatusActive    = "active"
	MembershipStatusPaused    = "paused"
	MembershipStatusExpired   = "expired"
	MembershipStatusCancelled = "cancelled"
)

// Membership is the model for the 'memberships' table.
// A nil RemainingCredits means unlimited.
type Membership struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	MembershipTypeID string    `json:"membership_type_id" db:"membership_type_id"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
	Status           string    `json:"status" db:"status"`
	RemainingCredits *int      `json:"remaining_credits" db:"remaining_credits"`
}

func (m Membership) Unlimited() bool {
	return m.RemainingCredits == nil
}
