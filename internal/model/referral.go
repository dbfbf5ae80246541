package model

import "time"

// ReferralStatus is the lifecycle state of a referral event. Events are
// written as completed at creation and never transitioned afterwards.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
)

// ReferralEvent records one successful referral redemption. At most one
// event exists per referee, enforced by the store.
type ReferralEvent struct {
	ID         string         `db:"id" json:"id"`
	ReferrerID string         `db:"referrer_id" json:"referrer_id"`
	RefereeID  string         `db:"referee_id" json:"referee_id"`
	Status     ReferralStatus `db:"status" json:"status"`
	Bonus      int            `db:"bonus" json:"bonus"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
