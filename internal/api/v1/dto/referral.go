package dto

import "time"

// ReferralEventResponseDTO is one redeemed referral, seen by the referrer.
type ReferralEventResponseDTO struct {
	ID        string    `json:"id"`
	RefereeID string    `json:"referee_id"`
	Status    string    `json:"status"`
	Bonus     int       `json:"bonus"`
	CreatedAt time.Time `json:"created_at"`
}
