package model

import "time"

// Account represents one end-user profile.
type Account struct {
	UserID         string    `db:"user_id" json:"user_id"`
	Email          string    `db:"email" json:"email"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	PhotoURL       string    `db:"photo_url" json:"photo_url"`
	IsPro          bool      `db:"is_pro" json:"is_pro"`
	FreeUsageCount int       `db:"free_usage_count" json:"free_usage_count"`
	ReferralCode   string    `db:"referral_code" json:"referral_code"`
	ReferredBy     *string   `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Identity is the record handed over by the identity provider after
// authentication. The UserID is the provider-issued subject.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
}
