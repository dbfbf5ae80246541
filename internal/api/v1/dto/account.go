package dto

import "time"

// AccountCreateDTO is used for incoming signup requests. The account ID
// comes from the authenticated token, never the body.
type AccountCreateDTO struct {
	Email        string `json:"email" validate:"required,email"`
	DisplayName  string `json:"display_name"`
	PhotoURL     string `json:"photo_url" validate:"omitempty,url"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=32"`
}

// AccountResponseDTO is returned in API responses.
type AccountResponseDTO struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	PhotoURL       string    `json:"photo_url"`
	IsPro          bool      `json:"is_pro"`
	FreeUsageCount int       `json:"free_usage_count"`
	RemainingFree  int       `json:"remaining_free"`
	ReferralCode   string    `json:"referral_code"`
	ReferredBy     *string   `json:"referred_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
