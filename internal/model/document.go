package model

import "time"

// CoverLetterTone selects the template family used for generation.
type CoverLetterTone string

const (
	ToneProfessional CoverLetterTone = "professional"
	ToneEnthusiastic CoverLetterTone = "enthusiastic"
	ToneConcise      CoverLetterTone = "concise"
)

// EmailType selects the email template used for generation.
type EmailType string

const (
	EmailApplication EmailType = "application"
	EmailFollowUp    EmailType = "follow-up"
	EmailThankYou    EmailType = "thank-you"
)

// CoverLetter is one generated cover letter kept in the user's history.
type CoverLetter struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	JobTitle    string          `db:"job_title" json:"job_title"`
	CompanyName string          `db:"company_name" json:"company_name"`
	Content     string          `db:"content" json:"content"`
	Tone        CoverLetterTone `db:"tone" json:"tone"`
	Language    string          `db:"language" json:"language"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Email is one generated job-search email kept in the user's history.
type Email struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      EmailType `db:"type" json:"type"`
	Subject   string    `db:"subject" json:"subject"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
