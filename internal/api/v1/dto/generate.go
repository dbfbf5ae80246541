package dto

import "time"

// CoverLetterCreateDTO is used for incoming cover-letter generation requests.
type CoverLetterCreateDTO struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobTitle       string `json:"job_title" validate:"required"`
	CompanyName    string `json:"company_name" validate:"required"`
	JobDescription string `json:"job_description"`
	Tone           string `json:"tone" validate:"omitempty,oneof=professional enthusiastic concise"`
	Language       string `json:"language"`
}

// CoverLetterResponseDTO is returned in API responses for cover letters.
type CoverLetterResponseDTO struct {
	ID          string    `json:"id"`
	JobTitle    string    `json:"job_title"`
	CompanyName string    `json:"company_name"`
	Content     string    `json:"content"`
	Tone        string    `json:"tone"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmailCreateDTO is used for incoming email generation requests.
type EmailCreateDTO struct {
	Type              string `json:"type" validate:"required,oneof=application follow-up thank-you"`
	JobTitle          string `json:"job_title" validate:"required"`
	CompanyName       string `json:"company_name" validate:"required"`
	HiringManagerName string `json:"hiring_manager_name"`
	Context           string `json:"context"`
}

// EmailResponseDTO is returned in API responses for emails.
type EmailResponseDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalyzeCreateDTO is used for incoming synchronous resume analyses.
type AnalyzeCreateDTO struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	FileName       string `json:"file_name"`
	JobDescription string `json:"job_description"`
}

// AnalysisResponseDTO is returned in API responses for resume analyses,
// both synchronous and queued.
type AnalysisResponseDTO struct {
	ID              string    `json:"id"`
	FileName        string    `json:"file_name"`
	Status          string    `json:"status"`
	Score           int       `json:"score"`
	Suggestions     []string  `json:"suggestions"`
	KeywordMatches  []string  `json:"keyword_matches"`
	MissingKeywords []string  `json:"missing_keywords"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
