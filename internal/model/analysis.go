package model

import "time"

// AnalysisStatus tracks a resume analysis through the async pipeline.
// Synchronous text analyses are written directly as completed.
type AnalysisStatus string

const (
	AnalysisStatusQueued     AnalysisStatus = "queued"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
	// Rejected means the account ran out of free quota before the job ran.
	AnalysisStatusRejected AnalysisStatus = "rejected"
)

// ResumeAnalysis is the scored result of analyzing one resume.
type ResumeAnalysis struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	FileName        string         `db:"file_name" json:"file_name"`
	StoragePath     *string        `db:"storage_path" json:"storage_path,omitempty"`
	Status          AnalysisStatus `db:"status" json:"status"`
	Score           int            `db:"score" json:"score"`
	Suggestions     []string       `db:"suggestions" json:"suggestions"`
	KeywordMatches  []string       `db:"keyword_matches" json:"keyword_matches"`
	MissingKeywords []string       `db:"missing_keywords" json:"missing_keywords"`
	ErrorDetails    *string        `db:"error_details" json:"error_details,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
