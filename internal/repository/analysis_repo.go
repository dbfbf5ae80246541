package repository

import (
	"context"
	"errors"
	"fmt"

	"coverforge/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisRepository owns the resume_analyses table. Rows are created either
// completed (synchronous text analysis) or queued (upload pipeline), and the
// worker moves queued rows through processing to a terminal status.
type AnalysisRepository interface {
	CreateAnalysis(ctx context.Context, a *model.ResumeAnalysis) error
	GetAnalysisByID(ctx context.Context, id string) (*model.ResumeAnalysis, error)
	ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]model.ResumeAnalysis, error)
	// SetStatus moves the row to the given status, optionally recording
	// error details for failed jobs.
	SetStatus(ctx context.Context, id string, status model.AnalysisStatus, errorDetails *string) error
	// CompleteAnalysis writes the scored result and marks the row completed.
	CompleteAnalysis(ctx context.Context, a *model.ResumeAnalysis) error
}

type analysisRepo struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepo creates a new AnalysisRepository.
func NewAnalysisRepo(pool *pgxpool.Pool) AnalysisRepository {
	return &analysisRepo{pool: pool}
}

func (r *analysisRepo) CreateAnalysis(ctx context.Context, a *model.ResumeAnalysis) error {
	const q = `
        INSERT INTO resume_analyses (id, user_id, file_name, storage_path, status, score, suggestions, keyword_matches, missing_keywords)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q,
		a.ID,
		a.UserID,
		a.FileName,
		a.StoragePath,
		a.Status,
		a.Score,
		a.Suggestions,
		a.KeywordMatches,
		a.MissingKeywords,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create analysis for user %s: %w", a.UserID, err)
	}
	return nil
}

func (r *analysisRepo) GetAnalysisByID(ctx context.Context, id string) (*model.ResumeAnalysis, error) {
	const q = `
        SELECT id, user_id, file_name, storage_path, status, score, suggestions, keyword_matches, missing_keywords, error_details, created_at, updated_at
        FROM resume_analyses
        WHERE id = $1
    `
	var a model.ResumeAnalysis
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID,
		&a.UserID,
		&a.FileName,
		&a.StoragePath,
		&a.Status,
		&a.Score,
		&a.Suggestions,
		&a.KeywordMatches,
		&a.MissingKeywords,
		&a.ErrorDetails,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch analysis %s: %w", id, err)
	}
	return &a, nil
}

func (r *analysisRepo) ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]model.ResumeAnalysis, error) {
	const q = `
        SELECT id, user_id, file_name, storage_path, status, score, suggestions, keyword_matches, missing_keywords, error_details, created_at, updated_at
        FROM resume_analyses
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list analyses for user %s: %w", userID, err)
	}
	defer rows.Close()

	var analyses []model.ResumeAnalysis
	for rows.Next() {
		var a model.ResumeAnalysis
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.FileName,
			&a.StoragePath,
			&a.Status,
			&a.Score,
			&a.Suggestions,
			&a.KeywordMatches,
			&a.MissingKeywords,
			&a.ErrorDetails,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return analyses, nil
}

func (r *analysisRepo) SetStatus(ctx context.Context, id string, status model.AnalysisStatus, errorDetails *string) error {
	const q = `
        UPDATE resume_analyses
        SET status = $2, error_details = $3, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, status, errorDetails); err != nil {
		return fmt.Errorf("set analysis %s status to %s: %w", id, status, err)
	}
	return nil
}

func (r *analysisRepo) CompleteAnalysis(ctx context.Context, a *model.ResumeAnalysis) error {
	const q = `
        UPDATE resume_analyses
        SET status = $2, score = $3, suggestions = $4, keyword_matches = $5, missing_keywords = $6, error_details = NULL, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, a.ID, model.AnalysisStatusCompleted, a.Score, a.Suggestions, a.KeywordMatches, a.MissingKeywords); err != nil {
		return fmt.Errorf("complete analysis %s: %w", a.ID, err)
	}
	return nil
}
