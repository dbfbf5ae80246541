package repository

import (
	"context"
	"fmt"

	"coverforge/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository persists the user's generation history (cover letters
// and emails). Analyses live in AnalysisRepository.
type DocumentRepository interface {
	SaveCoverLetter(ctx context.Context, cl *model.CoverLetter) error
	ListCoverLetters(ctx context.Context, userID string, limit, offset int) ([]model.CoverLetter, error)
	SaveEmail(ctx context.Context, e *model.Email) error
	ListEmails(ctx context.Context, userID string, limit, offset int) ([]model.Email, error)
}

type documentRepo struct {
	pool *pgxpool.Pool
}

// NewDocumentRepo creates a new DocumentRepository.
func NewDocumentRepo(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepo{pool: pool}
}

func (r *documentRepo) SaveCoverLetter(ctx context.Context, cl *model.CoverLetter) error {
	const q = `
        INSERT INTO cover_letters (id, user_id, job_title, company_name, content, tone, language)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q, cl.ID, cl.UserID, cl.JobTitle, cl.CompanyName, cl.Content, cl.Tone, cl.Language).Scan(&cl.CreatedAt)
	if err != nil {
		return fmt.Errorf("save cover letter for user %s: %w", cl.UserID, err)
	}
	return nil
}

func (r *documentRepo) ListCoverLetters(ctx context.Context, userID string, limit, offset int) ([]model.CoverLetter, error) {
	const q = `
        SELECT id, user_id, job_title, company_name, content, tone, language, created_at
        FROM cover_letters
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cover letters for user %s: %w", userID, err)
	}
	defer rows.Close()

	var letters []model.CoverLetter
	for rows.Next() {
		var cl model.CoverLetter
		if err := rows.Scan(&cl.ID, &cl.UserID, &cl.JobTitle, &cl.CompanyName, &cl.Content, &cl.Tone, &cl.Language, &cl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cover letter: %w", err)
		}
		letters = append(letters, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cover letters: %w", err)
	}
	return letters, nil
}

func (r *documentRepo) SaveEmail(ctx context.Context, e *model.Email) error {
	const q = `
        INSERT INTO emails (id, user_id, type, subject, content)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q, e.ID, e.UserID, e.Type, e.Subject, e.Content).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("save email for user %s: %w", e.UserID, err)
	}
	return nil
}

func (r *documentRepo) ListEmails(ctx context.Context, userID string, limit, offset int) ([]model.Email, error) {
	const q = `
        SELECT id, user_id, type, subject, content, created_at
        FROM emails
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list emails for user %s: %w", userID, err)
	}
	defer rows.Close()

	var emails []model.Email
	for rows.Next() {
		var e model.Email
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Subject, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return emails, nil
}
