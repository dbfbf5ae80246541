package repository

import (
	"context"
	"errors"
	"fmt"

	"coverforge/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQRepository persists resume-analysis jobs that exhausted their retries
// so an operator can inspect and redrive them.
type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
	GetByID(ctx context.Context, id string) (*model.DeadLetterMessage, error)
	ListUnprocessed(ctx context.Context, limit int) ([]model.DeadLetterMessage, error)
	MarkRedriven(ctx context.Context, id string) error
}

type dlqRepository struct {
	pool *pgxpool.Pool
}

// NewDLQRepository creates a new DLQRepository.
func NewDLQRepository(pool *pgxpool.Pool) DLQRepository {
	return &dlqRepository{pool: pool}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	const q = `
        INSERT INTO dead_letter_messages (id, queue_name, payload, reason, status)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.pool.Exec(ctx, q, message.ID, message.QueueName, message.Payload, message.Reason, message.Status)
	if err != nil {
		return fmt.Errorf("insert dead letter message: %w", err)
	}
	return nil
}

func (r *dlqRepository) GetByID(ctx context.Context, id string) (*model.DeadLetterMessage, error) {
	const q = `
        SELECT id, queue_name, payload, reason, status, created_at, updated_at
        FROM dead_letter_messages
        WHERE id = $1
    `
	var m model.DeadLetterMessage
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.QueueName, &m.Payload, &m.Reason, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch dead letter message %s: %w", id, err)
	}
	return &m, nil
}

func (r *dlqRepository) ListUnprocessed(ctx context.Context, limit int) ([]model.DeadLetterMessage, error) {
	const q = `
        SELECT id, queue_name, payload, reason, status, created_at, updated_at
        FROM dead_letter_messages
        WHERE status = 'unprocessed'
        ORDER BY created_at
        LIMIT $1
    `
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letter messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.DeadLetterMessage
	for rows.Next() {
		var m model.DeadLetterMessage
		if err := rows.Scan(&m.ID, &m.QueueName, &m.Payload, &m.Reason, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dead letter message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letter messages: %w", err)
	}
	return msgs, nil
}

func (r *dlqRepository) MarkRedriven(ctx context.Context, id string) error {
	const q = `UPDATE dead_letter_messages SET status = 'redriven', updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("mark dead letter message %s redriven: %w", id, err)
	}
	return nil
}
