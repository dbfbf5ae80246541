package repository

import (
	"context"
	"errors"
	"fmt"

	"coverforge/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralRepository owns the referral_events table. The UNIQUE constraint
// on referee_id is what makes concurrent duplicate redemptions safe: the
// second writer loses silently.
type ReferralRepository interface {
	// InsertEvent persists the event unless one already exists for the
	// referee. created is false on that benign conflict.
	InsertEvent(ctx context.Context, ev *model.ReferralEvent) (created bool, err error)
	GetEventByReferee(ctx context.Context, refereeID string) (*model.ReferralEvent, error)
	ListEventsByReferrer(ctx context.Context, referrerID string) ([]model.ReferralEvent, error)
}

type referralRepo struct {
	pool *pgxpool.Pool
}

// NewReferralRepo creates a new ReferralRepository.
func NewReferralRepo(pool *pgxpool.Pool) ReferralRepository {
	return &referralRepo{pool: pool}
}

func (r *referralRepo) InsertEvent(ctx context.Context, ev *model.ReferralEvent) (bool, error) {
	const q = `
        INSERT INTO referral_events (id, referrer_id, referee_id, status, bonus)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (referee_id) DO NOTHING
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q, ev.ID, ev.ReferrerID, ev.RefereeID, ev.Status, ev.Bonus).Scan(&ev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// An event for this referee already exists.
			return false, nil
		}
		return false, fmt.Errorf("insert referral event for referee %s: %w", ev.RefereeID, err)
	}
	return true, nil
}

func (r *referralRepo) GetEventByReferee(ctx context.Context, refereeID string) (*model.ReferralEvent, error) {
	const q = `
        SELECT id, referrer_id, referee_id, status, bonus, created_at
        FROM referral_events
        WHERE referee_id = $1
    `
	var ev model.ReferralEvent
	err := r.pool.QueryRow(ctx, q, refereeID).Scan(&ev.ID, &ev.ReferrerID, &ev.RefereeID, &ev.Status, &ev.Bonus, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch referral event for referee %s: %w", refereeID, err)
	}
	return &ev, nil
}

func (r *referralRepo) ListEventsByReferrer(ctx context.Context, referrerID string) ([]model.ReferralEvent, error) {
	const q = `
        SELECT id, referrer_id, referee_id, status, bonus, created_at
        FROM referral_events
        WHERE referrer_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, q, referrerID)
	if err != nil {
		return nil, fmt.Errorf("list referral events for referrer %s: %w", referrerID, err)
	}
	defer rows.Close()

	var events []model.ReferralEvent
	for rows.Next() {
		var ev model.ReferralEvent
		if err := rows.Scan(&ev.ID, &ev.ReferrerID, &ev.RefereeID, &ev.Status, &ev.Bonus, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referral events: %w", err)
	}
	return events, nil
}
