package repository

import (
	"context"
	"errors"
	"fmt"

	"coverforge/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrReferralCodeTaken is returned when a freshly generated referral code
// collides with an existing account's code.
var ErrReferralCodeTaken = errors.New("referral_code_taken")

// AccountRepository owns the accounts table. All quota mutations are single
// atomic statements so correctness does not depend on in-process locking.
type AccountRepository interface {
	// CreateAccount inserts the account if no row exists for its user ID.
	// The returned bool reports whether a new row was actually inserted.
	CreateAccount(ctx context.Context, a *model.Account) (bool, error)
	// GetAccountByID returns (nil, nil) when the account does not exist.
	GetAccountByID(ctx context.Context, userID string) (*model.Account, error)
	// FindAccountByReferralCode does a case-sensitive exact match and
	// returns (nil, nil) when no account owns the code.
	FindAccountByReferralCode(ctx context.Context, code string) (*model.Account, error)
	// RecordUsage unconditionally increments free_usage_count by one and
	// returns the new count. found is false when the account is gone.
	RecordUsage(ctx context.Context, userID string) (count int, found bool, err error)
	// ConsumeFreeUsage is the conditional increment backing the quota gate:
	// one UPDATE that increments only while the pre-increment count is below
	// limit, and passes pro accounts through without incrementing. ok is
	// false when the guard failed (account missing or quota exhausted).
	ConsumeFreeUsage(ctx context.Context, userID string, limit int) (count int, ok bool, err error)
	// SetPro flips the pro flag. found is false when the account is gone.
	SetPro(ctx context.Context, userID string, isPro bool) (found bool, err error)
}

type accountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo creates a new AccountRepository.
func NewAccountRepo(pool *pgxpool.Pool) AccountRepository {
	return &accountRepo{pool: pool}
}

func (r *accountRepo) CreateAccount(ctx context.Context, a *model.Account) (bool, error) {
	const q = `
        INSERT INTO accounts (user_id, email, display_name, photo_url, is_pro, free_usage_count, referral_code, referred_by)
        VALUES ($1, $2, $3, $4, FALSE, 0, $5, $6)
        ON CONFLICT (user_id) DO NOTHING
    `
	tag, err := r.pool.Exec(ctx, q, a.UserID, a.Email, a.DisplayName, a.PhotoURL, a.ReferralCode, a.ReferredBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "accounts_referral_code_key" {
			return false, ErrReferralCodeTaken
		}
		return false, fmt.Errorf("insert account %s: %w", a.UserID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *accountRepo) GetAccountByID(ctx context.Context, userID string) (*model.Account, error) {
	const q = `
        SELECT user_id, email, display_name, photo_url, is_pro, free_usage_count, referral_code, referred_by, created_at, updated_at
        FROM accounts
        WHERE user_id = $1
    `
	return r.scanAccount(r.pool.QueryRow(ctx, q, userID))
}

func (r *accountRepo) FindAccountByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	const q = `
        SELECT user_id, email, display_name, photo_url, is_pro, free_usage_count, referral_code, referred_by, created_at, updated_at
        FROM accounts
        WHERE referral_code = $1
    `
	return r.scanAccount(r.pool.QueryRow(ctx, q, code))
}

func (r *accountRepo) scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.UserID,
		&a.Email,
		&a.DisplayName,
		&a.PhotoURL,
		&a.IsPro,
		&a.FreeUsageCount,
		&a.ReferralCode,
		&a.ReferredBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (r *accountRepo) RecordUsage(ctx context.Context, userID string) (int, bool, error) {
	const q = `
        UPDATE accounts
        SET free_usage_count = free_usage_count + 1, updated_at = NOW()
        WHERE user_id = $1
        RETURNING free_usage_count
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("record usage for account %s: %w", userID, err)
	}
	return count, true, nil
}

func (r *accountRepo) ConsumeFreeUsage(ctx context.Context, userID string, limit int) (int, bool, error) {
	// Pro accounts pass the guard without incrementing; free accounts
	// increment only while the pre-increment count is below the limit.
	const q = `
        UPDATE accounts
        SET free_usage_count = CASE WHEN is_pro THEN free_usage_count ELSE free_usage_count + 1 END,
            updated_at = NOW()
        WHERE user_id = $1
          AND (is_pro OR free_usage_count < $2)
        RETURNING free_usage_count
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, limit).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("consume free usage for account %s: %w", userID, err)
	}
	return count, true, nil
}

func (r *accountRepo) SetPro(ctx context.Context, userID string, isPro bool) (bool, error) {
	const q = `UPDATE accounts SET is_pro = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, q, userID, isPro)
	if err != nil {
		return false, fmt.Errorf("set pro flag for account %s: %w", userID, err)
	}
	return tag.RowsAffected() == 1, nil
}
