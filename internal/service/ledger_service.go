package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coverforge/internal/model"
	"coverforge/internal/pubsub"
	"coverforge/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrQuotaExceeded   = errors.New("free usage quota exhausted")
)

// referralCodeAttempts bounds the regenerate-on-collision loop at signup.
const referralCodeAttempts = 5

// LedgerService is the quota and referral accounting core. It owns two
// invariants: a non-pro account consumes at most FreeUsageLimit gated
// actions, and a referee redeems at most one referral code, at signup only.
type LedgerService interface {
	// CreateAccount persists a profile for a freshly authenticated identity.
	// It is idempotent on re-authentication: an existing account is returned
	// unchanged and referral redemption is not re-attempted. Redemption of
	// referralCode is best-effort and never fails signup.
	CreateAccount(ctx context.Context, identity model.Identity, referralCode string) (*model.Account, error)
	// GetAccount returns ErrAccountNotFound when no profile exists.
	GetAccount(ctx context.Context, userID string) (*model.Account, error)
	// CheckQuota reports whether the snapshot may perform a gated action.
	// It is advisory: ConsumeQuota is the authoritative gate.
	CheckQuota(a *model.Account) bool
	// Remaining is the display-only free-action count, clamped to >= 0.
	Remaining(a *model.Account) int
	// RecordUsage unconditionally increments the account's usage count and
	// returns the new value.
	RecordUsage(ctx context.Context, userID string) (int, error)
	// ConsumeQuota atomically claims one gated action: the increment and the
	// limit check happen in a single conditional write, so concurrent
	// requests can never push the count past the limit. Pro accounts pass
	// without incrementing. Returns ErrQuotaExceeded when the claim fails.
	ConsumeQuota(ctx context.Context, userID string) (int, error)
	// RedeemReferral attributes the new account to the owner of code.
	// Unknown codes and self-referrals return (nil, nil) with no error.
	RedeemReferral(ctx context.Context, code, refereeID string) (*model.ReferralEvent, error)
	// UpgradeToPro flips the account to the unlimited tier. The payment
	// event that triggers it is outside this service.
	UpgradeToPro(ctx context.Context, userID string) error
	ListReferrals(ctx context.Context, referrerID string) ([]model.ReferralEvent, error)
}

type ledgerService struct {
	accountRepo  repository.AccountRepository
	referralRepo repository.ReferralRepository
	publisher    pubsub.Publisher
	usageTopic   string
	refTopic     string

	freeLimit  int
	bonus      int
	codeLength int

	logger zerolog.Logger
}

// NewLedgerService creates a LedgerService with a scoped logger. publisher
// may be nil, in which case analytics events are skipped.
func NewLedgerService(
	accountRepo repository.AccountRepository,
	referralRepo repository.ReferralRepository,
	publisher pubsub.Publisher,
	usageTopic, referralTopic string,
	freeLimit, bonus, codeLength int,
	logger zerolog.Logger,
) LedgerService {
	return &ledgerService{
		accountRepo:  accountRepo,
		referralRepo: referralRepo,
		publisher:    publisher,
		usageTopic:   usageTopic,
		refTopic:     referralTopic,
		freeLimit:    freeLimit,
		bonus:        bonus,
		codeLength:   codeLength,
		logger:       logger.With().Str("service", "LedgerService").Logger(),
	}
}

func (s *ledgerService) CreateAccount(ctx context.Context, identity model.Identity, referralCode string) (*model.Account, error) {
	var referredBy *string
	if referralCode != "" {
		// Stored verbatim, valid or not; redemption below decides whether a
		// referral event is actually created.
		referredBy = &referralCode
	}

	var created bool
	for attempt := 0; ; attempt++ {
		code, err := GenerateReferralCode(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}
		created, err = s.accountRepo.CreateAccount(ctx, &model.Account{
			UserID:       identity.UserID,
			Email:        identity.Email,
			DisplayName:  identity.DisplayName,
			PhotoURL:     identity.PhotoURL,
			ReferralCode: code,
			ReferredBy:   referredBy,
		})
		if errors.Is(err, repository.ErrReferralCodeTaken) {
			if attempt+1 >= referralCodeAttempts {
				return nil, fmt.Errorf("allocate referral code: %w", err)
			}
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("Failed to persist account")
			return nil, err
		}
		break
	}

	account, err := s.accountRepo.GetAccountByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if created && referralCode != "" {
		if _, err := s.RedeemReferral(ctx, referralCode, account.UserID); err != nil {
			// Best-effort: a failed redemption must never fail signup.
			s.logger.Error().Err(err).Str("user_id", account.UserID).Msg("Referral redemption failed during signup")
		}
	}
	return account, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	a, err := s.accountRepo.GetAccountByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (s *ledgerService) CheckQuota(a *model.Account) bool {
	return a.IsPro || a.FreeUsageCount < s.freeLimit
}

func (s *ledgerService) Remaining(a *model.Account) int {
	if a.IsPro {
		return 0
	}
	if remaining := s.freeLimit - a.FreeUsageCount; remaining > 0 {
		return remaining
	}
	return 0
}

func (s *ledgerService) RecordUsage(ctx context.Context, userID string) (int, error) {
	count, found, err := s.accountRepo.RecordUsage(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record usage")
		return 0, err
	}
	if !found {
		return 0, ErrAccountNotFound
	}
	s.publishUsage(ctx, userID, count)
	return count, nil
}

func (s *ledgerService) ConsumeQuota(ctx context.Context, userID string) (int, error) {
	count, ok, err := s.accountRepo.ConsumeFreeUsage(ctx, userID, s.freeLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to consume quota")
		return 0, err
	}
	if !ok {
		// The guard failed: distinguish a missing account from an
		// exhausted one.
		account, err := s.accountRepo.GetAccountByID(ctx, userID)
		if err != nil {
			return 0, err
		}
		if account == nil {
			return 0, ErrAccountNotFound
		}
		return account.FreeUsageCount, ErrQuotaExceeded
	}
	s.publishUsage(ctx, userID, count)
	return count, nil
}

func (s *ledgerService) RedeemReferral(ctx context.Context, code, refereeID string) (*model.ReferralEvent, error) {
	if code == "" {
		return nil, nil
	}
	referrer, err := s.accountRepo.FindAccountByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		// Unknown or mistyped codes are silently ignored so redemption
		// attempts cannot reveal which codes exist.
		return nil, nil
	}
	if referrer.UserID == refereeID {
		s.logger.Warn().Str("user_id", refereeID).Msg("Rejected self-referral")
		return nil, nil
	}

	ev := &model.ReferralEvent{
		ID:         uuid.NewString(),
		ReferrerID: referrer.UserID,
		RefereeID:  refereeID,
		Status:     model.ReferralStatusCompleted,
		Bonus:      s.bonus,
	}
	created, err := s.referralRepo.InsertEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	if !created {
		// This referee already redeemed a code; second writer loses.
		return nil, nil
	}

	s.publish(ctx, s.refTopic, referralCompletedEvent{
		ReferrerID: ev.ReferrerID,
		RefereeID:  ev.RefereeID,
		Bonus:      ev.Bonus,
		OccurredAt: time.Now().UTC(),
	})
	return ev, nil
}

func (s *ledgerService) UpgradeToPro(ctx context.Context, userID string) error {
	found, err := s.accountRepo.SetPro(ctx, userID, true)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to upgrade account")
		return err
	}
	if !found {
		return ErrAccountNotFound
	}
	return nil
}

func (s *ledgerService) ListReferrals(ctx context.Context, referrerID string) ([]model.ReferralEvent, error) {
	return s.referralRepo.ListEventsByReferrer(ctx, referrerID)
}

type usageRecordedEvent struct {
	UserID         string    `json:"user_id"`
	FreeUsageCount int       `json:"free_usage_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type referralCompletedEvent struct {
	ReferrerID string    `json:"referrer_id"`
	RefereeID  string    `json:"referee_id"`
	Bonus      int       `json:"bonus"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *ledgerService) publishUsage(ctx context.Context, userID string, count int) {
	s.publish(ctx, s.usageTopic, usageRecordedEvent{
		UserID:         userID,
		FreeUsageCount: count,
		OccurredAt:     time.Now().UTC(),
	})
}

// publish emits an analytics event. Failures are logged and swallowed;
// accounting never depends on the event stream.
func (s *ledgerService) publish(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("Failed to marshal analytics event")
		return
	}
	if _, err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish analytics event")
	}
}
