package service

import (
	"context"
	"errors"

	"coverforge/internal/model"
	"coverforge/internal/pgmq"
	"coverforge/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrDLQMessageNotFound = errors.New("dead letter message not found")
	ErrDLQAlreadyRedriven = errors.New("dead letter message already redriven")
)

// DLQService parks analysis jobs that exhausted their retries and lets an
// operator redrive them back onto the original queue.
type DLQService interface {
	Park(ctx context.Context, queueName string, payload []byte, reason string) error
	List(ctx context.Context, limit int) ([]model.DeadLetterMessage, error)
	Redrive(ctx context.Context, id string) error
}

type dlqService struct {
	repo   repository.DLQRepository
	queue  *pgmq.Client
	logger zerolog.Logger
}

// NewDLQService creates a DLQService with a scoped logger.
func NewDLQService(repo repository.DLQRepository, queue *pgmq.Client, logger zerolog.Logger) DLQService {
	return &dlqService{
		repo:   repo,
		queue:  queue,
		logger: logger.With().Str("service", "DLQService").Logger(),
	}
}

func (s *dlqService) Park(ctx context.Context, queueName string, payload []byte, reason string) error {
	return s.repo.Create(ctx, &model.DeadLetterMessage{
		ID:        uuid.NewString(),
		QueueName: queueName,
		Payload:   string(payload),
		Reason:    reason,
		Status:    "unprocessed",
	})
}

func (s *dlqService) List(ctx context.Context, limit int) ([]model.DeadLetterMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListUnprocessed(ctx, limit)
}

func (s *dlqService) Redrive(ctx context.Context, id string) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrDLQMessageNotFound
	}
	if m.Status != "unprocessed" {
		return ErrDLQAlreadyRedriven
	}
	if err := s.queue.Send(ctx, m.QueueName, []byte(m.Payload)); err != nil {
		s.logger.Error().Err(err).Str("dlq_id", id).Msg("Failed to re-enqueue dead letter message")
		return err
	}
	return s.repo.MarkRedriven(ctx, id)
}
