package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coverforge/internal/config"
	"coverforge/internal/model"
	"coverforge/internal/pgmq"
	"coverforge/internal/repository"
	"coverforge/internal/service"

	"github.com/rs/zerolog"
)

// queueClient is the slice of the pgmq client the worker consumes.
type queueClient interface {
	ReadWithPoll(ctx context.Context, queue string, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// Worker drains the resume-analysis queue: it claims one quota unit per
// job, pulls the stored resume, scores it, and writes the result back.
type Worker struct {
	cfg      *config.Config
	queue    queueClient
	ledger   service.LedgerService
	resumes  service.ResumeService
	analyses repository.AnalysisRepository
	dlq      service.DLQService
	logger   zerolog.Logger
}

// New creates a Worker with a scoped logger.
func New(
	cfg *config.Config,
	queue queueClient,
	ledger service.LedgerService,
	resumes service.ResumeService,
	analyses repository.AnalysisRepository,
	dlq service.DLQService,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		cfg:      cfg,
		queue:    queue,
		ledger:   ledger,
		resumes:  resumes,
		analyses: analyses,
		dlq:      dlq,
		logger:   logger.With().Str("worker", "analysis").Logger(),
	}
}

// Run polls the analysis queue until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	queue := w.cfg.AnalysisQueueName
	w.logger.Info().Str("queue", queue).Msg("Starting analysis worker")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down analysis worker")
			return nil
		default:
		}

		msgs, err := w.queue.ReadWithPoll(ctx, queue, w.cfg.AnalysisPollTimeoutSec, w.cfg.AnalysisPollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading analysis queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		w.logger.Info().Int64("msg_id", msg.ID).Msg("Received analysis job")

		var job service.AnalysisJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			w.logger.Error().Err(err).Msg("Failed to unmarshal analysis payload; deleting message")
			w.ack(ctx, queue, msg.ID)
			continue
		}

		if err := w.analyses.SetStatus(ctx, job.AnalysisID, model.AnalysisStatusProcessing, nil); err != nil {
			w.logger.Error().Err(err).Str("analysis_id", job.AnalysisID).Msg("Failed to mark analysis processing; will retry")
			time.Sleep(time.Second)
			continue
		}

		w.handle(ctx, queue, msg, job)
	}
}

func (w *Worker) handle(ctx context.Context, queue string, msg *pgmq.Message, job service.AnalysisJob) {
	// Quota is claimed at most once per delivery, even across retries of
	// the later steps.
	quotaClaimed := false
	backoff := time.Duration(w.cfg.AnalysisBackoffInitialSec) * time.Second
	var lastErr error

	for attempt := 1; attempt <= w.cfg.AnalysisMaxRetries; attempt++ {
		if !quotaClaimed {
			_, err := w.ledger.ConsumeQuota(ctx, job.UserID)
			switch {
			case errors.Is(err, service.ErrQuotaExceeded):
				w.logger.Warn().Str("analysis_id", job.AnalysisID).Str("user_id", job.UserID).Msg("Quota exhausted; rejecting queued analysis")
				details := "free usage quota exhausted before the analysis ran"
				w.setStatus(ctx, job.AnalysisID, model.AnalysisStatusRejected, &details)
				w.ack(ctx, queue, msg.ID)
				return
			case errors.Is(err, service.ErrAccountNotFound):
				w.logger.Warn().Str("analysis_id", job.AnalysisID).Str("user_id", job.UserID).Msg("Account gone; dropping queued analysis")
				details := "account no longer exists"
				w.setStatus(ctx, job.AnalysisID, model.AnalysisStatusFailed, &details)
				w.ack(ctx, queue, msg.ID)
				return
			case err != nil:
				lastErr = fmt.Errorf("consume quota: %w", err)
				w.logger.Error().Err(lastErr).Int("attempt", attempt).Msg("Analysis step failed, retrying")
				backoff = w.sleep(backoff)
				continue
			}
			quotaClaimed = true
		}

		if lastErr = w.analyze(ctx, job); lastErr == nil {
			w.ack(ctx, queue, msg.ID)
			w.logger.Info().Str("analysis_id", job.AnalysisID).Msg("Analysis completed")
			return
		}
		w.logger.Error().Err(lastErr).Int("attempt", attempt).Msg("Analysis step failed, retrying")
		backoff = w.sleep(backoff)
	}

	// Retries exhausted: park the job for operator inspection.
	details := lastErr.Error()
	w.setStatus(ctx, job.AnalysisID, model.AnalysisStatusFailed, &details)
	w.dlqPark(ctx, queue, msg.Data, lastErr)
	w.ack(ctx, queue, msg.ID)
	w.logger.Warn().
		Int("attempts", w.cfg.AnalysisMaxRetries).
		Str("analysis_id", job.AnalysisID).
		Err(lastErr).
		Msg("Exhausted all analysis retries; moving job to DLQ")
}

func (w *Worker) analyze(ctx context.Context, job service.AnalysisJob) error {
	data, err := w.resumes.FetchResume(ctx, job.StoragePath)
	if err != nil {
		return err
	}
	result := service.AnalyzeResumeContent(string(data), job.JobDescription)
	return w.analyses.CompleteAnalysis(ctx, &model.ResumeAnalysis{
		ID:              job.AnalysisID,
		UserID:          job.UserID,
		Score:           result.Score,
		Suggestions:     result.Suggestions,
		KeywordMatches:  result.KeywordMatches,
		MissingKeywords: result.MissingKeywords,
	})
}

func (w *Worker) sleep(backoff time.Duration) time.Duration {
	time.Sleep(backoff)
	next := backoff * 2
	if maxWait := time.Duration(w.cfg.AnalysisBackoffMaxSec) * time.Second; next > maxWait {
		next = maxWait
	}
	return next
}

func (w *Worker) ack(ctx context.Context, queue string, msgID int64) {
	if err := w.queue.Delete(ctx, queue, []int64{msgID}); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msgID).Msg("Error deleting analysis message")
	}
}

func (w *Worker) setStatus(ctx context.Context, analysisID string, status model.AnalysisStatus, details *string) {
	if err := w.analyses.SetStatus(ctx, analysisID, status, details); err != nil {
		w.logger.Error().Err(err).Str("analysis_id", analysisID).Msgf("Failed to update analysis status to %s", status)
	}
}

func (w *Worker) dlqPark(ctx context.Context, queue string, payload []byte, cause error) {
	if err := w.dlq.Park(ctx, queue, payload, cause.Error()); err != nil {
		w.logger.Error().Err(err).Msg("Failed to park message in dead letter store")
	}
}
