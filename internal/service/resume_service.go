package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"coverforge/internal/model"
	"coverforge/internal/pgmq"
	"coverforge/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AnalysisJob is the queue payload handed from the upload endpoint to the
// analysis worker.
type AnalysisJob struct {
	AnalysisID     string `json:"analysis_id"`
	UserID         string `json:"user_id"`
	StoragePath    string `json:"storage_path"`
	FileName       string `json:"file_name"`
	JobDescription string `json:"job_description,omitempty"`
}

// ResumeService stores uploaded resumes in object storage and feeds the
// async analysis queue. Quota for uploaded resumes is claimed by the worker
// at pickup, but exhausted accounts are rejected here up front.
type ResumeService interface {
	SubmitResume(ctx context.Context, userID, fileName string, data []byte, jobDescription string) (*model.ResumeAnalysis, error)
	// FetchResume reads a stored resume back; used by the analysis worker.
	FetchResume(ctx context.Context, storagePath string) ([]byte, error)
}

type resumeService struct {
	ledger       LedgerService
	analysisRepo repository.AnalysisRepository
	s3Client     *s3.Client
	bucketName   string
	queue        *pgmq.Client
	queueName    string
	logger       zerolog.Logger
}

// NewResumeService creates a ResumeService with a scoped logger.
func NewResumeService(
	ledger LedgerService,
	analysisRepo repository.AnalysisRepository,
	s3Client *s3.Client,
	bucketName string,
	queue *pgmq.Client,
	queueName string,
	logger zerolog.Logger,
) ResumeService {
	return &resumeService{
		ledger:       ledger,
		analysisRepo: analysisRepo,
		s3Client:     s3Client,
		bucketName:   bucketName,
		queue:        queue,
		queueName:    queueName,
		logger:       logger.With().Str("service", "ResumeService").Logger(),
	}
}

func (s *resumeService) SubmitResume(ctx context.Context, userID, fileName string, data []byte, jobDescription string) (*model.ResumeAnalysis, error) {
	account, err := s.ledger.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.ledger.CheckQuota(account) {
		return nil, ErrQuotaExceeded
	}

	analysisID := uuid.NewString()
	storagePath := fmt.Sprintf("resumes/%s/%s", userID, analysisID)
	analysis := &model.ResumeAnalysis{
		ID:          analysisID,
		UserID:      userID,
		FileName:    fileName,
		StoragePath: &storagePath,
		Status:      model.AnalysisStatusQueued,
	}
	if err := s.analysisRepo.CreateAnalysis(ctx, analysis); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create analysis record for upload")
		return nil, err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storagePath),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("Failed to upload resume to object storage")
		details := err.Error()
		_ = s.analysisRepo.SetStatus(ctx, analysisID, model.AnalysisStatusFailed, &details)
		return nil, fmt.Errorf("store resume: %w", err)
	}

	payload, err := json.Marshal(AnalysisJob{
		AnalysisID:     analysisID,
		UserID:         userID,
		StoragePath:    storagePath,
		FileName:       fileName,
		JobDescription: jobDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis job: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		s.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("Failed to enqueue analysis job")
		details := err.Error()
		_ = s.analysisRepo.SetStatus(ctx, analysisID, model.AnalysisStatusFailed, &details)
		return nil, err
	}
	return analysis, nil
}

func (s *resumeService) FetchResume(ctx context.Context, storagePath string) ([]byte, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storagePath),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch resume %s: %w", storagePath, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read resume %s: %w", storagePath, err)
	}
	return data, nil
}
