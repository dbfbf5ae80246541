package service

import (
	"context"

	"coverforge/internal/model"
	"coverforge/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CoverLetterRequest carries the inputs for one cover-letter generation.
type CoverLetterRequest struct {
	ResumeText     string
	JobTitle       string
	CompanyName    string
	JobDescription string
	Tone           model.CoverLetterTone
	Language       string
}

// EmailRequest carries the inputs for one email generation.
type EmailRequest struct {
	Type              model.EmailType
	JobTitle          string
	CompanyName       string
	HiringManagerName string
	Context           string
}

// AnalyzeRequest carries the inputs for one synchronous resume analysis.
type AnalyzeRequest struct {
	ResumeText     string
	FileName       string
	JobDescription string
}

// GenerationService produces cover letters, emails, and resume analyses.
// Every generation is a gated action: it claims one quota unit through the
// ledger after the content is produced, so an abandoned request never
// consumes quota and concurrent requests cannot overrun the free limit.
type GenerationService interface {
	GenerateCoverLetter(ctx context.Context, userID string, req CoverLetterRequest) (*model.CoverLetter, error)
	ListCoverLetters(ctx context.Context, userID string, limit, offset int) ([]model.CoverLetter, error)
	GenerateEmail(ctx context.Context, userID string, req EmailRequest) (*model.Email, error)
	ListEmails(ctx context.Context, userID string, limit, offset int) ([]model.Email, error)
	AnalyzeResume(ctx context.Context, userID string, req AnalyzeRequest) (*model.ResumeAnalysis, error)
	ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]model.ResumeAnalysis, error)
}

type generationService struct {
	ledger       LedgerService
	docRepo      repository.DocumentRepository
	analysisRepo repository.AnalysisRepository
	logger       zerolog.Logger
}

// NewGenerationService creates a GenerationService with a scoped logger.
func NewGenerationService(
	ledger LedgerService,
	docRepo repository.DocumentRepository,
	analysisRepo repository.AnalysisRepository,
	logger zerolog.Logger,
) GenerationService {
	return &generationService{
		ledger:       ledger,
		docRepo:      docRepo,
		analysisRepo: analysisRepo,
		logger:       logger.With().Str("service", "GenerationService").Logger(),
	}
}

// claimQuota runs the pre-flight snapshot check and, once the content has
// been produced, the authoritative atomic claim. Called with produced=false
// before generating and produced=true after.
func (s *generationService) claimQuota(ctx context.Context, userID string, produced bool) error {
	if !produced {
		account, err := s.ledger.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		if !s.ledger.CheckQuota(account) {
			return ErrQuotaExceeded
		}
		return nil
	}
	// The action only counts if it actually completed; a canceled request
	// stops here without consuming quota.
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.ledger.ConsumeQuota(ctx, userID)
	return err
}

func (s *generationService) GenerateCoverLetter(ctx context.Context, userID string, req CoverLetterRequest) (*model.CoverLetter, error) {
	if err := s.claimQuota(ctx, userID, false); err != nil {
		return nil, err
	}
	content := renderCoverLetter(req.JobTitle, req.CompanyName, req.Tone)
	if err := s.claimQuota(ctx, userID, true); err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "en"
	}
	cl := &model.CoverLetter{
		ID:          uuid.NewString(),
		UserID:      userID,
		JobTitle:    req.JobTitle,
		CompanyName: req.CompanyName,
		Content:     content,
		Tone:        req.Tone,
		Language:    language,
	}
	if err := s.docRepo.SaveCoverLetter(ctx, cl); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save cover letter")
		return nil, err
	}
	return cl, nil
}

func (s *generationService) ListCoverLetters(ctx context.Context, userID string, limit, offset int) ([]model.CoverLetter, error) {
	return s.docRepo.ListCoverLetters(ctx, userID, limit, offset)
}

func (s *generationService) GenerateEmail(ctx context.Context, userID string, req EmailRequest) (*model.Email, error) {
	if err := s.claimQuota(ctx, userID, false); err != nil {
		return nil, err
	}
	subject, content := renderEmail(req.Type, req.JobTitle, req.CompanyName, req.HiringManagerName)
	if err := s.claimQuota(ctx, userID, true); err != nil {
		return nil, err
	}

	e := &model.Email{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    req.Type,
		Subject: subject,
		Content: content,
	}
	if err := s.docRepo.SaveEmail(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save email")
		return nil, err
	}
	return e, nil
}

func (s *generationService) ListEmails(ctx context.Context, userID string, limit, offset int) ([]model.Email, error) {
	return s.docRepo.ListEmails(ctx, userID, limit, offset)
}

func (s *generationService) AnalyzeResume(ctx context.Context, userID string, req AnalyzeRequest) (*model.ResumeAnalysis, error) {
	if err := s.claimQuota(ctx, userID, false); err != nil {
		return nil, err
	}
	result := AnalyzeResumeContent(req.ResumeText, req.JobDescription)
	if err := s.claimQuota(ctx, userID, true); err != nil {
		return nil, err
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "resume.txt"
	}
	a := &model.ResumeAnalysis{
		ID:              uuid.NewString(),
		UserID:          userID,
		FileName:        fileName,
		Status:          model.AnalysisStatusCompleted,
		Score:           result.Score,
		Suggestions:     result.Suggestions,
		KeywordMatches:  result.KeywordMatches,
		MissingKeywords: result.MissingKeywords,
	}
	if err := s.analysisRepo.CreateAnalysis(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save resume analysis")
		return nil, err
	}
	return a, nil
}

func (s *generationService) ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]model.ResumeAnalysis, error) {
	return s.analysisRepo.ListAnalyses(ctx, userID, limit, offset)
}
