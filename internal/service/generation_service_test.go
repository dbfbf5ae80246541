package service

import (
	"context"
	"sync"
	"testing"

	"coverforge/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentRepo struct {
	mu      sync.Mutex
	letters []model.CoverLetter
	emails  []model.Email
}

func (f *fakeDocumentRepo) SaveCoverLetter(ctx context.Context, cl *model.CoverLetter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.letters = append(f.letters, *cl)
	return nil
}

func (f *fakeDocumentRepo) ListCoverLetters(ctx context.Context, userID string, limit, offset int) ([]model.CoverLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CoverLetter
	for _, cl := range f.letters {
		if cl.UserID == userID {
			out = append(out, cl)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) SaveEmail(ctx context.Context, e *model.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, *e)
	return nil
}

func (f *fakeDocumentRepo) ListEmails(ctx context.Context, userID string, limit, offset int) ([]model.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Email
	for _, e := range f.emails {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAnalysisRepo struct {
	mu       sync.Mutex
	analyses map[string]*model.ResumeAnalysis
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{analyses: map[string]*model.ResumeAnalysis{}}
}

func (f *fakeAnalysisRepo) CreateAnalysis(ctx context.Context, a *model.ResumeAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.analyses[a.ID] = &clone
	return nil
}

func (f *fakeAnalysisRepo) GetAnalysisByID(ctx context.Context, id string) (*model.ResumeAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.analyses[id]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAnalysisRepo) ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]model.ResumeAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ResumeAnalysis
	for _, a := range f.analyses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAnalysisRepo) SetStatus(ctx context.Context, id string, status model.AnalysisStatus, errorDetails *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.analyses[id]; ok {
		a.Status = status
		a.ErrorDetails = errorDetails
	}
	return nil
}

func (f *fakeAnalysisRepo) CompleteAnalysis(ctx context.Context, a *model.ResumeAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.analyses[a.ID]; ok {
		existing.Status = model.AnalysisStatusCompleted
		existing.Score = a.Score
		existing.Suggestions = a.Suggestions
		existing.KeywordMatches = a.KeywordMatches
		existing.MissingKeywords = a.MissingKeywords
	}
	return nil
}

func newTestGeneration(accounts *fakeAccountRepo) (GenerationService, *fakeDocumentRepo, *fakeAnalysisRepo, LedgerService) {
	ledger := newTestLedger(accounts, newFakeReferralRepo(), nil)
	docs := &fakeDocumentRepo{}
	analyses := newFakeAnalysisRepo()
	svc := NewGenerationService(ledger, docs, analyses, zerolog.Nop())
	return svc, docs, analyses, ledger
}

func TestGenerateCoverLetterConsumesQuotaAndPersists(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.seed(model.Account{UserID: "u1", ReferralCode: "AAAAAA"})
	svc, docs, _, ledger := newTestGeneration(accounts)
	ctx := context.Background()

	cl, err := svc.GenerateCoverLetter(ctx, "u1", CoverLetterRequest{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme Corp",
		Tone:        model.ToneEnthusiastic,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, cl.ID)
	assert.Contains(t, cl.Content, "Backend Engineer")
	assert.Contains(t, cl.Content, "Acme Corp")
	assert.Contains(t, cl.Content, "thrilled")
	assert.Equal(t, "en", cl.Language)

	a, err := ledger.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.FreeUsageCount)

	saved, err := docs.ListCoverLetters(ctx, "u1", 20, 0)
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestGenerateCoverLetterTones(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.seed(model.Account{UserID: "u1", IsPro: true, ReferralCode: "AAAAAA"})
	svc, _, _, _ := newTestGeneration(accounts)
	ctx := context.Background()

	tests := []struct {
		tone model.CoverLetterTone
		want string
	}{
		{model.ToneProfessional, "express my strong interest"},
		{model.ToneEnthusiastic, "thrilled"},
		{model.ToneConcise, "Key qualifications"},
		{model.CoverLetterTone("poetic"), "express my strong interest"}, // falls back
	}
	for _, tt := range tests {
		t.Run(string(tt.tone), func(t *testing.T) {
			cl, err := svc.GenerateCoverLetter(ctx, "u1", CoverLetterRequest{
				JobTitle: "Engineer", CompanyName: "Acme", Tone: tt.tone,
			})
			require.NoError(t, err)
			assert.Contains(t, cl.Content, tt.want)
		})
	}
}

func TestGenerateCoverLetterQuotaExhausted(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.seed(model.Account{UserID: "u1", FreeUsageCount: testFreeLimit, ReferralCode: "AAAAAA"})
	svc, docs, _, _ := newTestGeneration(accounts)
	ctx := context.Background()

	_, err := svc.GenerateCoverLetter(ctx, "u1", CoverLetterRequest{
		JobTitle: "Engineer", CompanyName: "Acme", Tone: model.ToneProfessional,
	})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	saved, err := docs.ListCoverLetters(ctx, "u1", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, saved, "rejected generations leave no history")
}

func TestGenerateCoverLetterCanceledContextDoesNotConsume(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.seed(model.Account{UserID: "u1", ReferralCode: "AAAAAA"})
	svc, _, _, ledger := newTestGeneration(accounts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GenerateCoverLetter(ctx, "u1", CoverLetterRequest{
		JobTitle: "Engineer", CompanyName: "Acme", Tone: model.ToneProfessional,
	})
	require.ErrorIs(t, err, context.Canceled)

	a, err := ledger.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, a.FreeUsageCount, "a canceled request never consumes quota")
}

func TestGenerateEmail(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.seed(model.Account{UserID: "u1", IsPro: true, ReferralCode: "AAAAAA"})
	svc, docs, _, _ := newTestGeneration(accounts)
	ctx := context.Background()

	tests := []struct {
		name        string
		req         EmailRequest
		wantSubject string
		wantContent string
	}{
		{
			"application",
			EmailRequest{Type: model.EmailApplication, JobTitle: "Engineer", CompanyName: "Acme"},
			"Application for Engineer Position",
			"formally submit my application",
		},
		{
			"follow-up",
			EmailRequest{Type: model.EmailFollowUp, JobTitle: "Engineer", CompanyName: "Acme"},
			"Following up on Engineer Application",
			"follow up on my application",
		},
		{
			"thank-you with named manager",
			EmailRequest{Type: model.EmailThankYou, JobTitle: "Engineer", CompanyName: "Acme", HiringManagerName: "Sam Lee"},
			"Thank you for the Engineer Interview",
			"Dear Sam Lee,",
		},
		{
			"thank-you without manager falls back",
			EmailRequest{Type: model.EmailThankYou, JobTitle: "Engineer", CompanyName: "Acme"},
			"Thank you for the Engineer Interview",
			"Dear Hiring Manager,",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := svc.GenerateEmail(ctx, "u1", tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, e.Subject)
			assert.Contains(t, e.Content, tt.wantContent)
		})
	}

	saved, err := docs.ListEmails(ctx, "u1", 20, 0)
	require.NoError(t, err)
	assert.Len(t, saved, len(tests))
}

func TestAnalyzeResumeSynchronous(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.seed(model.Account{UserID: "u1", ReferralCode: "AAAAAA"})
	svc, _, analyses, ledger := newTestGeneration(accounts)
	ctx := context.Background()

	a, err := svc.AnalyzeResume(ctx, "u1", AnalyzeRequest{
		ResumeText:     "Experience with Python and Docker. Contact me@example.com.",
		JobDescription: "Python and Kubernetes",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusCompleted, a.Status)
	assert.Equal(t, "resume.txt", a.FileName)
	assert.Greater(t, a.Score, 50)
	assert.Contains(t, a.KeywordMatches, "Python")
	assert.Contains(t, a.MissingKeywords, "Kubernetes")

	stored, err := analyses.GetAnalysisByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	account, err := ledger.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, account.FreeUsageCount)
}

func TestAnalyzeResumeMissingAccount(t *testing.T) {
	svc, _, _, _ := newTestGeneration(newFakeAccountRepo())

	_, err := svc.AnalyzeResume(context.Background(), "ghost", AnalyzeRequest{ResumeText: "x"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
