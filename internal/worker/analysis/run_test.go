package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"coverforge/internal/config"
	"coverforge/internal/model"
	"coverforge/internal/pgmq"
	"coverforge/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerLedger struct {
	mu          sync.Mutex
	consumeErrs []error // popped per call; empty means success
	consumed    int
}

func (f *workerLedger) ConsumeQuota(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumed++
	if len(f.consumeErrs) > 0 {
		err := f.consumeErrs[0]
		f.consumeErrs = f.consumeErrs[1:]
		return 0, err
	}
	return 1, nil
}

func (f *workerLedger) CreateAccount(ctx context.Context, identity model.Identity, referralCode string) (*model.Account, error) {
	return nil, nil
}
func (f *workerLedger) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	return nil, nil
}
func (f *workerLedger) CheckQuota(a *model.Account) bool { return true }
func (f *workerLedger) Remaining(a *model.Account) int   { return 0 }
func (f *workerLedger) RecordUsage(ctx context.Context, userID string) (int, error) {
	return 0, nil
}
func (f *workerLedger) RedeemReferral(ctx context.Context, code, refereeID string) (*model.ReferralEvent, error) {
	return nil, nil
}
func (f *workerLedger) UpgradeToPro(ctx context.Context, userID string) error { return nil }
func (f *workerLedger) ListReferrals(ctx context.Context, referrerID string) ([]model.ReferralEvent, error) {
	return nil, nil
}

type workerResumes struct {
	mu        sync.Mutex
	fetchErrs []error // popped per call; empty means success
	content   string
}

func (f *workerResumes) SubmitResume(ctx context.Context, userID, fileName string, data []byte, jobDescription string) (*model.ResumeAnalysis, error) {
	return nil, nil
}

func (f *workerResumes) FetchResume(ctx context.Context, storagePath string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return nil, err
	}
	return []byte(f.content), nil
}

type statusChange struct {
	Status  model.AnalysisStatus
	Details *string
}

type workerAnalyses struct {
	mu        sync.Mutex
	statuses  map[string][]statusChange
	completed map[string]*model.ResumeAnalysis
}

func newWorkerAnalyses() *workerAnalyses {
	return &workerAnalyses{
		statuses:  map[string][]statusChange{},
		completed: map[string]*model.ResumeAnalysis{},
	}
}

func (f *workerAnalyses) CreateAnalysis(ctx context.Context, a *model.ResumeAnalysis) error {
	return nil
}
func (f *workerAnalyses) GetAnalysisByID(ctx context.Context, id string) (*model.ResumeAnalysis, error) {
	return nil, nil
}
func (f *workerAnalyses) ListAnalyses(ctx context.Context, userID string, limit, offset int) ([]model.ResumeAnalysis, error) {
	return nil, nil
}

func (f *workerAnalyses) SetStatus(ctx context.Context, id string, status model.AnalysisStatus, errorDetails *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], statusChange{Status: status, Details: errorDetails})
	return nil
}

func (f *workerAnalyses) CompleteAnalysis(ctx context.Context, a *model.ResumeAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.completed[a.ID] = &clone
	return nil
}

func (f *workerAnalyses) lastStatus(id string) *statusChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	changes := f.statuses[id]
	if len(changes) == 0 {
		return nil
	}
	return &changes[len(changes)-1]
}

type workerDLQ struct {
	mu     sync.Mutex
	parked []model.DeadLetterMessage
}

func (f *workerDLQ) Park(ctx context.Context, queueName string, payload []byte, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parked = append(f.parked, model.DeadLetterMessage{
		QueueName: queueName,
		Payload:   string(payload),
		Reason:    reason,
	})
	return nil
}

func (f *workerDLQ) List(ctx context.Context, limit int) ([]model.DeadLetterMessage, error) {
	return nil, nil
}
func (f *workerDLQ) Redrive(ctx context.Context, id string) error { return nil }

type workerQueue struct {
	mu      sync.Mutex
	batches [][]*pgmq.Message // one batch per ReadWithPoll call
	deleted []int64
	cancel  context.CancelFunc // invoked once the batches run out
}

func (f *workerQueue) ReadWithPoll(ctx context.Context, queue string, timeoutSec, maxMessages int) ([]*pgmq.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		if f.cancel != nil {
			f.cancel()
		}
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *workerQueue) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, msgIDs...)
	return nil
}

func workerConfig() *config.Config {
	return &config.Config{
		AnalysisQueueName:         "resume_analysis_queue",
		AnalysisPollTimeoutSec:    1,
		AnalysisPollMaxMsg:        1,
		AnalysisMaxRetries:        3,
		AnalysisBackoffInitialSec: 0,
		AnalysisBackoffMaxSec:     0,
	}
}

func testJob() (service.AnalysisJob, *pgmq.Message) {
	job := service.AnalysisJob{
		AnalysisID:  "a1",
		UserID:      "u1",
		StoragePath: "resumes/u1/a1",
		FileName:    "cv.txt",
	}
	data, _ := json.Marshal(job)
	return job, &pgmq.Message{ID: 7, Data: data}
}

func TestWorkerQuotaExhaustedRejectsJob(t *testing.T) {
	ledger := &workerLedger{consumeErrs: []error{service.ErrQuotaExceeded}}
	analyses := newWorkerAnalyses()
	queue := &workerQueue{}
	dlq := &workerDLQ{}
	w := New(workerConfig(), queue, ledger, &workerResumes{}, analyses, dlq, zerolog.Nop())

	job, msg := testJob()
	w.handle(context.Background(), "resume_analysis_queue", msg, job)

	last := analyses.lastStatus("a1")
	require.NotNil(t, last)
	assert.Equal(t, model.AnalysisStatusRejected, last.Status)
	require.NotNil(t, last.Details)
	assert.Equal(t, []int64{7}, queue.deleted, "rejected job is acked, not retried")
	assert.Empty(t, dlq.parked)
	assert.Equal(t, 1, ledger.consumed)
}

func TestWorkerMissingAccountFailsJob(t *testing.T) {
	ledger := &workerLedger{consumeErrs: []error{service.ErrAccountNotFound}}
	analyses := newWorkerAnalyses()
	queue := &workerQueue{}
	w := New(workerConfig(), queue, ledger, &workerResumes{}, analyses, &workerDLQ{}, zerolog.Nop())

	job, msg := testJob()
	w.handle(context.Background(), "resume_analysis_queue", msg, job)

	last := analyses.lastStatus("a1")
	require.NotNil(t, last)
	assert.Equal(t, model.AnalysisStatusFailed, last.Status)
	assert.Equal(t, []int64{7}, queue.deleted)
}

func TestWorkerRetriesWithoutSecondQuotaClaim(t *testing.T) {
	ledger := &workerLedger{}
	resumes := &workerResumes{
		fetchErrs: []error{errors.New("storage timeout")},
		content:   "Experience with Python. me@example.com",
	}
	analyses := newWorkerAnalyses()
	queue := &workerQueue{}
	w := New(workerConfig(), queue, ledger, resumes, analyses, &workerDLQ{}, zerolog.Nop())

	job, msg := testJob()
	w.handle(context.Background(), "resume_analysis_queue", msg, job)

	assert.Equal(t, 1, ledger.consumed, "quota is claimed once per delivery, not once per attempt")
	completed := analyses.completed["a1"]
	require.NotNil(t, completed, "second attempt should have completed the job")
	assert.Greater(t, completed.Score, 0)
	assert.Equal(t, []int64{7}, queue.deleted)
}

func TestWorkerExhaustedRetriesParkJob(t *testing.T) {
	ledger := &workerLedger{}
	resumes := &workerResumes{fetchErrs: []error{
		errors.New("storage timeout"),
		errors.New("storage timeout"),
		errors.New("storage timeout"),
	}}
	analyses := newWorkerAnalyses()
	queue := &workerQueue{}
	dlq := &workerDLQ{}
	w := New(workerConfig(), queue, ledger, resumes, analyses, dlq, zerolog.Nop())

	job, msg := testJob()
	w.handle(context.Background(), "resume_analysis_queue", msg, job)

	assert.Equal(t, 1, ledger.consumed)
	last := analyses.lastStatus("a1")
	require.NotNil(t, last)
	assert.Equal(t, model.AnalysisStatusFailed, last.Status)

	require.Len(t, dlq.parked, 1)
	assert.Equal(t, "resume_analysis_queue", dlq.parked[0].QueueName)
	assert.JSONEq(t, string(msg.Data), dlq.parked[0].Payload)
	assert.Equal(t, []int64{7}, queue.deleted, "parked job is removed from the live queue")
	assert.Nil(t, analyses.completed["a1"])
}

func TestWorkerRunProcessesQueueUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, msg := testJob()
	queue := &workerQueue{
		batches: [][]*pgmq.Message{
			{{ID: 3, Data: []byte("not json")}},
			{msg},
		},
		cancel: cancel,
	}
	ledger := &workerLedger{}
	analyses := newWorkerAnalyses()
	resumes := &workerResumes{content: "Experience with Go"}
	w := New(workerConfig(), queue, ledger, resumes, analyses, &workerDLQ{}, zerolog.Nop())

	require.NoError(t, w.Run(ctx))

	// The malformed message is dropped, the valid one is processed.
	assert.ElementsMatch(t, []int64{3, 7}, queue.deleted)
	require.NotNil(t, analyses.completed["a1"])
	assert.Equal(t, 1, ledger.consumed)

	changes := analyses.statuses["a1"]
	require.NotEmpty(t, changes)
	assert.Equal(t, model.AnalysisStatusProcessing, changes[0].Status)
}
