package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"coverforge/internal/model"
	"coverforge/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResumeService struct {
	submitErr error

	gotFileName string
	gotData     []byte
	gotJD       string
}

func (f *fakeResumeService) SubmitResume(ctx context.Context, userID, fileName string, data []byte, jobDescription string) (*model.ResumeAnalysis, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.gotFileName = fileName
	f.gotData = data
	f.gotJD = jobDescription
	return &model.ResumeAnalysis{
		ID: "a1", UserID: userID, FileName: fileName, Status: model.AnalysisStatusQueued,
	}, nil
}

func (f *fakeResumeService) FetchResume(ctx context.Context, storagePath string) ([]byte, error) {
	return nil, nil
}

func multipartResume(t *testing.T, fileName string, content []byte, jobDescription string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	if jobDescription != "" {
		require.NoError(t, mw.WriteField("job_description", jobDescription))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newResumeMux(svc *fakeResumeService, userID string) *http.ServeMux {
	mux := http.NewServeMux()
	h := NewResumeHandler(svc, 5, zerolog.Nop())
	h.RegisterRoutes(mux, asUser(userID))
	return mux
}

func TestUploadResumeEndpoint(t *testing.T) {
	svc := &fakeResumeService{}
	mux := newResumeMux(svc, "u1")

	body, contentType := multipartResume(t, "cv.txt", []byte("my resume text"), "needs Python")
	req := httptest.NewRequest(http.MethodPost, "/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "cv.txt", svc.gotFileName)
	assert.Equal(t, []byte("my resume text"), svc.gotData)
	assert.Equal(t, "needs Python", svc.gotJD)

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a1", resp.ID)
	assert.Equal(t, "queued", resp.Status)
}

func TestUploadResumeEndpointMissingFile(t *testing.T) {
	mux := newResumeMux(&fakeResumeService{}, "u1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("job_description", "jd only"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/resumes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadResumeEndpointQuotaExceeded(t *testing.T) {
	svc := &fakeResumeService{submitErr: service.ErrQuotaExceeded}
	mux := newResumeMux(svc, "u1")

	body, contentType := multipartResume(t, "cv.txt", []byte("text"), "")
	req := httptest.NewRequest(http.MethodPost, "/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestUploadResumeEndpointMethodNotAllowed(t *testing.T) {
	mux := newResumeMux(&fakeResumeService{}, "u1")

	req := httptest.NewRequest(http.MethodGet, "/resumes", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
