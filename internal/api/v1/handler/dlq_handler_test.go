package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coverforge/internal/model"
	"coverforge/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDLQService struct {
	messages   []model.DeadLetterMessage
	redriveErr error
	redriven   []string
}

func (f *fakeDLQService) Park(ctx context.Context, queueName string, payload []byte, reason string) error {
	return nil
}

func (f *fakeDLQService) List(ctx context.Context, limit int) ([]model.DeadLetterMessage, error) {
	return f.messages, nil
}

func (f *fakeDLQService) Redrive(ctx context.Context, id string) error {
	if f.redriveErr != nil {
		return f.redriveErr
	}
	f.redriven = append(f.redriven, id)
	return nil
}

func newDLQMux(svc *fakeDLQService) *http.ServeMux {
	mux := http.NewServeMux()
	h := NewDLQHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	passthrough := func(next http.Handler) http.Handler { return next }
	h.RegisterRoutes(mux, passthrough)
	return mux
}

func TestDLQListEndpoint(t *testing.T) {
	svc := &fakeDLQService{messages: []model.DeadLetterMessage{
		{ID: "m1", QueueName: "resume_analysis_queue", Payload: `{"analysis_id":"a1"}`, Reason: "fetch failed", Status: "unprocessed"},
	}}
	mux := newDLQMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/internal/dlq", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []struct {
		ID        string `json:"id"`
		QueueName string `json:"queue_name"`
		Reason    string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "m1", resp[0].ID)
	assert.Equal(t, "resume_analysis_queue", resp[0].QueueName)
	assert.Equal(t, "fetch failed", resp[0].Reason)
}

func TestDLQRedriveEndpoint(t *testing.T) {
	const id = "6b4a7c1e-9d0f-4a2b-8c3d-5e6f7a8b9c0d"

	tests := []struct {
		name       string
		body       string
		redriveErr error
		wantStatus int
	}{
		{"success", `{"id":"` + id + `"}`, nil, http.StatusNoContent},
		{"unknown message", `{"id":"` + id + `"}`, service.ErrDLQMessageNotFound, http.StatusNotFound},
		{"already redriven", `{"id":"` + id + `"}`, service.ErrDLQAlreadyRedriven, http.StatusConflict},
		{"not a uuid", `{"id":"nope"}`, nil, http.StatusBadRequest},
		{"missing id", `{}`, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDLQService{redriveErr: tt.redriveErr}
			mux := newDLQMux(svc)

			req := httptest.NewRequest(http.MethodPost, "/internal/dlq/redrive", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, []string{id}, svc.redriven)
			}
		})
	}
}
