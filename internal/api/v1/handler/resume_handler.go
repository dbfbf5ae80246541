package handler

import (
	"io"
	"net/http"

	"coverforge/internal/service"

	"github.com/rs/zerolog"
)

type ResumeHandler struct {
	resumes      service.ResumeService
	maxSizeBytes int64
	logger       zerolog.Logger
}

func NewResumeHandler(resumes service.ResumeService, maxSizeMB int, logger zerolog.Logger) *ResumeHandler {
	return &ResumeHandler{resumes: resumes, maxSizeBytes: int64(maxSizeMB) << 20, logger: logger}
}

// RegisterRoutes mounts v1 resume upload routes
func (h *ResumeHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/resumes", authMw(http.HandlerFunc(h.uploadResume)))
}

// uploadResume godoc
// @Summary Upload a resume for async analysis
// @Description Stores the file in object storage and queues it for analysis. Quota is claimed by the worker at job pickup, but exhausted accounts are rejected up front. Clients poll GET /analyses for the result.
// @Tags resumes
// @Accept multipart/form-data
// @Produce json
// @Param resume formData file true "Resume file"
// @Param job_description formData string false "Job description to score against"
// @Success 202 {object} dto.AnalysisResponseDTO
// @Failure 400 {string} string "Invalid upload"
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 402 {string} string "Free usage limit reached"
// @Failure 500 {string} string "Something went wrong"
// @Router /resumes [post]
func (h *ResumeHandler) uploadResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeBytes)
	if err := r.ParseMultipartForm(h.maxSizeBytes); err != nil {
		http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		http.Error(w, "Missing resume file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read resume file", http.StatusBadRequest)
		return
	}
	jobDescription := r.FormValue("job_description")

	analysis, err := h.resumes.SubmitResume(r.Context(), userID, header.Filename, data, jobDescription)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to submit resume")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toAnalysisResponse(analysis))
}
