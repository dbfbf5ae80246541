package handler

import (
	"encoding/json"
	"net/http"

	"coverforge/internal/api/v1/dto"
	"coverforge/internal/model"
	"coverforge/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type GenerationHandler struct {
	generation service.GenerationService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewGenerationHandler(generation service.GenerationService, v *validator.Validate, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{generation: generation, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 generation routes
func (h *GenerationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/letters", authMw(http.HandlerFunc(h.handleLetters)))
	mux.Handle("/emails", authMw(http.HandlerFunc(h.handleEmails)))
	mux.Handle("/analyses", authMw(http.HandlerFunc(h.handleAnalyses)))
}

func (h *GenerationHandler) handleLetters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generateCoverLetter(w, r)
	case http.MethodGet:
		h.listCoverLetters(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// generateCoverLetter godoc
// @Summary Generate a cover letter
// @Description Generates a tone-templated cover letter and saves it to the caller's history. Consumes one free generation unless the account is pro.
// @Tags generation
// @Accept json
// @Produce json
// @Param letter body dto.CoverLetterCreateDTO true "Cover letter request"
// @Success 201 {object} dto.CoverLetterResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 402 {string} string "Free usage limit reached"
// @Failure 500 {string} string "Something went wrong"
// @Router /letters [post]
func (h *GenerationHandler) generateCoverLetter(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	var req dto.CoverLetterCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	letter, err := h.generation.GenerateCoverLetter(r.Context(), userID, service.CoverLetterRequest{
		ResumeText:     req.ResumeText,
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: req.JobDescription,
		Tone:           model.CoverLetterTone(req.Tone),
		Language:       req.Language,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCoverLetterResponse(letter))
}

// listCoverLetters godoc
// @Summary List the caller's cover letters
// @Tags generation
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} dto.CoverLetterResponseDTO
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 500 {string} string "Failed to retrieve cover letters"
// @Router /letters [get]
func (h *GenerationHandler) listCoverLetters(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	letters, err := h.generation.ListCoverLetters(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to retrieve cover letters", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.CoverLetterResponseDTO, 0, len(letters))
	for i := range letters {
		resp = append(resp, toCoverLetterResponse(&letters[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GenerationHandler) handleEmails(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generateEmail(w, r)
	case http.MethodGet:
		h.listEmails(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// generateEmail godoc
// @Summary Generate a job-search email
// @Description Generates an application, follow-up, or thank-you email and saves it to the caller's history. Consumes one free generation unless the account is pro.
// @Tags generation
// @Accept json
// @Produce json
// @Param email body dto.EmailCreateDTO true "Email request"
// @Success 201 {object} dto.EmailResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 402 {string} string "Free usage limit reached"
// @Failure 500 {string} string "Something went wrong"
// @Router /emails [post]
func (h *GenerationHandler) generateEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	var req dto.EmailCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	email, err := h.generation.GenerateEmail(r.Context(), userID, service.EmailRequest{
		Type:              model.EmailType(req.Type),
		JobTitle:          req.JobTitle,
		CompanyName:       req.CompanyName,
		HiringManagerName: req.HiringManagerName,
		Context:           req.Context,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmailResponse(email))
}

// listEmails godoc
// @Summary List the caller's emails
// @Tags generation
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} dto.EmailResponseDTO
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 500 {string} string "Failed to retrieve emails"
// @Router /emails [get]
func (h *GenerationHandler) listEmails(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	emails, err := h.generation.ListEmails(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to retrieve emails", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.EmailResponseDTO, 0, len(emails))
	for i := range emails {
		resp = append(resp, toEmailResponse(&emails[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GenerationHandler) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.analyzeResume(w, r)
	case http.MethodGet:
		h.listAnalyses(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// analyzeResume godoc
// @Summary Analyze resume text
// @Description Scores pasted resume text, optionally against a job description, and saves the completed analysis. Consumes one free generation unless the account is pro.
// @Tags generation
// @Accept json
// @Produce json
// @Param analysis body dto.AnalyzeCreateDTO true "Analysis request"
// @Success 201 {object} dto.AnalysisResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 402 {string} string "Free usage limit reached"
// @Failure 500 {string} string "Something went wrong"
// @Router /analyses [post]
func (h *GenerationHandler) analyzeResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	var req dto.AnalyzeCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	analysis, err := h.generation.AnalyzeResume(r.Context(), userID, service.AnalyzeRequest{
		ResumeText:     req.ResumeText,
		FileName:       req.FileName,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnalysisResponse(analysis))
}

// listAnalyses godoc
// @Summary List the caller's resume analyses
// @Description Returns synchronous and queued analyses; clients poll this for async results.
// @Tags generation
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} dto.AnalysisResponseDTO
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 500 {string} string "Failed to retrieve analyses"
// @Router /analyses [get]
func (h *GenerationHandler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	analyses, err := h.generation.ListAnalyses(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to retrieve analyses", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.AnalysisResponseDTO, 0, len(analyses))
	for i := range analyses {
		resp = append(resp, toAnalysisResponse(&analyses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toCoverLetterResponse(cl *model.CoverLetter) dto.CoverLetterResponseDTO {
	return dto.CoverLetterResponseDTO{
		ID:          cl.ID,
		JobTitle:    cl.JobTitle,
		CompanyName: cl.CompanyName,
		Content:     cl.Content,
		Tone:        string(cl.Tone),
		Language:    cl.Language,
		CreatedAt:   cl.CreatedAt,
	}
}

func toEmailResponse(e *model.Email) dto.EmailResponseDTO {
	return dto.EmailResponseDTO{
		ID:        e.ID,
		Type:      string(e.Type),
		Subject:   e.Subject,
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
}

func toAnalysisResponse(a *model.ResumeAnalysis) dto.AnalysisResponseDTO {
	return dto.AnalysisResponseDTO{
		ID:              a.ID,
		FileName:        a.FileName,
		Status:          string(a.Status),
		Score:           a.Score,
		Suggestions:     a.Suggestions,
		KeywordMatches:  a.KeywordMatches,
		MissingKeywords: a.MissingKeywords,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
