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

type AccountHandler struct {
	ledger   service.LedgerService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAccountHandler(ledger service.LedgerService, v *validator.Validate, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{ledger: ledger, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 account routes
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.handleAccount)))
	mux.Handle("/users/me/referrals", authMw(http.HandlerFunc(h.listReferrals)))
	mux.Handle("/users/me/upgrade", authMw(http.HandlerFunc(h.upgrade)))
}

func (h *AccountHandler) handleAccount(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createAccount(w, r)
	case http.MethodGet:
		h.getAccount(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// createAccount godoc
// @Summary Create the caller's account
// @Description Persists a profile for the authenticated identity. Idempotent: re-authentication returns the existing account unchanged. An optional referral code is redeemed best-effort.
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body dto.AccountCreateDTO true "Account creation request"
// @Success 201 {object} dto.AccountResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 500 {string} string "Something went wrong"
// @Router /users/me [post]
func (h *AccountHandler) createAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}

	var req dto.AccountCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	identity := model.Identity{
		UserID:      userID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	}
	account, err := h.ledger.CreateAccount(r.Context(), identity, req.ReferralCode)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create account")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toAccountResponse(account))
}

// getAccount godoc
// @Summary Get the caller's account
// @Description Returns the account with its usage count and remaining free generations.
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 404 {string} string "Account not found"
// @Router /users/me [get]
func (h *AccountHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	account, err := h.ledger.GetAccount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toAccountResponse(account))
}

// listReferrals godoc
// @Summary List the caller's referrals
// @Description Returns the referral events where the caller is the referrer.
// @Tags accounts
// @Produce json
// @Success 200 {array} dto.ReferralEventResponseDTO
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 500 {string} string "Failed to retrieve referrals"
// @Router /users/me/referrals [get]
func (h *AccountHandler) listReferrals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	events, err := h.ledger.ListReferrals(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to retrieve referrals", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.ReferralEventResponseDTO, 0, len(events))
	for _, ev := range events {
		resp = append(resp, dto.ReferralEventResponseDTO{
			ID:        ev.ID,
			RefereeID: ev.RefereeID,
			Status:    string(ev.Status),
			Bonus:     ev.Bonus,
			CreatedAt: ev.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// upgrade godoc
// @Summary Upgrade the caller to the pro tier
// @Description Flips the account to the unlimited tier. Stands in for the payment provider callback; checkout itself is not handled here.
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 401 {string} string "Unauthorized: user ID not found in context"
// @Failure 404 {string} string "Account not found"
// @Router /users/me/upgrade [post]
func (h *AccountHandler) upgrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}
	if err := h.ledger.UpgradeToPro(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	account, err := h.ledger.GetAccount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toAccountResponse(account))
}

func (h *AccountHandler) toAccountResponse(a *model.Account) dto.AccountResponseDTO {
	return dto.AccountResponseDTO{
		UserID:         a.UserID,
		Email:          a.Email,
		DisplayName:    a.DisplayName,
		PhotoURL:       a.PhotoURL,
		IsPro:          a.IsPro,
		FreeUsageCount: a.FreeUsageCount,
		RemainingFree:  h.ledger.Remaining(a),
		ReferralCode:   a.ReferralCode,
		ReferredBy:     a.ReferredBy,
		CreatedAt:      a.CreatedAt,
	}
}
