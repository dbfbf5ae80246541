package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"coverforge/internal/middleware"
	"coverforge/internal/service"
)

// userIDFromContext pulls the authenticated account ID the auth middleware
// stored on the request.
func userIDFromContext(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeServiceError maps ledger errors to HTTP statuses. Quota exhaustion is
// a policy result, not a server fault: it gets 402 and an upgrade pointer.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		http.Error(w, "Free usage limit reached. Upgrade to Pro for unlimited generations.", http.StatusPaymentRequired)
	case errors.Is(err, service.ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	default:
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
	}
}

// pagination reads limit/offset query params with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
