package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/accountsvc/apiserver/internal/services"
	"github.com/accountsvc/apiserver/types"
	"go.uber.org/zap"
)

type contextKey string

const contextAccountKey contextKey = "account"

// ErrorResponse is the error payload. ErrorCode mirrors the HTTP status.
type ErrorResponse struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}

func withAccount(ctx context.Context, account types.Account) context.Context {
	return context.WithValue(ctx, contextAccountKey, account)
}

func accountFromContext(ctx context.Context) (types.Account, bool) {
	account, ok := ctx.Value(contextAccountKey).(types.Account)
	return account, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, ErrorCode: status})
}

// writeServiceError maps service errors to 400/401 responses. Anything else
// is logged and answered with 500 and the fallback message.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Message())
		return
	}

	var unauthorizedErr *services.UnauthorizedError
	if errors.As(err, &unauthorizedErr) {
		writeError(w, http.StatusUnauthorized, unauthorizedErr.Message())
		return
	}

	logger.Error(fallback, zap.Error(err))
	writeError(w, http.StatusInternalServerError, fallback)
}
