package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formgate/formgate/internal/model"
	"github.com/formgate/formgate/internal/server/middleware"
	"github.com/formgate/formgate/internal/service"
)

// TokenIssuer exchanges API keys for bearer tokens.
type TokenIssuer interface {
	IssueToken(ctx context.Context, apiKey string) (string, error)
}

// TokenHandler serves POST /token.
type TokenHandler struct {
	issuer TokenIssuer
	logger *slog.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(issuer TokenIssuer, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenHandler{issuer: issuer, logger: logger}
}

// IssueToken exchanges {"apiKey": "..."} for {"token": "..."}.
// POST /token
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req model.TokenRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.issuer.IssueToken(r.Context(), req.APIKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAPIKey) {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		h.logger.Error("token signing failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}
