package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formgate/formgate/internal/model"
	"github.com/formgate/formgate/internal/server/middleware"
	"github.com/formgate/formgate/internal/service"
)

// FormLookup is the read side of the form service.
type FormLookup interface {
	List(ctx context.Context) ([]model.FormResponse, error)
	Lookup(ctx context.Context, idOrSlug string) (*model.FormResponse, error)
}

// FormHandler serves the marketing form endpoints.
type FormHandler struct {
	forms  FormLookup
	logger *slog.Logger
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(forms FormLookup, logger *slog.Logger) *FormHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormHandler{forms: forms, logger: logger}
}

// ListForms returns every live form.
// GET /marketingforms
func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.List(r.Context())
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

// GetForm returns one live form by GUID or slug. A miss is a plain-text 404.
// GET /marketingforms/{idOrSlug}
func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")

	form, err := h.forms.Lookup(r.Context(), idOrSlug)
	if err != nil {
		var nf *service.NotFoundError
		if errors.As(err, &nf) {
			writeText(w, http.StatusNotFound, nf.Error())
			return
		}
		h.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("form lookup failed",
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "Failed to retrieve marketing forms")
}
