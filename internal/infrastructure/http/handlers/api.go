// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/menusense/optimizer/internal/ports/inbound"
	apperrors "github.com/menusense/optimizer/pkg/errors"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; selected specialty dishes are the
// largest payloads.
const maxBodyBytes = 1 << 20

// APIHandlers handles REST API requests
type APIHandlers struct {
	optimizer inbound.OptimizationService
	scoring   inbound.ScoringService
	validator *Validator
	logger    *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	optimizer inbound.OptimizationService,
	scoring inbound.ScoringService,
	logger *zap.Logger,
) *APIHandlers {
	return &APIHandlers{
		optimizer: optimizer,
		scoring:   scoring,
		validator: NewValidator(),
		logger:    logger.Named("api"),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// OptimizeMenu handles POST /api/v1/restaurants/{id}/optimizations
func (h *APIHandlers) OptimizeMenu(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.OptimizeMenuCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.RestaurantID = chi.URLParam(r, "id")
	if !h.validate(w, r, &cmd) {
		return
	}

	result, err := h.optimizer.OptimizeMenu(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result, Message: "Menu optimization finished"})
}

// GenerateSuggestions handles POST /api/v1/restaurants/{id}/suggestions
func (h *APIHandlers) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.GenerateSuggestionsCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.RestaurantID = chi.URLParam(r, "id")
	if !h.validate(w, r, &cmd) {
		return
	}

	result, err := h.optimizer.GenerateSuggestions(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result, Message: "Suggestions generated"})
}

// AnalyzeTasteProfiles handles POST /api/v1/restaurants/{id}/taste-profiles
func (h *APIHandlers) AnalyzeTasteProfiles(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.AnalyzeTasteCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.RestaurantID = chi.URLParam(r, "id")
	if !h.validate(w, r, &cmd) {
		return
	}

	result, err := h.optimizer.AnalyzeTasteProfiles(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result, Message: "Taste profiles analyzed"})
}

// EnhanceItem handles POST /api/v1/restaurants/{id}/items/{itemId}/enhancement
func (h *APIHandlers) EnhanceItem(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.EnhanceItemCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.RestaurantID = chi.URLParam(r, "id")
	cmd.ItemID = chi.URLParam(r, "itemId")
	if !h.validate(w, r, &cmd) {
		return
	}

	item, err := h.optimizer.EnhanceItem(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: item, Message: "Enhancement proposed"})
}

// ListPending handles GET /api/v1/restaurants/{id}/pending
func (h *APIHandlers) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.optimizer.ListPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: pending})
}

// ScoreRestaurant handles GET /api/v1/restaurants/{id}/scores
func (h *APIHandlers) ScoreRestaurant(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.scoring.ScoreRestaurant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: metrics})
}

// ReviewOptimization handles POST /api/v1/optimizations/{itemId}/review
func (h *APIHandlers) ReviewOptimization(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, chi.URLParam(r, "itemId"), h.optimizer.ReviewOptimization)
}

// ReviewSuggestion handles POST /api/v1/suggestions/{id}/review
func (h *APIHandlers) ReviewSuggestion(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, chi.URLParam(r, "id"), h.optimizer.ReviewSuggestion)
}

// ReviewEnhancement handles POST /api/v1/enhancements/{itemId}/review
func (h *APIHandlers) ReviewEnhancement(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, chi.URLParam(r, "itemId"), h.optimizer.ReviewEnhancement)
}

func (h *APIHandlers) review(
	w http.ResponseWriter,
	r *http.Request,
	id string,
	apply func(context.Context, inbound.ReviewCommand) (*inbound.ReviewResult, error),
) {
	var cmd inbound.ReviewCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.ID = id
	if !h.validate(w, r, &cmd) {
		return
	}

	result, err := apply(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result, Message: result.Message})
}

// decode reads a JSON body; an empty body leaves v untouched
func (h *APIHandlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, apperrors.NewBadRequestError("Malformed JSON body").WithCause(err))
		return false
	}
	return true
}

func (h *APIHandlers) validate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := h.validator.Struct(v); err != nil {
		h.writeError(w, r, err)
		return false
	}
	return true
}

// NotFound answers unknown routes with the error envelope
func (h *APIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperrors.NewNotFoundError("Route "+r.URL.Path))
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, "Unexpected error")
	}
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	h.writeJSON(w, status, apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// writeJSON writes a JSON response
func (h *APIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
