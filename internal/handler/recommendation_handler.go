package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"policy-pulse-server/internal/config"
	"policy-pulse-server/internal/domain"
)

// DefaultMinImprovement is the relative-improvement threshold applied when
// the caller does not set one. Zero recommends any strictly better policy.
const DefaultMinImprovement = 0

// RecommendationHandler handles policy-recommendation HTTP requests
type RecommendationHandler struct {
	container             *config.Container
	logger                domain.Logger
	recommendationService domain.RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(container *config.Container) *RecommendationHandler {
	return &RecommendationHandler{
		container:             container,
		logger:                container.GetLogger(),
		recommendationService: container.RecommendationService,
	}
}

// GetRecommendations handles GET /users/{id}/recommendations
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	opts := domain.RecommendOptions{
		MinImprovement:  DefaultMinImprovement,
		CurrentPolicyID: r.URL.Query().Get("currentPolicyId"),
	}
	if raw := r.URL.Query().Get("minImprovement"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 {
			writeError(w, http.StatusBadRequest, "minImprovement must be a non-negative number")
			return
		}
		opts.MinImprovement = threshold
	}

	recommendation, err := h.recommendationService.RecommendBetter(r.Context(), userID, opts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendation)
}
