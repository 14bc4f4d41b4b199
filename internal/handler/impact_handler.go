package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"policy-pulse-server/internal/config"
	"policy-pulse-server/internal/domain"
)

// ImpactHandler handles impact-resolver HTTP requests
type ImpactHandler struct {
	container     *config.Container
	logger        domain.Logger
	impactService domain.ImpactService
}

// NewImpactHandler creates a new impact handler
func NewImpactHandler(container *config.Container) *ImpactHandler {
	return &ImpactHandler{
		container:     container,
		logger:        container.GetLogger(),
		impactService: container.ImpactService,
	}
}

// RunImpact handles POST /impact/run
func (h *ImpactHandler) RunImpact(w http.ResponseWriter, r *http.Request) {
	var params domain.ImpactParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if params.OldPolicyID == "" || params.NewPolicyID == "" {
		writeError(w, http.StatusBadRequest, "oldPolicyId and newPolicyId are required")
		return
	}

	if user, ok := GetUserFromContext(r); ok {
		h.logger.Info("Impact run requested",
			"requested_by", user.ID,
			"old_policy", params.OldPolicyID,
			"new_policy", params.NewPolicyID)
	}

	report, err := h.impactService.Run(r.Context(), params)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListImpactReports handles GET /policies/{id}/impact-reports
func (h *ImpactHandler) ListImpactReports(w http.ResponseWriter, r *http.Request) {
	policyID := mux.Vars(r)["id"]
	if policyID == "" {
		writeError(w, http.StatusBadRequest, "Policy ID is required")
		return
	}

	entries, err := h.impactService.ListReports(r.Context(), policyID, queryInt(r, "limit", 0))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"reports": entries,
	})
}
