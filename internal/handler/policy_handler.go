package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"policy-pulse-server/internal/config"
	"policy-pulse-server/internal/domain"
)

// PolicyHandler handles policy-directory HTTP requests
type PolicyHandler struct {
	container     *config.Container
	logger        domain.Logger
	policyService domain.PolicyService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(container *config.Container) *PolicyHandler {
	return &PolicyHandler{
		container:     container,
		logger:        container.GetLogger(),
		policyService: container.PolicyService,
	}
}

// ListPolicies handles GET /policies
func (h *PolicyHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policyService.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(policies),
		"policies": policies,
	})
}

// GetPolicy handles GET /policies/{id}
func (h *PolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "Policy ID is required")
		return
	}

	policy, err := h.policyService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// IngestPolicy handles POST /policies: registers a stored PDF as a new
// policy version, reading its coverage table.
func (h *PolicyHandler) IngestPolicy(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	policy, err := h.policyService.Ingest(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, policy)
}
