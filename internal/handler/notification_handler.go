package handler

import (
	"encoding/json"
	"net/http"

	"policy-pulse-server/internal/config"
	"policy-pulse-server/internal/domain"
)

// NotificationHandler handles plan-change notification HTTP requests
type NotificationHandler struct {
	container           *config.Container
	logger              domain.Logger
	notificationService domain.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(container *config.Container) *NotificationHandler {
	return &NotificationHandler{
		container:           container,
		logger:              container.GetLogger(),
		notificationService: container.NotificationService,
	}
}

// SendPlanChange handles POST /notifications/plan-change. A fully delivered
// batch returns 200; partial delivery returns 207 with the failures listed.
func (h *NotificationHandler) SendPlanChange(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanChangeNotification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.notificationService.SendPlanChangeEmails(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}
