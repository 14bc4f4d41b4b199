package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"policy-pulse-server/internal/domain"
)

func newRecommendationHandler(svc domain.RecommendationService) *RecommendationHandler {
	container := testContainer()
	container.RecommendationService = svc
	return NewRecommendationHandler(container)
}

func TestGetRecommendations(t *testing.T) {
	h := newRecommendationHandler(&mockRecommendationService{
		recommendation: &domain.Recommendation{UserID: "u1", Count: 1},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/recommendations", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "u1"})
	rec := httptest.NewRecorder()

	h.GetRecommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp domain.Recommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "u1" || resp.Count != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetRecommendations_DefaultThresholdIsZero(t *testing.T) {
	svc := &mockRecommendationService{recommendation: &domain.Recommendation{UserID: "u1"}}
	h := newRecommendationHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/recommendations", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "u1"})
	rec := httptest.NewRecorder()

	h.GetRecommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.lastOpts.MinImprovement != 0 {
		t.Fatalf("expected zero default threshold, got %v", svc.lastOpts.MinImprovement)
	}
}

func TestGetRecommendations_BadThreshold(t *testing.T) {
	h := newRecommendationHandler(&mockRecommendationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/recommendations?minImprovement=-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "u1"})
	rec := httptest.NewRecorder()

	h.GetRecommendations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetRecommendations_UserNotFound(t *testing.T) {
	h := newRecommendationHandler(&mockRecommendationService{err: domain.ErrUserNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/nope/recommendations", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()

	h.GetRecommendations(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
