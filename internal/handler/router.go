package handler

import (
	"net/http"

	"policy-pulse-server/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"policy-pulse-server"}`))
	}).Methods("GET")

	// Initialize handlers
	compareHandler := NewCompareHandler(container)
	policyHandler := NewPolicyHandler(container)
	impactHandler := NewImpactHandler(container)
	recommendationHandler := NewRecommendationHandler(container)
	notificationHandler := NewNotificationHandler(container)

	// Auth middleware for protected routes
	authMiddleware := AuthMiddleware(container)

	// Protected routes (require authentication)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	// Document comparison routes (protected)
	protected.HandleFunc("/compare", compareHandler.CompareUploads).Methods("POST")
	protected.HandleFunc("/policies/compare", compareHandler.ComparePolicies).Methods("POST")

	// Policy directory routes (protected)
	protected.HandleFunc("/policies", policyHandler.ListPolicies).Methods("GET")
	protected.HandleFunc("/policies", policyHandler.IngestPolicy).Methods("POST")
	protected.HandleFunc("/policies/{id}", policyHandler.GetPolicy).Methods("GET")

	// Impact resolver routes (protected)
	protected.HandleFunc("/impact/run", impactHandler.RunImpact).Methods("POST")
	protected.HandleFunc("/policies/{id}/impact-reports", impactHandler.ListImpactReports).Methods("GET")

	// Recommendation routes (protected)
	protected.HandleFunc("/users/{id}/recommendations", recommendationHandler.GetRecommendations).Methods("GET")

	// Notification routes (protected)
	protected.HandleFunc("/notifications/plan-change", notificationHandler.SendPlanChange).Methods("POST")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"http://localhost:4173", // SvelteKit preview
			"http://localhost:3000", // Alternative dev port
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Link",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
