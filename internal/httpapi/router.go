package httpapi

import (
	"github.com/gorilla/mux"
)

// NewRouter builds the gorilla/mux router exposing the Costing Facade.
// Only /api/v1/health is unauthenticated; the costing and profile
// endpoints require a bearer token or service API key.
func NewRouter(handler *CostHandler, verifier *TokenVerifier, keys *APIKeyVerifier) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/v1/health", handler.Health).Methods("GET")

	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(verifier.RequireBearer(keys))
	protected.HandleFunc("/cost", handler.ComputeCost).Methods("POST")
	protected.HandleFunc("/machine-profiles/{id}", handler.GetMachineProfile).Methods("GET")

	return router
}
