package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/trogers1052/oms-service/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, handler.recoverer, handler.logRequests, metrics.Middleware)

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(handler.identify)

	// Asset catalog
	api.HandleFunc("/assets", handler.ListAssets).Methods("GET")
	api.HandleFunc("/assets", handler.CreateAsset).Methods("POST")
	api.HandleFunc("/assets/{id}", handler.GetAsset).Methods("GET")
	api.HandleFunc("/assets/{id}", handler.UpdateAsset).Methods("PUT")
	api.HandleFunc("/assets/{id}", handler.DeleteAsset).Methods("DELETE")

	// Trade ledger
	api.HandleFunc("/trades", handler.ListTrades).Methods("GET")
	api.HandleFunc("/trades", handler.CreateTrade).Methods("POST")
	api.HandleFunc("/trades/{id}", handler.GetTrade).Methods("GET")
	api.HandleFunc("/trades/{id}", handler.UpdateTrade).Methods("PUT")
	api.HandleFunc("/trades/{id}", handler.DeleteTrade).Methods("DELETE")

	api.HandleFunc("/holdings", handler.GetHoldings).Methods("GET")

	// Watch list and reference data
	api.HandleFunc("/watchlist", handler.ListWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", handler.AddWatchItem).Methods("POST")
	api.HandleFunc("/watchlist/{id}", handler.DeleteWatchItem).Methods("DELETE")
	api.HandleFunc("/assetdata/fetch", handler.FetchAssetData).Methods("POST")
	api.HandleFunc("/macro", handler.GetMacro).Methods("GET")

	// Access administration
	adm := r.PathPrefix("/access").Subrouter()
	adm.Use(handler.identify)
	adm.HandleFunc("/users", handler.ListUsers).Methods("GET")
	adm.HandleFunc("/roles", handler.ListRoles).Methods("GET")
	adm.HandleFunc("/actions", handler.ListActions).Methods("GET")
	adm.HandleFunc("/roles/{id}/actions", handler.SetRoleActions).Methods("PUT")
	adm.HandleFunc("/users/{id}/roles", handler.SetUserRoles).Methods("PUT")

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", HeaderUserID, HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}
