package web

import (
	"net/http"

	"whereiam/internal/auth"
	"whereiam/internal/eventlog"
	"whereiam/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes registers every route. The admin routes are only added when authHandlers is set.
func (h *WebHandler) SetupRoutes(eventLogHandlers *eventlog.EventLogHandlers, authHandlers *auth.AuthHandlers) *mux.Router {
	r := mux.NewRouter()

	// Web pages
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", StaticFiles())).Methods("GET")

	// JSON API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/location", h.APILocation).Methods("GET")
	api.HandleFunc("/globe", h.APIGlobe).Methods("GET")
	api.HandleFunc("/event-logs-table", h.APIEventLogsTable).Methods("GET")
	if eventLogHandlers != nil {
		api.HandleFunc("/event-logs", eventLogHandlers.FindLatest).Methods("GET")
		api.HandleFunc("/event-logs/{location}", eventLogHandlers.FindAllByLocation).Methods("GET")
	}

	// Admin API
	if authHandlers != nil {
		mw := middleware.NewMiddleware(authHandlers)
		api.HandleFunc("/login", authHandlers.LoginHandler).Methods("POST")
		api.HandleFunc("/check-auth", authHandlers.CheckAuthHandler).Methods("GET")
		api.HandleFunc("/location", mw.AuthMiddleware(h.APIUpdateLocation)).Methods("PUT")
	}

	// 404 handler
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}
