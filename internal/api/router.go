package api

import (
	"github.com/gorilla/mux"

	"github.com/tamshai/hr-gateway/internal/api/recovery"
	"github.com/tamshai/hr-gateway/internal/health"
	"github.com/tamshai/hr-gateway/internal/tools"
)

// NewRouter creates the HTTP router for the tool surface.
func NewRouter(registry *tools.Registry, monitor *health.Monitor) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	toolHandler := NewToolHandler(registry)
	healthHandler := NewHealthHandler(monitor)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/backends", healthHandler.CheckBackends).Methods("GET")

	// Tool endpoints. The execute route is registered before the {tool}
	// route so "execute" is never treated as a tool name.
	router.HandleFunc("/api/tools", toolHandler.ListTools).Methods("GET")
	router.HandleFunc("/api/tools/execute", toolHandler.ExecuteAction).Methods("POST")
	router.HandleFunc("/api/tools/{tool}", toolHandler.InvokeTool).Methods("POST")

	return router
}
