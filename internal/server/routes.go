package server

import (
	"net/http"

	"github.com/ternarybob/menuscout/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Nearby search summary
	mux.HandleFunc("/maps/restaurants/nearby", s.app.RestaurantHandler.NearbyHandler) // GET ?lat&lng&radius&type&keyword

	// API routes - collected data and run history
	mux.HandleFunc("/api/restaurants", s.app.RestaurantHandler.ListHandler) // GET - last written dataset
	mux.HandleFunc("/api/runs", s.app.RunHandler.RunsHandler)               // GET ?limit, POST triggers a run
	mux.HandleFunc("/api/runs/", s.app.RunHandler.GetHandler)               // GET /{id}

	mux.HandleFunc("/health", handlers.HealthHandler)

	return mux
}
