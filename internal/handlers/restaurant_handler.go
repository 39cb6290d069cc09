package handlers

import (
	"errors"
	"math"
	"net/http"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/interfaces"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/places"
	"github.com/ternarybob/menuscout/internal/storage/jsonfile"
)

// RestaurantHandler serves nearby searches and the collected dataset
type RestaurantHandler struct {
	placesService interfaces.PlacesService
	dataPath      string
	logger        arbor.ILogger
}

// NewRestaurantHandler creates a new RestaurantHandler
func NewRestaurantHandler(placesService interfaces.PlacesService, dataPath string, logger arbor.ILogger) *RestaurantHandler {
	return &RestaurantHandler{
		placesService: placesService,
		dataPath:      dataPath,
		logger:        logger,
	}
}

// NearbyHandler handles GET /maps/restaurants/nearby?lat=&lng=&radius=&type=&keyword=
func (h *RestaurantHandler) NearbyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	lat, ok := GetFloatParam(r, "lat")
	if !ok || math.Abs(lat) > 90 {
		WriteError(w, http.StatusBadRequest, "lat is required and must be between -90 and 90")
		return
	}
	lng, ok := GetFloatParam(r, "lng")
	if !ok || math.Abs(lng) > 180 {
		WriteError(w, http.StatusBadRequest, "lng is required and must be between -180 and 180")
		return
	}
	radius, ok := GetIntParam(r, "radius", 0)
	if !ok {
		WriteError(w, http.StatusBadRequest, "radius must be a non-negative integer")
		return
	}

	query := r.URL.Query()
	resp, err := h.placesService.SearchNearby(r.Context(), places.NearbySearchRequest{
		Latitude:  lat,
		Longitude: lng,
		Radius:    radius,
		Type:      query.Get("type"),
		Keyword:   query.Get("keyword"),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Nearby search failed")
		WriteError(w, http.StatusBadGateway, "nearby search failed")
		return
	}

	if resp.Status != places.StatusOK && resp.Status != places.StatusZeroResults {
		h.logger.Warn().
			Str("status", resp.Status).
			Str("error_message", resp.ErrorMessage).
			Msg("Nearby search returned non-OK status")
		WriteError(w, http.StatusBadGateway, "nearby search returned status "+resp.Status)
		return
	}

	restaurants := make([]models.NearbyRestaurant, 0, len(resp.Results))
	for _, place := range resp.Results {
		restaurants = append(restaurants, models.NearbyRestaurant{
			Name:    place.Name,
			Address: place.Vicinity,
			Rating:  place.Rating,
		})
	}

	WriteJSON(w, http.StatusOK, restaurants)
}

// ListHandler handles GET /api/restaurants
func (h *RestaurantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	records, err := jsonfile.LoadFromJSON(h.dataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			WriteError(w, http.StatusNotFound, "no collected data yet")
			return
		}
		h.logger.Error().Err(err).Str("path", h.dataPath).Msg("Failed to load collected data")
		WriteError(w, http.StatusInternalServerError, "failed to load collected data")
		return
	}

	WriteJSON(w, http.StatusOK, records)
}
