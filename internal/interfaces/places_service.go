package interfaces

import (
	"context"

	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/places"
)

// PlacesService defines the Google Places API operations used by the collector
type PlacesService interface {
	// SearchNearby performs a nearby search and returns the parsed response.
	// A non-OK status is returned in the response, not as an error.
	SearchNearby(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error)

	// GetDetails returns the allow-listed detail fields for one place.
	GetDetails(ctx context.Context, placeID string) (*places.DetailsResponse, error)

	// DownloadPhoto writes one photo to photoDir.
	//
	// Returns:
	//   - *models.PhotoAsset: the saved photo, or nil when the photo endpoint did not return 200
	//   - error: transport or filesystem failure
	DownloadPhoto(ctx context.Context, photoReference string, maxWidth int, photoDir, restaurantName string) (*models.PhotoAsset, error)
}
