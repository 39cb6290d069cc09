package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/ternarybob/menuscout/internal/interfaces"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/places"
	"github.com/ternarybob/menuscout/internal/services/workers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ternarybob/menuscout/internal/services/collection"

// ErrSearchFailed is wrapped by every SearchStatusError
var ErrSearchFailed = errors.New("nearby search failed")

// SearchStatusError reports a nearby search whose status was not OK
type SearchStatusError struct {
	Status  string
	Message string
}

func (e *SearchStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("nearby search returned status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("nearby search returned status %s", e.Status)
}

func (e *SearchStatusError) Unwrap() error {
	return ErrSearchFailed
}

// CollectRequest selects the search location and how many places to collect
type CollectRequest struct {
	Latitude       float64
	Longitude      float64
	NumRestaurants int // 0 uses the configured default
}

// CollectResult holds the assembled records and run counters
type CollectResult struct {
	Records          []models.RestaurantRecord
	SkippedPlaces    int
	PhotosDownloaded int
	PhotosSkipped    int
}

// Service drives the Places clients to build restaurant records
type Service struct {
	places interfaces.PlacesService
	config *common.Config
	logger arbor.ILogger
	now    func() time.Time
}

// NewService creates a new collection service
func NewService(placesService interfaces.PlacesService, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		places: placesService,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// photoRequest is one photo to fetch plus the metadata stamped onto the saved asset
type photoRequest struct {
	reference  string
	width      *int
	height     *int
	reviewText *string
	rating     *int
}

// GenerateSampleData searches near the requested point and assembles one record per place
// whose details resolve. A non-OK search returns an empty result with a *SearchStatusError.
// Transport and filesystem errors abort the run.
func (s *Service) GenerateSampleData(ctx context.Context, req CollectRequest) (*CollectResult, error) {
	limit := req.NumRestaurants
	if limit <= 0 {
		limit = s.config.Collection.NumRestaurants
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "collection.GenerateSampleData", trace.WithAttributes(
		attribute.Float64("latitude", req.Latitude),
		attribute.Float64("longitude", req.Longitude),
		attribute.Int("limit", limit),
	))
	defer span.End()

	result, err := s.generate(ctx, req, limit)
	span.SetAttributes(
		attribute.Int("collected", len(result.Records)),
		attribute.Int("skipped_places", result.SkippedPlaces),
		attribute.Int("photos_downloaded", result.PhotosDownloaded),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *Service) generate(ctx context.Context, req CollectRequest, limit int) (*CollectResult, error) {
	result := &CollectResult{Records: make([]models.RestaurantRecord, 0)}

	s.logger.Info().
		Float64("latitude", req.Latitude).
		Float64("longitude", req.Longitude).
		Int("radius", s.config.Places.Radius).
		Str("keyword", s.config.Places.Keyword).
		Msg("Searching nearby restaurants")

	search, err := s.places.SearchNearby(ctx, places.NearbySearchRequest{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    s.config.Places.Radius,
		Type:      s.config.Places.Type,
		Keyword:   s.config.Places.Keyword,
	})
	if err != nil {
		return result, fmt.Errorf("nearby search: %w", err)
	}

	if search.Status != places.StatusOK {
		s.logger.Error().
			Str("status", search.Status).
			Str("error_message", search.ErrorMessage).
			Msg("Nearby search failed")
		return result, &SearchStatusError{Status: search.Status, Message: search.ErrorMessage}
	}

	placeIDs := search.PlaceIDs()
	if len(placeIDs) > limit {
		placeIDs = placeIDs[:limit]
	}

	for i, placeID := range placeIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		s.logger.Info().
			Int("index", i+1).
			Int("total", len(placeIDs)).
			Str("place_id", placeID).
			Msg("Processing restaurant")

		record, err := s.collectPlace(ctx, placeID, result)
		if err != nil {
			return result, err
		}
		if record == nil {
			result.SkippedPlaces++
			continue
		}

		result.Records = append(result.Records, *record)
	}

	s.logger.Info().
		Int("collected", len(result.Records)).
		Int("skipped_places", result.SkippedPlaces).
		Int("photos_downloaded", result.PhotosDownloaded).
		Int("photos_skipped", result.PhotosSkipped).
		Msg("Collection finished")

	return result, nil
}

// collectPlace builds the record for one place, or returns nil when its details are unavailable
func (s *Service) collectPlace(ctx context.Context, placeID string, result *CollectResult) (*models.RestaurantRecord, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "collection.place", trace.WithAttributes(
		attribute.String("place_id", placeID),
	))
	defer span.End()

	details, err := s.places.GetDetails(ctx, placeID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("place details %s: %w", placeID, err)
	}

	if details.Status != places.StatusOK || details.Result == nil {
		s.logger.Warn().
			Str("place_id", placeID).
			Str("status", details.Status).
			Msg("Place details unavailable, skipping")
		return nil, nil
	}

	place := details.Result
	cfg := s.config.Collection

	requests := make([]photoRequest, 0)
	for _, photo := range capSlice(place.Photos, cfg.MaxPhotos) {
		width, height := photo.Width, photo.Height
		requests = append(requests, photoRequest{
			reference: photo.PhotoReference,
			width:     &width,
			height:    &height,
		})
	}
	primaryCount := len(requests)

	for _, review := range capSlice(place.Reviews, cfg.MaxReviewsWithPhotos) {
		text, rating := review.Text, review.Rating
		for _, photo := range capSlice(review.Photos, cfg.MaxPhotosPerReview) {
			requests = append(requests, photoRequest{
				reference:  photo.PhotoReference,
				reviewText: &text,
				rating:     &rating,
			})
		}
	}

	slots, err := s.fetchPhotos(ctx, place.Name, requests)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("photos for %s: %w", placeID, err)
	}

	record := &models.RestaurantRecord{
		PlaceID:          placeID,
		Name:             place.Name,
		Address:          place.FormattedAddress,
		Rating:           place.Rating,
		UserRatingsTotal: place.UserRatingsTotal,
		PriceLevel:       place.PriceLevel,
		Types:            place.Types,
		Photos:           make([]models.PhotoAsset, 0),
		ReviewPhotos:     make([]models.PhotoAsset, 0),
		Reviews:          make([]models.ReviewSummary, 0),
		CollectedAt:      s.now().Format(time.RFC3339),
	}
	if record.Types == nil {
		record.Types = make([]string, 0)
	}
	record.OpeningHours = models.OpeningHours(place.OpeningHours)

	for i, asset := range slots {
		if asset == nil {
			result.PhotosSkipped++
			continue
		}
		result.PhotosDownloaded++
		if i < primaryCount {
			record.Photos = append(record.Photos, *asset)
		} else {
			record.ReviewPhotos = append(record.ReviewPhotos, *asset)
		}
	}

	for _, review := range capSlice(place.Reviews, cfg.MaxReviews) {
		record.Reviews = append(record.Reviews, models.ReviewSummary{
			Text:   review.Text,
			Rating: review.Rating,
			Time:   review.Time,
		})
	}

	return record, nil
}

// fetchPhotos downloads the requested photos through a bounded worker pool.
// Slot i holds the asset for requests[i], or nil when the photo was unavailable.
func (s *Service) fetchPhotos(ctx context.Context, restaurantName string, requests []photoRequest) ([]*models.PhotoAsset, error) {
	slots := make([]*models.PhotoAsset, len(requests))
	if len(requests) == 0 {
		return slots, nil
	}

	maxWidth := s.config.Places.PhotoMaxWidth
	photoDir := s.config.Output.PhotoDir

	pool := workers.NewPool(ctx, s.config.Collection.PhotoConcurrency, s.logger)
	pool.Start()

	var submitErr error
	for i, req := range requests {
		err := pool.Submit(func(ctx context.Context) error {
			asset, err := s.places.DownloadPhoto(ctx, req.reference, maxWidth, photoDir, restaurantName)
			if err != nil {
				return err
			}
			if asset == nil {
				return nil
			}
			asset.Width = req.width
			asset.Height = req.height
			asset.ReviewText = req.reviewText
			asset.Rating = req.rating
			slots[i] = asset
			return nil
		})
		if err != nil {
			submitErr = err
			break
		}
	}

	err := pool.Wait()
	s.logger.Debug().
		Str("restaurant", restaurantName).
		Int("requested", len(requests)).
		Int("completed", pool.Completed()).
		Int("failed", pool.Failed()).
		Msg("Photo fetch finished")
	if err != nil {
		return nil, err
	}
	if submitErr != nil {
		return nil, submitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func capSlice[T any](items []T, max int) []T {
	if max >= 0 && len(items) > max {
		return items[:max]
	}
	return items
}
