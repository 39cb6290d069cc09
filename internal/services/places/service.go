package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/ternarybob/menuscout/internal/httpclient"
	"github.com/ternarybob/menuscout/internal/models"
)

// Service is a client for the Google Places web API
type Service struct {
	config     *common.PlacesConfig
	logger     arbor.ILogger
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures the Service.
type Option func(*Service)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Service) {
		s.httpClient = httpClient
	}
}

// WithBaseURL sets a custom API root (used by tests to point at a fake server).
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewService creates a new Places service instance.
// The API key is passed explicitly and never read from the environment here.
func NewService(config *common.PlacesConfig, apiKey string, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		config:     config,
		logger:     logger,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpclient.NewInstrumentedHTTPClient(config.RequestTimeout, config.InsecureSkipVerify),
	}

	for _, opt := range opts {
		opt(s)
	}

	if config.InsecureSkipVerify {
		logger.Warn().Msg("TLS certificate verification is disabled for Places API calls (development only)")
	}

	return s
}

// SearchNearby performs a Google Places Nearby Search and returns the parsed body.
// The response status is not interpreted here; callers decide what a non-OK status means.
func (s *Service) SearchNearby(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error) {
	radius := req.Radius
	if radius <= 0 {
		radius = s.config.Radius
	}
	placeType := req.Type
	if placeType == "" {
		placeType = s.config.Type
	}
	keyword := req.Keyword
	if keyword == "" {
		keyword = s.config.Keyword
	}

	params := url.Values{}
	params.Set("location", strconv.FormatFloat(req.Latitude, 'f', -1, 64)+","+strconv.FormatFloat(req.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("type", placeType)
	params.Set("keyword", keyword)

	var result NearbySearchResponse
	if err := s.getJSON(ctx, "/nearbysearch/json", params, &result); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Float64("latitude", req.Latitude).
		Float64("longitude", req.Longitude).
		Int("radius", radius).
		Str("keyword", keyword).
		Str("status", result.Status).
		Int("results_count", len(result.Results)).
		Msg("Google Places Nearby Search completed")

	return &result, nil
}

// GetDetails fetches the allow-listed detail fields for one place
func (s *Service) GetDetails(ctx context.Context, placeID string) (*DetailsResponse, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", DetailFields)

	var result DetailsResponse
	if err := s.getJSON(ctx, "/details/json", params, &result); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("place_id", placeID).
		Str("status", result.Status).
		Msg("Google Places Details completed")

	return &result, nil
}

// DownloadPhoto fetches one photo and writes it to photoDir.
// A non-200 response returns (nil, nil): the photo is unavailable, not fatal.
// An existing file with the same name is overwritten.
func (s *Service) DownloadPhoto(ctx context.Context, photoReference string, maxWidth int, photoDir, restaurantName string) (*models.PhotoAsset, error) {
	if maxWidth <= 0 {
		maxWidth = s.config.PhotoMaxWidth
	}

	params := url.Values{}
	params.Set("photo_reference", photoReference)
	params.Set("maxwidth", strconv.Itoa(maxWidth))

	resp, err := s.get(ctx, "/photo", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		s.logger.Warn().
			Str("restaurant", restaurantName).
			Int("status", resp.StatusCode).
			Msg("Photo unavailable, skipping")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo body: %w", err)
	}

	if err := os.MkdirAll(photoDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}

	filePath := filepath.Join(photoDir, PhotoFilename(restaurantName, photoReference, maxWidth))
	if err := os.WriteFile(filePath, body, 0644); err != nil {
		return nil, fmt.Errorf("failed to write photo %s: %w", filePath, err)
	}

	s.logger.Debug().
		Str("file_path", filePath).
		Int("bytes", len(body)).
		Msg("Photo saved")

	return &models.PhotoAsset{
		FilePath:       filePath,
		PhotoReference: photoReference,
		RequestedWidth: maxWidth,
	}, nil
}

// getJSON performs a GET request and decodes a JSON body, failing on non-2xx statuses
func (s *Service) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	resp, err := s.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}

	return nil
}

// get performs a GET request with the API key appended
func (s *Service) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	// Redact API key in logs
	s.logger.Debug().
		Str("url", fmt.Sprintf("%s%s?%s&key=***REDACTED***", s.baseURL, path, params.Encode())).
		Msg("Calling Google Places API")

	params.Set("key", s.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Google Places API %s: %w", path, redactKey(err, s.apiKey))
	}

	return resp, nil
}

// redactKey strips the API key from transport errors, which embed the request URL
func redactKey(err error, apiKey string) error {
	var urlErr *url.Error
	if apiKey != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(apiKey), "***REDACTED***")
	}
	return err
}
