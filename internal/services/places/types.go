package places

import (
	"encoding/json"
	"fmt"
)

// StatusOK is the Places API status for a successful response
const StatusOK = "OK"

// StatusZeroResults is the Places API status for a successful search with no matches
const StatusZeroResults = "ZERO_RESULTS"

// DetailFields is the allow-list sent to the details endpoint to limit API cost
const DetailFields = "name,formatted_address,rating,reviews,photos,opening_hours,price_level,user_ratings_total,types"

// NearbySearchRequest holds the parameters of one nearby search
type NearbySearchRequest struct {
	Latitude  float64
	Longitude float64
	Radius    int    // meters, 0 uses the configured default
	Type      string // empty uses the configured default
	Keyword   string // empty uses the configured default
}

// NearbySearchResponse represents the Google Places Nearby Search API response
type NearbySearchResponse struct {
	HTMLAttributions []string      `json:"html_attributions"`
	Results          []PlaceResult `json:"results"`
	Status           string        `json:"status"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	NextPageToken    string        `json:"next_page_token,omitempty"`
}

// PlaceIDs returns the place identifiers of the results in response order
func (r *NearbySearchResponse) PlaceIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, place := range r.Results {
		ids = append(ids, place.PlaceID)
	}
	return ids
}

// PlaceResult represents a single place result from a nearby search
type PlaceResult struct {
	BusinessStatus   string    `json:"business_status,omitempty"`
	Geometry         *Geometry `json:"geometry,omitempty"`
	Name             string    `json:"name"`
	PlaceID          string    `json:"place_id"`
	Rating           float64   `json:"rating,omitempty"`
	Types            []string  `json:"types,omitempty"`
	UserRatingsTotal int       `json:"user_ratings_total,omitempty"`
	Vicinity         string    `json:"vicinity,omitempty"`
}

// Geometry represents the geometry information of a place
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// LatLng represents a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DetailsResponse represents the Google Places Details API response
type DetailsResponse struct {
	HTMLAttributions []string      `json:"html_attributions"`
	Result           *PlaceDetails `json:"result,omitempty"`
	Status           string        `json:"status"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}

// PlaceDetails holds the fields requested through DetailFields
type PlaceDetails struct {
	Name             string          `json:"name"`
	FormattedAddress string          `json:"formatted_address,omitempty"`
	Rating           float64         `json:"rating,omitempty"`
	UserRatingsTotal int             `json:"user_ratings_total,omitempty"`
	PriceLevel       int             `json:"price_level,omitempty"`
	Types            []string        `json:"types,omitempty"`
	OpeningHours     json.RawMessage `json:"opening_hours,omitempty"` // passed through unparsed
	Reviews          []Review        `json:"reviews,omitempty"`
	Photos           []Photo         `json:"photos,omitempty"`
}

// Review represents a single user review
type Review struct {
	AuthorName string  `json:"author_name,omitempty"`
	Language   string  `json:"language,omitempty"`
	Rating     int     `json:"rating"`
	Text       string  `json:"text"`
	Time       int64   `json:"time"`
	Photos     []Photo `json:"photos,omitempty"`
}

// Photo represents a place photo reference
type Photo struct {
	Height           int      `json:"height"`
	HTMLAttributions []string `json:"html_attributions"`
	PhotoReference   string   `json:"photo_reference"`
	Width            int      `json:"width"`
}

// APIError represents a non-2xx HTTP response from the Places API
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Google Places API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}
