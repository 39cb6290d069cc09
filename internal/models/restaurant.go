package models

import "encoding/json"

// RestaurantRecord is the normalized, persisted unit of one collection run
type RestaurantRecord struct {
	PlaceID          string          `json:"place_id"`
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	Rating           float64         `json:"rating"`
	UserRatingsTotal int             `json:"user_ratings_total"`
	PriceLevel       int             `json:"price_level"`
	Types            []string        `json:"types"`
	Photos           []PhotoAsset    `json:"photos"`
	ReviewPhotos     []PhotoAsset    `json:"review_photos"`
	Reviews          []ReviewSummary `json:"reviews"`
	OpeningHours     OpeningHours    `json:"opening_hours"`
	CollectedAt      string          `json:"collected_at"` // RFC 3339
}

// PhotoAsset represents a downloaded photo on disk.
// Primary photos carry the source dimensions; review photos carry the
// owning review's text and rating.
type PhotoAsset struct {
	FilePath       string  `json:"file_path"`
	PhotoReference string  `json:"photo_reference"`
	RequestedWidth int     `json:"requested_width"`
	Width          *int    `json:"width,omitempty"`
	Height         *int    `json:"height,omitempty"`
	ReviewText     *string `json:"review_text,omitempty"`
	Rating         *int    `json:"rating,omitempty"`
}

// ReviewSummary is the persisted subset of a place review
type ReviewSummary struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Time   int64  `json:"time"` // Unix seconds, as issued by the provider
}

// OpeningHours is the provider's opening_hours object, kept verbatim.
// An absent value serializes as an empty object.
type OpeningHours json.RawMessage

// MarshalJSON writes the stored object, or {} when there is none
func (h OpeningHours) MarshalJSON() ([]byte, error) {
	if len(h) == 0 || string(h) == "null" {
		return []byte("{}"), nil
	}
	return json.RawMessage(h).MarshalJSON()
}

// UnmarshalJSON keeps a copy of the raw object
func (h *OpeningHours) UnmarshalJSON(data []byte) error {
	*h = append((*h)[:0], data...)
	return nil
}

// NearbyRestaurant is the summary returned by the nearby restaurants endpoint
type NearbyRestaurant struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
}
