package models

import "time"

// RunStatus describes how a collection run ended
type RunStatus string

const (
	RunStatusCompleted    RunStatus = "completed"
	RunStatusEmpty        RunStatus = "empty"         // search succeeded but every place was skipped
	RunStatusSearchFailed RunStatus = "search_failed" // search status was not OK
	RunStatusFailed       RunStatus = "failed"        // transport or filesystem error
)

// CollectionRun records the outcome of one collection run
type CollectionRun struct {
	ID               string    `json:"id" badgerhold:"key"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Radius           int       `json:"radius"`
	Keyword          string    `json:"keyword"`
	Requested        int       `json:"requested"`
	Collected        int       `json:"collected"`
	SkippedPlaces    int       `json:"skipped_places"`
	PhotosDownloaded int       `json:"photos_downloaded"`
	PhotosSkipped    int       `json:"photos_skipped"`
	OutputPath       string    `json:"output_path,omitempty"`
	Status           RunStatus `json:"status"`
	Error            string    `json:"error,omitempty"`
}

// Duration returns the wall-clock time the run took
func (r *CollectionRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
