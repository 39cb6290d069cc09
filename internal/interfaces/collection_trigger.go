package interfaces

// CollectionTrigger starts a collection run outside the schedule
type CollectionTrigger interface {
	// RunNow starts a run in the background. Returns false when one is already in progress.
	RunNow() bool
}
