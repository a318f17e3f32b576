package event

// Event is one occurrence of a repair café event as known to this service.
type Event struct {
	Key Key `json:"key"`
	// Title is the display name of the event.
	Title string `json:"title"`
	// Country is the ISO country code used in open-data exports.
	Country string `json:"country,omitempty"`
	// Categories holds event category term IDs; empty means not specified.
	Categories []int64 `json:"categories,omitempty"`
}
