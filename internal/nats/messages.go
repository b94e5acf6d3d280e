package nats

// EnqueueMessage asks the checker to queue floats. All takes precedence
// over ListingID.
type EnqueueMessage struct {
	ListingID string `json:"listing_id,omitempty"`
	All       bool   `json:"all,omitempty"`
}

// SettledMessage reports one settled float job
type SettledMessage struct {
	JobID      string  `json:"job_id"`
	ListingID  string  `json:"listing_id"`
	Status     string  `json:"status"`
	FloatValue float64 `json:"floatvalue,omitempty"`
	PaintSeed  int     `json:"paintseed,omitempty"`
	Error      string  `json:"error,omitempty"`
}
