package dto

// CommitResult is the outcome of a booking commit. Demo marks bookings
// simulated locally because no provider credential was available.
type CommitResult struct {
	EventID string `json:"event_id,omitempty"`
	Demo    bool   `json:"demo"`
}
