package dto

// VisitorResponse carries the signed token identifying a browser profile.
type VisitorResponse struct {
	VisitorID string `json:"visitor_id"`
	Token     string `json:"token"`
}

// LinkStatusResponse is what the footer link control renders from.
// RelinkRequired is set when a record exists but has expired; the record
// itself is only removed after a provider call actually fails.
type LinkStatusResponse struct {
	Linked         bool `json:"linked"`
	RelinkRequired bool `json:"relink_required"`
}

// BeginLinkResponse hands the caller the provider consent URL; completion
// arrives later on the callback route.
type BeginLinkResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}
