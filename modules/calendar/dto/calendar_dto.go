package dto

import "time"

// BusyWindow is one provider-reported busy interval, RFC3339 instants.
type BusyWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeBusyRequest is the wire payload for the provider's free/busy query.
type FreeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []FreeBusyItem `json:"items"`
}

type FreeBusyItem struct {
	ID string `json:"id"`
}

// FreeBusyResponse mirrors the provider's response shape.
type FreeBusyResponse struct {
	Calendars map[string]struct {
		Busy []BusyWindow `json:"busy"`
	} `json:"calendars"`
}

// CreateEventRequest describes the 30-minute meeting to place on the
// linked calendar.
type CreateEventRequest struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	AttendeeEmail string
}

type CreateEventResponse struct {
	EventID  string `json:"event_id"`
	HTMLLink string `json:"html_link,omitempty"`
}
