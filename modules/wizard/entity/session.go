package entity

import "time"

// Stage is the wizard's current step. Closed is implicit: a closed wizard
// has no session at all.
type Stage string

const (
	StageForm     Stage = "form"
	StageCalendar Stage = "calendar"
	StageSuccess  Stage = "success"
)

// AvailabilityStatus tracks the busy-set fetch for the selected day.
type AvailabilityStatus string

const (
	AvailabilityIdle    AvailabilityStatus = "idle"
	AvailabilityLoading AvailabilityStatus = "loading"
	AvailabilityReady   AvailabilityStatus = "ready"
	// AvailabilitySyncError means the fetch failed transiently; the busy
	// set is empty and every catalog slot stays selectable (fail open).
	AvailabilitySyncError AvailabilityStatus = "sync_error"
)

// ContactDraft is the stage-one form. Notes is optional; the other three
// must be non-empty before the wizard advances.
type ContactDraft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
}

// MissingFields lists the required fields still empty.
func (d ContactDraft) MissingFields() []string {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Email == "" {
		missing = append(missing, "email")
	}
	if d.Company == "" {
		missing = append(missing, "company")
	}
	return missing
}

// WizardSession is the whole transient state of one open wizard. It is
// created empty on open and discarded on close; nothing in it survives a
// close except the credential record, which lives elsewhere.
type WizardSession struct {
	ID        string
	VisitorID string
	Stage     Stage

	Contact ContactDraft

	ViewYear  int
	ViewMonth time.Month

	SelectedDate time.Time // zero means no day picked
	SelectedTime string    // catalog label, empty means none

	BusyLabels   []string
	Availability AvailabilityStatus

	// DemoMode is set when no valid credential exists; bookings then
	// simulate success without touching the provider.
	DemoMode       bool
	RelinkRequired bool

	// FetchRevision tags the most recent availability fetch; a late
	// result carrying an older revision is discarded.
	FetchRevision uint64

	CommitInFlight bool
	BookedEventID  string
	LastError      string

	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Clone returns a detached copy safe to hand outside the store's lock.
func (s *WizardSession) Clone() WizardSession {
	out := *s
	out.BusyLabels = append([]string(nil), s.BusyLabels...)
	return out
}
