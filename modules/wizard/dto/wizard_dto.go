package dto

// ========== Requests ==========

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
}

type MonthRequest struct {
	Month string `json:"month"` // "2006-01"
}

type DateRequest struct {
	Date string `json:"date"` // "2006-01-02"
}

type TimeRequest struct {
	Time string `json:"time"` // catalog label, e.g. "10:30 AM"
}

// ========== Views ==========

// SlotView is one catalog entry with its computed state.
type SlotView struct {
	Label string `json:"label"`
	State string `json:"state"` // free | busy | selected
}

type DayCell struct {
	Day      int    `json:"day"`
	Date     string `json:"date"`
	Disabled bool   `json:"disabled"`
	Selected bool   `json:"selected"`
}

// CalendarView is the month grid; LeadingBlanks pads the first week so
// day 1 lands on its weekday column.
type CalendarView struct {
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	MonthLabel    string    `json:"month_label"`
	LeadingBlanks int       `json:"leading_blanks"`
	Days          []DayCell `json:"days"`
}

type ContactView struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
}

// StateResponse is the full render model; the caller is purely
// presentational and derives everything from it.
type StateResponse struct {
	SessionID      string        `json:"session_id"`
	Stage          string        `json:"stage"`
	Contact        ContactView   `json:"contact"`
	Calendar       *CalendarView `json:"calendar,omitempty"`
	Slots          []SlotView    `json:"slots,omitempty"`
	SelectedDate   string        `json:"selected_date,omitempty"`
	SelectedTime   string        `json:"selected_time,omitempty"`
	Availability   string        `json:"availability"`
	DemoMode       bool          `json:"demo_mode"`
	RelinkRequired bool          `json:"relink_required"`
	CommitInFlight bool          `json:"commit_in_flight"`
	BookedEventID  string        `json:"booked_event_id,omitempty"`
	LastError      string        `json:"last_error,omitempty"`
}
