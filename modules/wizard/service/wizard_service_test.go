package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadbook/core/errors"
	bookingdto "leadbook/modules/booking/dto"
	caldto "leadbook/modules/calendar/dto"
	creddto "leadbook/modules/credential/dto"
	"leadbook/modules/wizard/dto"
	"leadbook/modules/wizard/entity"
)

type fakeCredentials struct {
	mu      sync.Mutex
	token   string
	relink  bool
	cleared int
}

func (f *fakeCredentials) GetValidToken(ctx context.Context, visitorID string) (string, bool, *errors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.relink, nil
}

func (f *fakeCredentials) StoreToken(ctx context.Context, visitorID, accessToken string, ttlSeconds int) *errors.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = accessToken
	return nil
}

func (f *fakeCredentials) Clear(ctx context.Context, visitorID string) *errors.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared++
	return nil
}

func (f *fakeCredentials) Status(ctx context.Context, visitorID string) (*creddto.LinkStatusResponse, *errors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &creddto.LinkStatusResponse{Linked: f.token != "", RelinkRequired: f.relink}, nil
}

func (f *fakeCredentials) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

type fakeCalendar struct {
	mu    sync.Mutex
	fetch func(day time.Time) ([]string, *errors.AppError)
}

func (f *fakeCalendar) FetchBusyLabels(ctx context.Context, accessToken string, day time.Time) ([]string, *errors.AppError) {
	f.mu.Lock()
	fetch := f.fetch
	f.mu.Unlock()
	if fetch == nil {
		return nil, nil
	}
	return fetch(day)
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, accessToken string, req *caldto.CreateEventRequest) (*caldto.CreateEventResponse, *errors.AppError) {
	return &caldto.CreateEventResponse{EventID: "evt_1"}, nil
}

type fakeBooking struct {
	mu     sync.Mutex
	result *bookingdto.CommitResult
	err    *errors.AppError
	starts []time.Time
}

func (f *fakeBooking) Commit(ctx context.Context, visitorID string, contact entity.ContactDraft, start time.Time) (*bookingdto.CommitResult, *errors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, start)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

var testLoc, _ = time.LoadLocation("America/New_York")

func testNow() time.Time {
	return time.Date(2026, time.September, 14, 12, 0, 0, 0, testLoc)
}

func newTestWizard(t *testing.T, creds *fakeCredentials, cal *fakeCalendar, booking *fakeBooking) *wizardService {
	t.Helper()
	store := NewSessionStore()
	t.Cleanup(store.Close)

	svc := NewWizardService(store, creds, cal, booking, testLoc).(*wizardService)
	svc.now = testNow
	svc.transitionDelay = 0
	return svc
}

func validContact() *dto.ContactRequest {
	return &dto.ContactRequest{Name: "Ada Lovelace", Email: "ada@example.com", Company: "Analytical Engines"}
}

func openAndAdvance(t *testing.T, svc *wizardService, visitorID string) *dto.StateResponse {
	t.Helper()
	state, appErr := svc.Open(context.Background(), visitorID)
	require.Nil(t, appErr)
	state, appErr = svc.SubmitContact(context.Background(), visitorID, state.SessionID, validContact())
	require.Nil(t, appErr)
	return state
}

func waitForAvailability(t *testing.T, svc *wizardService, visitorID, sessionID, want string) *dto.StateResponse {
	t.Helper()
	var state *dto.StateResponse
	require.Eventually(t, func() bool {
		var appErr *errors.AppError
		state, appErr = svc.State(context.Background(), visitorID, sessionID)
		return appErr == nil && state.Availability == want
	}, 2*time.Second, 10*time.Millisecond)
	return state
}

func TestOpen(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})

	state, appErr := svc.Open(context.Background(), "v1")
	require.Nil(t, appErr)

	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, string(entity.StageForm), state.Stage)
	assert.Nil(t, state.Calendar)
	assert.Empty(t, state.Slots)
	assert.Equal(t, string(entity.AvailabilityIdle), state.Availability)
}

func TestSubmitContactValidation(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})

	open, appErr := svc.Open(context.Background(), "v1")
	require.Nil(t, appErr)

	_, appErr = svc.SubmitContact(context.Background(), "v1", open.SessionID,
		&dto.ContactRequest{Name: "Ada Lovelace"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	assert.Contains(t, appErr.Message, "email")
	assert.Contains(t, appErr.Message, "company")

	// A failed submit must not advance the stage.
	state, appErr := svc.State(context.Background(), "v1", open.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StageForm), state.Stage)
}

func TestSubmitContactAdvancesToDemoCalendar(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})

	state := openAndAdvance(t, svc, "v1")

	assert.Equal(t, string(entity.StageCalendar), state.Stage)
	assert.Equal(t, "2026-09-14", state.SelectedDate, "today is auto selected")
	assert.True(t, state.DemoMode)
	assert.Equal(t, string(entity.AvailabilityReady), state.Availability)
	require.Len(t, state.Slots, 12)
	for _, s := range state.Slots {
		assert.Equal(t, SlotFree, s.State)
	}
	require.NotNil(t, state.Calendar)
	assert.Equal(t, 2026, state.Calendar.Year)
	assert.Equal(t, 9, state.Calendar.Month)
}

func TestAvailabilityFetchMarksBusySlots(t *testing.T) {
	creds := &fakeCredentials{token: "tok"}
	cal := &fakeCalendar{fetch: func(day time.Time) ([]string, *errors.AppError) {
		return []string{"10:30 AM"}, nil
	}}
	svc := newTestWizard(t, creds, cal, &fakeBooking{})

	state := openAndAdvance(t, svc, "v1")
	assert.Equal(t, string(entity.AvailabilityLoading), state.Availability)

	state = waitForAvailability(t, svc, "v1", state.SessionID, string(entity.AvailabilityReady))
	assert.False(t, state.DemoMode)
	for _, s := range state.Slots {
		if s.Label == "10:30 AM" {
			assert.Equal(t, SlotBusy, s.State)
		} else {
			assert.Equal(t, SlotFree, s.State)
		}
	}
}

func TestAvailabilityFetchFailsOpen(t *testing.T) {
	creds := &fakeCredentials{token: "tok"}
	cal := &fakeCalendar{fetch: func(day time.Time) ([]string, *errors.AppError) {
		return nil, errors.NewAppError(errors.ErrNetworkFailure, "provider unreachable", nil)
	}}
	svc := newTestWizard(t, creds, cal, &fakeBooking{})

	state := openAndAdvance(t, svc, "v1")
	state = waitForAvailability(t, svc, "v1", state.SessionID, string(entity.AvailabilitySyncError))

	// Every slot stays bookable when the busy set cannot be fetched.
	for _, s := range state.Slots {
		assert.Equal(t, SlotFree, s.State)
	}
	assert.False(t, state.DemoMode)
	assert.Equal(t, 0, creds.clearCount())
}

func TestAvailabilityFetchUnauthorizedDemotesToDemo(t *testing.T) {
	creds := &fakeCredentials{token: "tok"}
	cal := &fakeCalendar{fetch: func(day time.Time) ([]string, *errors.AppError) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "calendar authorization rejected", nil)
	}}
	svc := newTestWizard(t, creds, cal, &fakeBooking{})

	state := openAndAdvance(t, svc, "v1")
	state = waitForAvailability(t, svc, "v1", state.SessionID, string(entity.AvailabilityReady))

	assert.True(t, state.DemoMode)
	assert.True(t, state.RelinkRequired)
	assert.Equal(t, 1, creds.clearCount(), "dead credential is dropped immediately")
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	creds := &fakeCredentials{token: "tok"}
	cal := &fakeCalendar{}
	cal.fetch = func(day time.Time) ([]string, *errors.AppError) {
		if day.Day() == 14 {
			<-release
			return []string{"9:00 AM"}, nil
		}
		return []string{"2:00 PM"}, nil
	}
	svc := newTestWizard(t, creds, cal, &fakeBooking{})

	state := openAndAdvance(t, svc, "v1")

	// Switch days while the first fetch is still hanging.
	state, appErr := svc.SelectDate(context.Background(), "v1", state.SessionID, &dto.DateRequest{Date: "2026-09-15"})
	require.Nil(t, appErr)
	state = waitForAvailability(t, svc, "v1", state.SessionID, string(entity.AvailabilityReady))

	// Now let the slow fetch for the abandoned day finish.
	close(release)
	time.Sleep(50 * time.Millisecond)

	state, appErr = svc.State(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, "2026-09-15", state.SelectedDate)
	assert.Equal(t, SlotBusy, stateFor(state.Slots, "2:00 PM"))
	assert.NotEqual(t, SlotBusy, stateFor(state.Slots, "9:00 AM"), "stale busy set must not apply")
}

func stateFor(slots []dto.SlotView, label string) string {
	for _, s := range slots {
		if s.Label == label {
			return s.State
		}
	}
	return ""
}

func TestSelectDateRejectsPast(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state := openAndAdvance(t, svc, "v1")

	_, appErr := svc.SelectDate(context.Background(), "v1", state.SessionID, &dto.DateRequest{Date: "2026-09-13"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestSelectDateResetsTime(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state := openAndAdvance(t, svc, "v1")

	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "10:30 AM"})
	require.Nil(t, appErr)
	assert.Equal(t, "10:30 AM", state.SelectedTime)

	state, appErr = svc.SelectDate(context.Background(), "v1", state.SessionID, &dto.DateRequest{Date: "2026-09-21"})
	require.Nil(t, appErr)
	assert.Empty(t, state.SelectedTime, "changing the day clears the time pick")
}

func TestSelectMonthKeepsSelection(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state := openAndAdvance(t, svc, "v1")

	state, appErr := svc.SelectMonth(context.Background(), "v1", state.SessionID, &dto.MonthRequest{Month: "2026-10"})
	require.Nil(t, appErr)
	assert.Equal(t, 10, state.Calendar.Month)
	assert.Equal(t, "2026-09-14", state.SelectedDate, "month navigation is view only")
}

func TestSelectTimeBusyIsNoOp(t *testing.T) {
	creds := &fakeCredentials{token: "tok"}
	cal := &fakeCalendar{fetch: func(day time.Time) ([]string, *errors.AppError) {
		return []string{"10:30 AM"}, nil
	}}
	svc := newTestWizard(t, creds, cal, &fakeBooking{})

	state := openAndAdvance(t, svc, "v1")
	state = waitForAvailability(t, svc, "v1", state.SessionID, string(entity.AvailabilityReady))

	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "10:30 AM"})
	require.Nil(t, appErr)
	assert.Empty(t, state.SelectedTime, "picking a busy slot changes nothing")

	state, appErr = svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "11:00 AM"})
	require.Nil(t, appErr)
	assert.Equal(t, "11:00 AM", state.SelectedTime)
}

func TestSelectTimeRejectsUnknownLabel(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state := openAndAdvance(t, svc, "v1")

	_, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "12:00 PM"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestConfirmRequiresSelection(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state := openAndAdvance(t, svc, "v1")

	_, appErr := svc.Confirm(context.Background(), "v1", state.SessionID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestConfirmDemoSuccess(t *testing.T) {
	booking := &fakeBooking{result: &bookingdto.CommitResult{Demo: true}}
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, booking)

	state := openAndAdvance(t, svc, "v1")
	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "10:30 AM"})
	require.Nil(t, appErr)

	state, appErr = svc.Confirm(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StageSuccess), state.Stage)
	assert.True(t, state.DemoMode)
	assert.False(t, state.CommitInFlight)

	require.Len(t, booking.starts, 1)
	assert.Equal(t, time.Date(2026, time.September, 14, 10, 30, 0, 0, testLoc), booking.starts[0])
}

func TestConfirmRealBookingSuccess(t *testing.T) {
	booking := &fakeBooking{result: &bookingdto.CommitResult{EventID: "evt_42"}}
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, booking)

	state := openAndAdvance(t, svc, "v1")
	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "1:00 PM"})
	require.Nil(t, appErr)

	state, appErr = svc.Confirm(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StageSuccess), state.Stage)
	assert.Equal(t, "evt_42", state.BookedEventID)
}

func TestConfirmFailureStaysOnCalendar(t *testing.T) {
	booking := &fakeBooking{err: errors.NewAppError(errors.ErrBookingFailure, "event creation rejected: 500", nil)}
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, booking)

	state := openAndAdvance(t, svc, "v1")
	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "10:30 AM"})
	require.Nil(t, appErr)

	state, appErr = svc.Confirm(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StageCalendar), state.Stage)
	assert.Contains(t, state.LastError, "event creation rejected")
	assert.False(t, state.CommitInFlight)
	assert.Equal(t, "10:30 AM", state.SelectedTime, "selection survives a failed commit")
}

func TestConfirmUnauthorizedDemotesToDemo(t *testing.T) {
	booking := &fakeBooking{err: errors.NewAppError(errors.ErrUnauthorized, "calendar authorization rejected", nil)}
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, booking)

	state := openAndAdvance(t, svc, "v1")
	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "10:30 AM"})
	require.Nil(t, appErr)

	state, appErr = svc.Confirm(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StageCalendar), state.Stage)
	assert.True(t, state.DemoMode)
	assert.True(t, state.RelinkRequired)
}

func TestCloseDiscardsEverything(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state := openAndAdvance(t, svc, "v1")

	appErr := svc.Close(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)

	_, appErr = svc.State(context.Background(), "v1", state.SessionID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)

	// Reopening starts from a blank form.
	fresh, appErr := svc.Open(context.Background(), "v1")
	require.Nil(t, appErr)
	assert.NotEqual(t, state.SessionID, fresh.SessionID)
	assert.Equal(t, string(entity.StageForm), fresh.Stage)
	assert.Empty(t, fresh.Contact.Name)
}

func TestFullBookingFlow(t *testing.T) {
	creds := &fakeCredentials{token: "tok"}
	cal := &fakeCalendar{fetch: func(day time.Time) ([]string, *errors.AppError) {
		return []string{"10:30 AM"}, nil
	}}
	booking := &fakeBooking{result: &bookingdto.CommitResult{EventID: "evt_77"}}
	svc := newTestWizard(t, creds, cal, booking)

	state := openAndAdvance(t, svc, "v1")
	state = waitForAvailability(t, svc, "v1", state.SessionID, string(entity.AvailabilityReady))

	// The busy 10:30 pick is ignored, 11:00 goes through.
	state, appErr := svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "10:30 AM"})
	require.Nil(t, appErr)
	assert.Empty(t, state.SelectedTime)

	state, appErr = svc.SelectTime(context.Background(), "v1", state.SessionID, &dto.TimeRequest{Time: "11:00 AM"})
	require.Nil(t, appErr)
	assert.Equal(t, "11:00 AM", state.SelectedTime)

	state, appErr = svc.Confirm(context.Background(), "v1", state.SessionID)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StageSuccess), state.Stage)
	assert.Equal(t, "evt_77", state.BookedEventID)

	require.Len(t, booking.starts, 1)
	assert.Equal(t, time.Date(2026, time.September, 14, 11, 0, 0, 0, testLoc), booking.starts[0])
}

func TestSessionOwnership(t *testing.T) {
	svc := newTestWizard(t, &fakeCredentials{}, &fakeCalendar{}, &fakeBooking{})
	state, appErr := svc.Open(context.Background(), "v1")
	require.Nil(t, appErr)

	_, appErr = svc.State(context.Background(), "v2", state.SessionID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}
