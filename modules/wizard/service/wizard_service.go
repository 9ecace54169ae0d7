package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadbook/core/constants"
	"leadbook/core/errors"
	"leadbook/core/logger"
	"leadbook/core/utils"
	bookingservice "leadbook/modules/booking/service"
	calservice "leadbook/modules/calendar/service"
	credservice "leadbook/modules/credential/service"
	"leadbook/modules/wizard/dto"
	"leadbook/modules/wizard/entity"
)

// WizardService drives the three-stage booking flow: contact form,
// calendar with slot picker, success. Stages only move forward; closing
// discards the session entirely.
type WizardService interface {
	Open(ctx context.Context, visitorID string) (*dto.StateResponse, *errors.AppError)
	State(ctx context.Context, visitorID, sessionID string) (*dto.StateResponse, *errors.AppError)
	SubmitContact(ctx context.Context, visitorID, sessionID string, req *dto.ContactRequest) (*dto.StateResponse, *errors.AppError)
	SelectMonth(ctx context.Context, visitorID, sessionID string, req *dto.MonthRequest) (*dto.StateResponse, *errors.AppError)
	SelectDate(ctx context.Context, visitorID, sessionID string, req *dto.DateRequest) (*dto.StateResponse, *errors.AppError)
	SelectTime(ctx context.Context, visitorID, sessionID string, req *dto.TimeRequest) (*dto.StateResponse, *errors.AppError)
	Confirm(ctx context.Context, visitorID, sessionID string) (*dto.StateResponse, *errors.AppError)
	Close(ctx context.Context, visitorID, sessionID string) *errors.AppError
}

type wizardService struct {
	store       *SessionStore
	credentials credservice.CredentialService
	calendar    calservice.CalendarService
	booking     bookingservice.BookingService
	loc         *time.Location
	catalog     []string

	now             func() time.Time
	transitionDelay time.Duration
}

func NewWizardService(
	store *SessionStore,
	credentials credservice.CredentialService,
	calendar calservice.CalendarService,
	booking bookingservice.BookingService,
	loc *time.Location,
) WizardService {
	return &wizardService{
		store:           store,
		credentials:     credentials,
		calendar:        calendar,
		booking:         booking,
		loc:             loc,
		catalog:         SlotCatalog(),
		now:             time.Now,
		transitionDelay: constants.StageTransitionDelay,
	}
}

func (s *wizardService) Open(ctx context.Context, visitorID string) (*dto.StateResponse, *errors.AppError) {
	now := s.now().In(s.loc)
	session := &entity.WizardSession{
		ID:           utils.GenerateID(),
		VisitorID:    visitorID,
		Stage:        entity.StageForm,
		ViewYear:     now.Year(),
		ViewMonth:    now.Month(),
		Availability: entity.AvailabilityIdle,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	s.store.Put(session)

	logger.Info("WizardService:Open:Success", "session_id", session.ID, "visitor_id", visitorID)
	snap := session.Clone()
	return s.render(&snap), nil
}

func (s *wizardService) State(ctx context.Context, visitorID, sessionID string) (*dto.StateResponse, *errors.AppError) {
	snap, appErr := s.owned(visitorID, sessionID)
	if appErr != nil {
		return nil, appErr
	}
	return s.render(&snap), nil
}

func (s *wizardService) SubmitContact(ctx context.Context, visitorID, sessionID string, req *dto.ContactRequest) (*dto.StateResponse, *errors.AppError) {
	snap, appErr := s.owned(visitorID, sessionID)
	if appErr != nil {
		return nil, appErr
	}
	if snap.Stage != entity.StageForm {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "contact details are locked after submission", nil)
	}

	draft := entity.ContactDraft{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Company: strings.TrimSpace(req.Company),
		Notes:   strings.TrimSpace(req.Notes),
	}
	if missing := draft.MissingFields(); len(missing) > 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput,
			fmt.Sprintf("required fields missing: %s", strings.Join(missing, ", ")), nil)
	}

	// The stage change is deliberately not instant.
	timer := time.NewTimer(s.transitionDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, errors.NewAppError(errors.ErrInternalServer, "request cancelled", ctx.Err())
	case <-timer.C:
	}

	snap, ok := s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		session.Contact = draft
		session.Stage = entity.StageCalendar
	})
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}

	logger.Info("WizardService:SubmitContact:Advanced", "session_id", sessionID)

	// Landing on the calendar auto-selects today and kicks off the first
	// availability fetch.
	return s.applyDateSelection(ctx, visitorID, sessionID, s.today())
}

func (s *wizardService) SelectMonth(ctx context.Context, visitorID, sessionID string, req *dto.MonthRequest) (*dto.StateResponse, *errors.AppError) {
	snap, appErr := s.owned(visitorID, sessionID)
	if appErr != nil {
		return nil, appErr
	}
	if snap.Stage != entity.StageCalendar {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "calendar is not active", nil)
	}

	view, err := time.ParseInLocation("2006-01", req.Month, s.loc)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "month must be YYYY-MM", err)
	}

	snap, ok := s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		session.ViewYear = view.Year()
		session.ViewMonth = view.Month()
	})
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}
	return s.render(&snap), nil
}

func (s *wizardService) SelectDate(ctx context.Context, visitorID, sessionID string, req *dto.DateRequest) (*dto.StateResponse, *errors.AppError) {
	snap, appErr := s.owned(visitorID, sessionID)
	if appErr != nil {
		return nil, appErr
	}
	if snap.Stage != entity.StageCalendar {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "calendar is not active", nil)
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, s.loc)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "date must be YYYY-MM-DD", err)
	}
	if day.Before(s.today()) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "cannot book a past date", nil)
	}

	return s.applyDateSelection(ctx, visitorID, sessionID, day)
}

// applyDateSelection records the day, resets the time pick, and starts a
// fresh availability fetch. Bumping FetchRevision here is what invalidates
// any fetch still in flight for a previously selected day.
func (s *wizardService) applyDateSelection(ctx context.Context, visitorID, sessionID string, day time.Time) (*dto.StateResponse, *errors.AppError) {
	token, relinkRequired, appErr := s.credentials.GetValidToken(ctx, visitorID)
	_ = appErr // a broken credential store degrades to demo mode below

	var revision uint64
	snap, ok := s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		session.SelectedDate = day
		session.SelectedTime = ""
		session.ViewYear = day.Year()
		session.ViewMonth = day.Month()
		session.BusyLabels = nil
		session.LastError = ""
		session.FetchRevision++
		revision = session.FetchRevision

		if token == "" {
			session.DemoMode = true
			session.RelinkRequired = session.RelinkRequired || relinkRequired
			session.Availability = entity.AvailabilityReady
		} else {
			session.DemoMode = false
			session.Availability = entity.AvailabilityLoading
		}
	})
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}

	if token != "" {
		go s.fetchBusy(visitorID, sessionID, token, day, revision)
	}
	return s.render(&snap), nil
}

// fetchBusy runs off the request goroutine; its result is applied only if
// the session still points at the same day and revision it was started
// for, so a slow response for an abandoned day can never clobber state.
func (s *wizardService) fetchBusy(visitorID, sessionID, token string, day time.Time, revision uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	labels, appErr := s.calendar.FetchBusyLabels(ctx, token, day)

	if appErr != nil && appErr.Code == errors.ErrUnauthorized {
		// Provider rejected the token: drop it now rather than at the next
		// commit, and let the visitor keep going in demo mode.
		if clearErr := s.credentials.Clear(ctx, visitorID); clearErr != nil {
			logger.Error("WizardService:FetchBusy:Clear:Error", "error", clearErr, "visitor_id", visitorID)
		}
	}

	s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		if session.FetchRevision != revision || !session.SelectedDate.Equal(day) {
			logger.Info("WizardService:FetchBusy:Stale", "session_id", sessionID, "revision", revision)
			return
		}
		switch {
		case appErr == nil:
			session.BusyLabels = labels
			session.Availability = entity.AvailabilityReady
		case appErr.Code == errors.ErrUnauthorized:
			session.BusyLabels = nil
			session.DemoMode = true
			session.RelinkRequired = true
			session.Availability = entity.AvailabilityReady
		default:
			// Fail open: an unreachable provider must not block booking.
			session.BusyLabels = nil
			session.Availability = entity.AvailabilitySyncError
		}
	})
}

func (s *wizardService) SelectTime(ctx context.Context, visitorID, sessionID string, req *dto.TimeRequest) (*dto.StateResponse, *errors.AppError) {
	snap, appErr := s.owned(visitorID, sessionID)
	if appErr != nil {
		return nil, appErr
	}
	if snap.Stage != entity.StageCalendar || snap.SelectedDate.IsZero() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "select a date first", nil)
	}
	if !InCatalog(req.Time) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown time slot", nil)
	}

	snap, ok := s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		for _, busy := range session.BusyLabels {
			if busy == req.Time {
				// Busy slots ignore the pick; state is returned unchanged.
				return
			}
		}
		session.SelectedTime = req.Time
	})
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}
	return s.render(&snap), nil
}

func (s *wizardService) Confirm(ctx context.Context, visitorID, sessionID string) (*dto.StateResponse, *errors.AppError) {
	snap, appErr := s.owned(visitorID, sessionID)
	if appErr != nil {
		return nil, appErr
	}
	if snap.Stage != entity.StageCalendar {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "nothing to confirm", nil)
	}
	if snap.SelectedDate.IsZero() || snap.SelectedTime == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "select a date and time first", nil)
	}

	// Claim the commit under the lock; a second confirm while one is in
	// flight just sees the current state.
	claimed := false
	var slotTaken bool
	snap, ok := s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		if session.CommitInFlight {
			return
		}
		for _, busy := range session.BusyLabels {
			if busy == session.SelectedTime {
				slotTaken = true
				return
			}
		}
		session.CommitInFlight = true
		session.LastError = ""
		claimed = true
	})
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}
	if slotTaken {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "selected slot is no longer available", nil)
	}
	if !claimed {
		return s.render(&snap), nil
	}

	start, err := LabelToTime(snap.SelectedTime, snap.SelectedDate, s.loc)
	if err != nil {
		s.store.Mutate(sessionID, func(session *entity.WizardSession) {
			session.CommitInFlight = false
		})
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to resolve slot time", err)
	}

	result, commitErr := s.booking.Commit(ctx, visitorID, snap.Contact, start)

	snap, ok = s.store.Mutate(sessionID, func(session *entity.WizardSession) {
		session.CommitInFlight = false
		if commitErr != nil {
			session.LastError = commitErr.Message
			if commitErr.Code == errors.ErrUnauthorized {
				// Booking already cleared the credential.
				session.DemoMode = true
				session.RelinkRequired = true
			}
			return
		}
		session.Stage = entity.StageSuccess
		session.DemoMode = result.Demo || session.DemoMode
		session.BookedEventID = result.EventID
		session.LastError = ""
	})
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}

	if commitErr != nil {
		logger.Warn("WizardService:Confirm:Failed", "session_id", sessionID, "code", commitErr.Code, "message", commitErr.Message)
	} else {
		logger.Info("WizardService:Confirm:Success", "session_id", sessionID, "demo", result.Demo, "event_id", result.EventID)
	}
	return s.render(&snap), nil
}

func (s *wizardService) Close(ctx context.Context, visitorID, sessionID string) *errors.AppError {
	if _, appErr := s.owned(visitorID, sessionID); appErr != nil {
		return appErr
	}
	s.store.Delete(sessionID)
	logger.Info("WizardService:Close:Success", "session_id", sessionID)
	return nil
}

// owned fetches the session and verifies the caller opened it.
func (s *wizardService) owned(visitorID, sessionID string) (entity.WizardSession, *errors.AppError) {
	snap, ok := s.store.Get(sessionID)
	if !ok {
		return entity.WizardSession{}, errors.NewAppError(errors.ErrNotFound, "wizard session not found", nil)
	}
	if snap.VisitorID != visitorID {
		return entity.WizardSession{}, errors.NewAppError(errors.ErrForbidden, "session belongs to another visitor", nil)
	}
	return snap, nil
}

// today is midnight of the current day in the business timezone.
func (s *wizardService) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *wizardService) render(session *entity.WizardSession) *dto.StateResponse {
	resp := &dto.StateResponse{
		SessionID: session.ID,
		Stage:     string(session.Stage),
		Contact: dto.ContactView{
			Name:    session.Contact.Name,
			Email:   session.Contact.Email,
			Company: session.Contact.Company,
			Notes:   session.Contact.Notes,
		},
		Availability:   string(session.Availability),
		DemoMode:       session.DemoMode,
		RelinkRequired: session.RelinkRequired,
		CommitInFlight: session.CommitInFlight,
		BookedEventID:  session.BookedEventID,
		LastError:      session.LastError,
	}
	if !session.SelectedDate.IsZero() {
		resp.SelectedDate = session.SelectedDate.Format("2006-01-02")
	}
	resp.SelectedTime = session.SelectedTime

	if session.Stage == entity.StageCalendar {
		resp.Calendar = s.renderMonth(session)
		if !session.SelectedDate.IsZero() {
			resp.Slots = ComputeSlotStates(s.catalog, session.BusyLabels, session.SelectedTime)
		}
	}
	return resp
}

func (s *wizardService) renderMonth(session *entity.WizardSession) *dto.CalendarView {
	first := time.Date(session.ViewYear, session.ViewMonth, 1, 0, 0, 0, 0, s.loc)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	today := s.today()

	view := &dto.CalendarView{
		Year:          session.ViewYear,
		Month:         int(session.ViewMonth),
		MonthLabel:    first.Format("January 2006"),
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]dto.DayCell, 0, daysInMonth),
	}
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(session.ViewYear, session.ViewMonth, d, 0, 0, 0, 0, s.loc)
		view.Days = append(view.Days, dto.DayCell{
			Day:      d,
			Date:     date.Format("2006-01-02"),
			Disabled: date.Before(today),
			Selected: !session.SelectedDate.IsZero() && date.Equal(session.SelectedDate),
		})
	}
	return view
}
