package service

import (
	"context"
	"fmt"
	"time"

	"leadbook/core/constants"
	"leadbook/core/errors"
	"leadbook/core/logger"
	"leadbook/modules/booking/dto"
	caldto "leadbook/modules/calendar/dto"
	calservice "leadbook/modules/calendar/service"
	credservice "leadbook/modules/credential/service"
	wizentity "leadbook/modules/wizard/entity"
)

// BookingService commits a confirmed wizard selection as a real calendar
// event, or simulates one when the visitor never linked a calendar.
type BookingService interface {
	// Commit books the meeting at start for the given contact. With no
	// valid credential it runs the demo path: a simulated provider delay
	// followed by unconditional success. An authorization rejection from
	// the provider clears the stored credential; there is no retry.
	Commit(ctx context.Context, visitorID string, contact wizentity.ContactDraft, start time.Time) (*dto.CommitResult, *errors.AppError)
}

type bookingService struct {
	credentials  credservice.CredentialService
	calendar     calservice.CalendarService
	meetingTitle string
	demoDelay    time.Duration
}

func NewBookingService(credentials credservice.CredentialService, calendar calservice.CalendarService, meetingTitle string) BookingService {
	return &bookingService{
		credentials:  credentials,
		calendar:     calendar,
		meetingTitle: meetingTitle,
		demoDelay:    constants.DemoBookingDelay,
	}
}

func (s *bookingService) Commit(ctx context.Context, visitorID string, contact wizentity.ContactDraft, start time.Time) (*dto.CommitResult, *errors.AppError) {
	token, _, appErr := s.credentials.GetValidToken(ctx, visitorID)
	if appErr != nil {
		return nil, appErr
	}
	if token == "" {
		return s.commitDemo(ctx, visitorID, start)
	}

	req := &caldto.CreateEventRequest{
		Summary:       fmt.Sprintf("%s: %s (%s)", s.meetingTitle, contact.Name, contact.Company),
		Description:   buildDescription(contact),
		Start:         start,
		End:           start.Add(constants.MeetingDuration),
		AttendeeEmail: contact.Email,
	}

	created, appErr := s.calendar.CreateEvent(ctx, token, req)
	if appErr != nil {
		if appErr.Code == errors.ErrUnauthorized {
			logger.Warn("BookingService:Commit:Unauthorized", "visitor_id", visitorID)
			// The credential is dead; force a relink rather than retrying.
			if clearErr := s.credentials.Clear(ctx, visitorID); clearErr != nil {
				logger.Error("BookingService:Commit:Clear:Error", "error", clearErr, "visitor_id", visitorID)
			}
		}
		return nil, appErr
	}

	logger.Info("BookingService:Commit:Success", "visitor_id", visitorID, "event_id", created.EventID, "start", start)
	return &dto.CommitResult{EventID: created.EventID}, nil
}

// commitDemo waits out a simulated provider round trip and then succeeds.
// The demo path never fails on its own; only caller cancellation stops it.
func (s *bookingService) commitDemo(ctx context.Context, visitorID string, start time.Time) (*dto.CommitResult, *errors.AppError) {
	timer := time.NewTimer(s.demoDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, errors.NewAppError(errors.ErrBookingFailure, "booking cancelled", ctx.Err())
	case <-timer.C:
	}

	logger.Info("BookingService:Commit:DemoSuccess", "visitor_id", visitorID, "start", start)
	return &dto.CommitResult{Demo: true}, nil
}

func buildDescription(contact wizentity.ContactDraft) string {
	desc := fmt.Sprintf("Name: %s\nEmail: %s\nCompany: %s", contact.Name, contact.Email, contact.Company)
	if contact.Notes != "" {
		desc += "\nNotes: " + contact.Notes
	}
	return desc
}
