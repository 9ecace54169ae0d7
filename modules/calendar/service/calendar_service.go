package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadbook/core/errors"
	"leadbook/core/logger"
	"leadbook/modules/calendar/dto"
)

const googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"

// SlotLabelFormat renders instants the way the slot catalog labels them;
// busy membership is exact string equality on these labels.
const SlotLabelFormat = "3:04 PM"

// CalendarService is the gateway to the external calendar provider. Both
// calls are bearer-authenticated; the caller owns the token lifecycle.
type CalendarService interface {
	// FetchBusyLabels returns the start instants of busy meetings on the
	// given business-local day, as slot labels, in provider order.
	FetchBusyLabels(ctx context.Context, accessToken string, day time.Time) ([]string, *errors.AppError)
	// CreateEvent inserts the meeting on the primary calendar with attendee
	// update notifications enabled.
	CreateEvent(ctx context.Context, accessToken string, req *dto.CreateEventRequest) (*dto.CreateEventResponse, *errors.AppError)
}

type calendarService struct {
	baseURL string
	client  *http.Client
	loc     *time.Location
}

func NewCalendarService(loc *time.Location) CalendarService {
	return &calendarService{
		baseURL: googleCalendarAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		loc:     loc,
	}
}

// NewCalendarServiceWithBaseURL points the gateway at a different endpoint;
// tests use it with httptest servers.
func NewCalendarServiceWithBaseURL(baseURL string, loc *time.Location) CalendarService {
	return &calendarService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		loc:     loc,
	}
}

func (s *calendarService) FetchBusyLabels(ctx context.Context, accessToken string, day time.Time) ([]string, *errors.AppError) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)

	payload := dto.FreeBusyRequest{
		TimeMin: dayStart.Format(time.RFC3339),
		TimeMax: dayEnd.Format(time.RFC3339),
		Items:   []dto.FreeBusyItem{{ID: "primary"}},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/freeBusy", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to build free/busy request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("CalendarService:FetchBusyLabels:DoRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrNetworkFailure, "free/busy request failed", err)
	}
	defer resp.Body.Close()

	if appErr := classifyStatus(resp, "free/busy"); appErr != nil {
		return nil, appErr
	}

	var result dto.FreeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("CalendarService:FetchBusyLabels:Decode:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrNetworkFailure, "failed to parse free/busy response", err)
	}

	var labels []string
	if cal, ok := result.Calendars["primary"]; ok {
		for _, busy := range cal.Busy {
			start, err := time.Parse(time.RFC3339, busy.Start)
			if err != nil {
				logger.Warn("CalendarService:FetchBusyLabels:BadInterval", "start", busy.Start)
				continue
			}
			labels = append(labels, start.In(s.loc).Format(SlotLabelFormat))
		}
	}

	logger.Info("CalendarService:FetchBusyLabels:Success", "day", dayStart.Format("2006-01-02"), "busy_count", len(labels))
	return labels, nil
}

func (s *calendarService) CreateEvent(ctx context.Context, accessToken string, req *dto.CreateEventRequest) (*dto.CreateEventResponse, *errors.AppError) {
	event := map[string]any{
		"summary":     req.Summary,
		"description": req.Description,
		"start":       map[string]string{"dateTime": req.Start.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": req.End.Format(time.RFC3339)},
		"attendees":   []map[string]string{{"email": req.AttendeeEmail}},
		"reminders":   map[string]any{"useDefault": true},
	}
	body, _ := json.Marshal(event)

	url := s.baseURL + "/calendars/primary/events?sendUpdates=all"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to build event request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		logger.Error("CalendarService:CreateEvent:DoRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrBookingFailure, "event creation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "calendar authorization rejected", nil)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarService:CreateEvent:APIError", "status", resp.StatusCode, "body", string(raw))
		return nil, errors.NewAppError(errors.ErrBookingFailure, fmt.Sprintf("event creation rejected: %d", resp.StatusCode), nil)
	}

	var created struct {
		ID       string `json:"id"`
		HTMLLink string `json:"htmlLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, errors.NewAppError(errors.ErrBookingFailure, "failed to parse event response", err)
	}

	logger.Info("CalendarService:CreateEvent:Success", "event_id", created.ID, "start", req.Start)
	return &dto.CreateEventResponse{EventID: created.ID, HTMLLink: created.HTMLLink}, nil
}

// classifyStatus splits authorization rejections from everything else so the
// caller can clear credentials on the former and fail open on the latter.
func classifyStatus(resp *http.Response, op string) *errors.AppError {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.NewAppError(errors.ErrUnauthorized, "calendar authorization rejected", nil)
	default:
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarService:APIError", "op", op, "status", resp.StatusCode, "body", string(raw))
		return errors.NewAppError(errors.ErrNetworkFailure, fmt.Sprintf("%s request rejected: %d", op, resp.StatusCode), nil)
	}
}
