package controller

import (
	"github.com/labstack/echo/v4"

	basecontroller "leadbook/core/controller"
	"leadbook/core/errors"
	"leadbook/core/middleware"
	"leadbook/modules/wizard/dto"
	"leadbook/modules/wizard/service"
)

type WizardController struct {
	basecontroller.BaseController
	wizard service.WizardService
}

func NewWizardController(wizard service.WizardService) *WizardController {
	return &WizardController{wizard: wizard}
}

// Open creates a fresh wizard session at the contact form stage.
// POST /api/v1/private/wizard
func (c *WizardController) Open(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	state, appErr := c.wizard.Open(ctx.Request().Context(), visitorID)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Created(ctx, state, "wizard opened")
}

// State returns the full render model for one session.
// GET /api/v1/private/wizard/:id
func (c *WizardController) State(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	state, appErr := c.wizard.State(ctx.Request().Context(), visitorID, ctx.Param("id"))
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, state, "wizard state")
}

// SubmitContact validates the form and advances to the calendar stage.
// POST /api/v1/private/wizard/:id/contact
func (c *WizardController) SubmitContact(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	var req dto.ContactRequest
	if err := ctx.Bind(&req); err != nil {
		return c.Error(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}
	state, appErr := c.wizard.SubmitContact(ctx.Request().Context(), visitorID, ctx.Param("id"), &req)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, state, "contact submitted")
}

// SelectMonth moves the month view without touching the selection.
// POST /api/v1/private/wizard/:id/month
func (c *WizardController) SelectMonth(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	var req dto.MonthRequest
	if err := ctx.Bind(&req); err != nil {
		return c.Error(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}
	state, appErr := c.wizard.SelectMonth(ctx.Request().Context(), visitorID, ctx.Param("id"), &req)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, state, "month changed")
}

// SelectDate picks a day and starts an availability fetch for it.
// POST /api/v1/private/wizard/:id/date
func (c *WizardController) SelectDate(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	var req dto.DateRequest
	if err := ctx.Bind(&req); err != nil {
		return c.Error(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}
	state, appErr := c.wizard.SelectDate(ctx.Request().Context(), visitorID, ctx.Param("id"), &req)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, state, "date selected")
}

// SelectTime picks a slot label from the catalog.
// POST /api/v1/private/wizard/:id/time
func (c *WizardController) SelectTime(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	var req dto.TimeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.Error(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}
	state, appErr := c.wizard.SelectTime(ctx.Request().Context(), visitorID, ctx.Param("id"), &req)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, state, "time selected")
}

// Confirm commits the selected slot as a booking.
// POST /api/v1/private/wizard/:id/confirm
func (c *WizardController) Confirm(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	state, appErr := c.wizard.Confirm(ctx.Request().Context(), visitorID, ctx.Param("id"))
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, state, "booking confirmed")
}

// Close discards the session and everything in it.
// DELETE /api/v1/private/wizard/:id
func (c *WizardController) Close(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	if appErr := c.wizard.Close(ctx.Request().Context(), visitorID, ctx.Param("id")); appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, nil, "wizard closed")
}
