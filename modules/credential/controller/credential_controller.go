package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	basecontroller "leadbook/core/controller"
	"leadbook/core/errors"
	"leadbook/core/middleware"
	"leadbook/core/utils"
	"leadbook/modules/credential/dto"
	"leadbook/modules/credential/service"
)

type CredentialController struct {
	basecontroller.BaseController
	credential service.CredentialService
	oauth      service.OAuthService
	jwtSecret  string
}

func NewCredentialController(credential service.CredentialService, oauth service.OAuthService, jwtSecret string) *CredentialController {
	return &CredentialController{
		credential: credential,
		oauth:      oauth,
		jwtSecret:  jwtSecret,
	}
}

// IssueVisitor mints a visitor identity for a new browser profile.
// POST /api/v1/public/visitors
func (c *CredentialController) IssueVisitor(ctx echo.Context) error {
	visitorID := utils.GenerateID()
	token, err := utils.IssueVisitorToken(visitorID, c.jwtSecret)
	if err != nil {
		return c.Error(ctx, errors.NewAppError(errors.ErrInternalServer, "failed to issue visitor token", err))
	}
	return c.Created(ctx, dto.VisitorResponse{VisitorID: visitorID, Token: token}, "visitor created")
}

// Status reports the link state for the footer control.
// GET /api/v1/private/calendar-link
func (c *CredentialController) Status(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	status, appErr := c.credential.Status(ctx.Request().Context(), visitorID)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, status, "link status")
}

// BeginLink starts the consent flow and returns the provider URL.
// POST /api/v1/private/calendar-link
func (c *CredentialController) BeginLink(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	res, appErr := c.oauth.BeginLink(ctx.Request().Context(), visitorID)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, res, "consent flow started")
}

// Callback receives the provider redirect that completes the link.
// GET /api/v1/public/calendar-link/callback?state=...&code=...
func (c *CredentialController) Callback(ctx echo.Context) error {
	state := ctx.QueryParam("state")
	code := ctx.QueryParam("code")
	if errParam := ctx.QueryParam("error"); errParam != "" {
		return c.Error(ctx, errors.NewAppError(errors.ErrUnauthorized, "consent was denied: "+errParam, nil))
	}
	if state == "" || code == "" {
		return c.Error(ctx, errors.NewAppError(errors.ErrInvalidInput, "state and code are required", nil))
	}

	if appErr := c.oauth.CompleteLink(ctx.Request().Context(), state, code); appErr != nil {
		return c.Error(ctx, appErr)
	}
	return ctx.HTML(http.StatusOK, linkedPage)
}

// Disconnect clears the credential record.
// DELETE /api/v1/private/calendar-link
func (c *CredentialController) Disconnect(ctx echo.Context) error {
	visitorID, appErr := middleware.VisitorID(ctx)
	if appErr != nil {
		return c.Error(ctx, appErr)
	}
	if appErr := c.credential.Clear(ctx.Request().Context(), visitorID); appErr != nil {
		return c.Error(ctx, appErr)
	}
	return c.Success(ctx, nil, "calendar disconnected")
}

const linkedPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Calendar linked</title></head>
<body style="font-family:sans-serif;text-align:center;padding-top:80px">
<h1>Calendar linked</h1>
<p>You can close this window and return to the booking page.</p>
</body>
</html>`
