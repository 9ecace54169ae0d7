package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"leadbook/core/errors"
	"leadbook/core/logger"
)

type (
	SuccessResponse struct {
		Status    int       `json:"status"`
		Message   string    `json:"message"`
		Data      any       `json:"data,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	ErrorResponse struct {
		Status    string           `json:"status"`
		Code      errors.ErrorCode `json:"code"`
		Message   string           `json:"message"`
		Timestamp time.Time        `json:"timestamp"`
	}
)

// BaseController turns service results into HTTP responses; every module
// controller embeds it so status mapping lives in one place.
type BaseController struct{}

func (b *BaseController) Success(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Status:    http.StatusOK,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (b *BaseController) Created(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusCreated, SuccessResponse{
		Status:    http.StatusCreated,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (b *BaseController) Error(c echo.Context, err error) error {
	httpStatus := http.StatusInternalServerError
	appCode := errors.ErrInternalServer
	msg := "internal server error"

	if ae, ok := err.(*errors.AppError); ok && ae != nil {
		appCode = ae.Code
		if ae.Message != "" {
			msg = ae.Message
		}
		httpStatus = statusFor(appCode)
	} else if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	logger.Error("BaseController:Error", "status", httpStatus, "code", appCode, "message", msg)
	return c.JSON(httpStatus, ErrorResponse{
		Status:    "error",
		Code:      appCode,
		Message:   msg,
		Timestamp: time.Now(),
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrInvalidInput, errors.ErrInvalidRequestData:
		return http.StatusBadRequest
	case errors.ErrUnauthorized, errors.ErrTokenExpired, errors.ErrInvalidTokenFormat, errors.ErrMissingAuthorizationHeader:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrAlreadyExists:
		return http.StatusConflict
	case errors.ErrNetworkFailure, errors.ErrBookingFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
