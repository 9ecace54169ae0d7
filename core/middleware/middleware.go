package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"leadbook/core/errors"
	"leadbook/core/logger"
	"leadbook/core/utils"
)

// VisitorIDKey is the echo context key the visitor middleware populates.
const VisitorIDKey = "visitor_id"

type Middleware struct {
	jwtSecret string
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// RequestLogger logs method, path, status and latency for every request.
func (m *Middleware) RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("HTTP:Request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// VisitorAuth validates the bearer visitor token and stores the visitor ID
// in the request context.
func (m *Middleware) VisitorAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrMissingAuthorizationHeader, "authorization header required", nil))
			}

			token := strings.TrimPrefix(header, "Bearer ")
			claims, appErr := utils.ValidateAndParseToken(token, m.jwtSecret)
			if appErr != nil {
				return c.JSON(http.StatusUnauthorized, appErr)
			}

			c.Set(VisitorIDKey, claims.VisitorID)
			return next(c)
		}
	}
}

// VisitorID reads the visitor ID the auth middleware stored.
func VisitorID(c echo.Context) (string, *errors.AppError) {
	id, _ := c.Get(VisitorIDKey).(string)
	if id == "" {
		return "", errors.NewAppError(errors.ErrUnauthorized, "no visitor in context", nil)
	}
	return id, nil
}
