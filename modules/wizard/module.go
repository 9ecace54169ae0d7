package wizard

import (
	"time"

	"github.com/labstack/echo/v4"

	"leadbook/core/cache"
	"leadbook/core/config"
	"leadbook/core/crypto"
	"leadbook/core/logger"
	"leadbook/core/middleware"
	bookingservice "leadbook/modules/booking/service"
	calservice "leadbook/modules/calendar/service"
	credservice "leadbook/modules/credential/service"
	"leadbook/modules/wizard/controller"
	"leadbook/modules/wizard/router"
	"leadbook/modules/wizard/service"
)

func Init(e *echo.Echo, c cache.Cache, sealer *crypto.Sealer) *service.SessionStore {
	cfg := config.Get()

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		logger.Warn("WizardModule:Init:BadTimezone", "timezone", cfg.Booking.Timezone, "error", err)
		loc = time.UTC
	}

	store := service.NewSessionStore()
	credentialSvc := credservice.NewCredentialService(c, sealer)
	calendarSvc := calservice.NewCalendarService(loc)
	bookingSvc := bookingservice.NewBookingService(credentialSvc, calendarSvc, cfg.Booking.MeetingTitle)
	wizardSvc := service.NewWizardService(store, credentialSvc, calendarSvc, bookingSvc, loc)

	ctrl := controller.NewWizardController(wizardSvc)
	mw := middleware.NewMiddleware(cfg.Booking.JWTSecret)
	router.NewWizardRouter(ctrl).Setup(e, mw)

	return store
}
