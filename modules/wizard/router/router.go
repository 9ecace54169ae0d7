package router

import (
	"github.com/labstack/echo/v4"

	"leadbook/core/middleware"
	"leadbook/modules/wizard/controller"
)

type WizardRouter struct {
	controller *controller.WizardController
}

func NewWizardRouter(controller *controller.WizardController) *WizardRouter {
	return &WizardRouter{controller: controller}
}

func (r *WizardRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	private := e.Group("/api/v1/private/wizard")
	private.Use(mw.VisitorAuth())

	private.POST("", r.controller.Open)
	private.GET("/:id", r.controller.State)
	private.POST("/:id/contact", r.controller.SubmitContact)
	private.POST("/:id/month", r.controller.SelectMonth)
	private.POST("/:id/date", r.controller.SelectDate)
	private.POST("/:id/time", r.controller.SelectTime)
	private.POST("/:id/confirm", r.controller.Confirm)
	private.DELETE("/:id", r.controller.Close)
}
