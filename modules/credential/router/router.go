package router

import (
	"github.com/labstack/echo/v4"

	"leadbook/core/middleware"
	"leadbook/modules/credential/controller"
)

type CredentialRouter struct {
	controller *controller.CredentialController
}

func NewCredentialRouter(controller *controller.CredentialController) *CredentialRouter {
	return &CredentialRouter{controller: controller}
}

func (r *CredentialRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	public := v1.Group("/public")
	public.POST("/visitors", r.controller.IssueVisitor)
	public.GET("/calendar-link/callback", r.controller.Callback)

	private := v1.Group("/private")
	private.Use(mw.VisitorAuth())
	private.GET("/calendar-link", r.controller.Status)
	private.POST("/calendar-link", r.controller.BeginLink)
	private.DELETE("/calendar-link", r.controller.Disconnect)
}
