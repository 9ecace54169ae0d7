package credential

import (
	"github.com/labstack/echo/v4"

	"leadbook/core/cache"
	"leadbook/core/config"
	"leadbook/core/crypto"
	"leadbook/core/database"
	"leadbook/core/middleware"
	"leadbook/modules/credential/controller"
	"leadbook/modules/credential/repository"
	"leadbook/modules/credential/router"
	"leadbook/modules/credential/service"
)

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache, sealer *crypto.Sealer) {
	cfg := config.Get()

	states := repository.NewOAuthStateRepository(db)
	credentialSvc := service.NewCredentialService(c, sealer)
	oauthSvc := service.NewOAuthService(service.OAuthConfig{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		RedirectURI:  cfg.GoogleAPI.RedirectURI,
	}, states, credentialSvc)

	ctrl := controller.NewCredentialController(credentialSvc, oauthSvc, cfg.Booking.JWTSecret)
	mw := middleware.NewMiddleware(cfg.Booking.JWTSecret)
	router.NewCredentialRouter(ctrl).Setup(e, mw)
}
