package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drishiq/drishiq/app/controllers"
	"github.com/drishiq/drishiq/internal/pkg/constants"
	"github.com/drishiq/drishiq/internal/pkg/middleware"
	"github.com/drishiq/drishiq/internal/pkg/oauth"
	"github.com/drishiq/drishiq/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get(constants.HealthPath, controllers.HandleHealth)

	// Browser OAuth flow. Lives outside the API prefix because the goth
	// session store owns the /auth cookie space.
	auth := app.Group(constants.AuthBase)
	auth.Get("/:provider", controllers.HandleOAuthBegin)
	auth.Get("/:provider/callback", controllers.HandleOAuthCallback)
	auth.Get("/logout", controllers.HandleOAuthLogout)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
