// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/crittertrack/crittertrack-server/internal/auth"
	"github.com/crittertrack/crittertrack-server/internal/handler"
	"github.com/crittertrack/crittertrack-server/internal/middleware"
)

// Handlers bundles every handler the router needs. Building it in
// one place keeps main() small and lets tests assemble a full
// router around fakes.
type Handlers struct {
	Auth    *handler.AuthHandler
	Animals *handler.AnimalHandler
	Litters *handler.LitterHandler
	Public  *handler.PublicHandler
	Upload  *handler.UploadHandler
}

// Register wires all routes onto the Echo instance. Unauthenticated
// routes (register, login, the public profile API, health, static
// uploads) are registered directly; everything else sits behind the
// bearer-token middleware. The rate limiter is attached per route
// rather than with e.Use: on protected routes it must run after
// Auth so user-keyed strategies see the authenticated id instead
// of "guest". Passing nil disables limiting.
func Register(e *echo.Echo, h Handlers, issuer *auth.TokenIssuer, limit echo.MiddlewareFunc) {
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	// Liveness probe for load balancers and monitoring; never
	// rate limited so a saturated bucket cannot fail the probe.
	e.GET("/healthz", handler.Health)

	// Account creation and login issue tokens; they cannot require one.
	e.POST("/api/register", h.Auth.Register, limit)
	e.POST("/api/login", h.Auth.Login, limit)

	registerPublic(e, h.Public, limit)

	// Uploaded files are public once their URL is known.
	e.Static("/uploads", h.Upload.Dir)

	// Everything below requires a verified bearer token.
	api := e.Group("/api", middleware.Auth(issuer), limit)

	api.GET("/user", h.Auth.Me)
	api.POST("/profile", h.Auth.UpdateProfile)

	api.GET("/animals", h.Animals.List)
	api.POST("/animals", h.Animals.Create)
	api.GET("/animals/:id", h.Animals.Get)
	api.PUT("/animals/:id", h.Animals.Update)
	api.DELETE("/animals/:id", h.Animals.Delete)

	api.GET("/litters", h.Litters.List)
	api.POST("/litters", h.Litters.Create)
	api.GET("/litters/:id", h.Litters.Get)
	api.PUT("/litters/:id", h.Litters.Update)
	api.DELETE("/litters/:id", h.Litters.Delete)

	api.POST("/upload", h.Upload.Upload)
}

// registerPublic registers the unauthenticated breeder-profile
// endpoints. These routes apply no token middleware; the store
// queries behind them only ever expose opted-in data.
func registerPublic(e *echo.Echo, p *handler.PublicHandler, limit echo.MiddlewareFunc) {
	// Animals a breeder has opted into their public profile.
	e.GET("/api/public/animals/list/:ownerId", p.ListAnimals, limit)
	// Detail view of one opted-in animal, hidden fields blanked.
	e.GET("/api/public/animals/:ownerId/:animalId", p.GetAnimal, limit)
	// A breeder's public profile record.
	e.GET("/api/public/user/:ownerId", p.GetUser, limit)
	// Breeder search over personal and breeder names.
	e.GET("/api/public/users/search", p.SearchUsers, limit)
}
