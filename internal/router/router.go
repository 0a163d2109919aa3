package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hotel-booking-engine/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/hotel-booking-engine/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterCatalog registers the unauthenticated browse endpoints.  These
// return sanitized hotel, room and hall data for guests comparing options
// before booking.  Catalog responses are safe to cache because the engine
// never derives availability from them; pass a Redis cache middleware to
// shield the database from repeated identical reads, or nil to serve every
// request directly.
func RegisterCatalog(e *echo.Echo, cat *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	// List all hotels currently accepting reservations
	e.GET("/v1/hotels", cat.ListHotels, mws...)
	// List rooms of a specific hotel
	e.GET("/v1/hotels/:id/rooms", cat.ListRooms, mws...)
	// List event halls of a specific hotel
	e.GET("/v1/hotels/:id/halls", cat.ListHalls, mws...)
}

// RegisterEngine registers the booking engine endpoints under /v1.  All
// routes require a valid JWT issued by the identity service and an accepted
// role.  The optional rate limit middleware is applied to the whole group so
// a single client cannot hammer the availability resolver or flood the
// booking path.
func RegisterEngine(e *echo.Echo, av *handler.AvailabilityHandler, res *handler.ReservationHandler, pkg *handler.PackageHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	// Create a group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.
	g := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	g.Use(middleware.JWTAuth(jwtSecret))
	// Accept both guest and staff tokens on engine endpoints.  The middleware
	// rejects requests with missing or unknown roles.
	g.Use(middleware.RequireRole(middleware.RoleCustomer, middleware.RoleStaff))
	if rateLimit != nil {
		g.Use(rateLimit)
	}

	// Availability resolver: read-only, derived from active reservations,
	// never cached.
	g.GET("/availability", av.Check)

	// Single-resource reservations.
	g.POST("/reservations", res.Create)
	g.GET("/reservations/:id", res.Get)
	g.PUT("/reservations/:id/dates", res.ModifyDates)
	g.PUT("/reservations/:id/cancel", res.Cancel)
	g.GET("/my-reservations", res.ListMine)

	// Event packages: dry-run validation and confirmation.
	g.POST("/packages/validate", pkg.ValidatePackage)
	g.POST("/packages/confirm", pkg.ConfirmPackage)
	g.GET("/packages/:code", pkg.GetPackage)
}
