package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/boxoffice/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/boxoffice/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/boxoffice/internal/utils"      // role names carried in staff tokens
)

// RegisterRoutes registers routes that do not require authentication and do
// not belong to the API itself.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probe this path.
	e.GET("/healthz", handler.Health)
}

// staffOnly returns the middleware chain for endpoints reserved to box
// office staff: a valid access token carrying the STAFF role.
func staffOnly(jwtSecret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleStaff),
	}
}

// RegisterStaff registers the staff login and the staff back office
// endpoints.  Login is public; everything else requires a staff token.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group("/v1/staff")
	// Exchange username and password for an access token.
	g.POST("/login", s.Login)

	auth := g.Group("", staffOnly(jwtSecret)...)
	// Identity carried by the token.
	auth.GET("/me", s.Me)
	// Publish a new event.
	auth.POST("/events", s.CreateEvent)
}

// RegisterPublic registers unauthenticated browse endpoints.  The catalog
// and event lists change rarely and go through the response cache; the
// seat map never does because it must reflect every sale.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/seats/catalog", p.GetCatalog, cache)
	e.GET("/v1/events", p.ListEvents, cache)
	e.GET("/v1/events/:id", p.GetEvent, cache)
	e.GET("/v1/events/:id/seats", p.GetEventSeats)
}

// RegisterCheckout registers the buyer checkout flow and the payment
// provider's webhook.  Starting a checkout is rate limited; the webhook is
// authenticated by its signature instead of a token.
func RegisterCheckout(e *echo.Echo, co *handler.CheckoutHandler, wh *handler.WebhookHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/checkout", co.Create, limit)
	e.GET("/v1/checkout/sessions/:ref", co.SessionStatus)
	e.POST("/v1/webhooks/payment", wh.Payment)
}

// RegisterTickets registers ticket endpoints.  Buyers create and view
// their tickets; check-in, door sales and resends are staff operations.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/tickets")
	g.POST("/create", t.Create)
	g.GET("/:token", t.Get, limit)

	staff := g.Group("", staffOnly(jwtSecret)...)
	staff.POST("/checkin", t.CheckIn, limit)
	staff.POST("/manual-create", t.CreateManual)
	staff.POST("/resend", t.Resend)
}
