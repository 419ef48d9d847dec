package http

import "github.com/labstack/echo/v4"

// Handler is implemented by the indicator API handler; the server calls it
// once at startup to mount the /api routes and the health check.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
