package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is the liveness endpoint used by load balancers and monitoring
// to verify the booking engine is up.  It deliberately touches neither
// MySQL nor Redis: a degraded dependency must not take the process out
// of rotation while the engine can still serve conflict answers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok") // plain 200 "ok"
}
