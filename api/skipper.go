package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouteSkipper exempts the given route paths from a middleware, matching on
// the registered route rather than the raw request path.
func RouteSkipper(routes []string) middleware.Skipper {
	skipped := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		skipped[route] = struct{}{}
	}

	return func(ec echo.Context) bool {
		_, ok := skipped[ec.Path()]
		return ok
	}
}
