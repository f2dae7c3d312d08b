package errors

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// CustomHTTPErrorHandler maps the HttpError taxonomy to echo responses so
// handlers can return sentinel errors directly.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	e := HttpError{}
	if errors.As(err, &e) {
		c.Echo().DefaultHTTPErrorHandler(echo.NewHTTPError(e.Code, err.Error()), c)
		return
	}

	c.Echo().DefaultHTTPErrorHandler(err, c)
}
