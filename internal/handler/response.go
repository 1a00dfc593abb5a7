package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"classsite/internal/errors"
	"classsite/internal/model"
)

// UserContextKey is where the access guard stores the resolved *model.User.
const UserContextKey = "user"

// SessionCookie carries the access token for browser clients.
const SessionCookie = "class_session"

// OKResponse is returned by operations with nothing else to report.
type OKResponse struct {
	OK bool `json:"ok"`
}

// RespondError maps a domain error onto an HTTP error, setting Retry-After
// for lockouts.
func RespondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.RetryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(httpErr.RetryAfter))
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// CurrentUser returns the user resolved by the access guard, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(UserContextKey).(*model.User)
	return user
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}
	return nil
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id", "INVALID_ID")
	}
	return uint(id), nil
}
