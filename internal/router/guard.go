package router

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "classsite/internal/errors"
	"classsite/internal/handler"
	"classsite/internal/model"
	"classsite/internal/service"
)

// tokenLookup accepts a bearer header first and falls back to the session cookie.
const tokenLookup = "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + handler.SessionCookie

const guardErrorKey = "auth_error"

// Guard resolves the caller from the presented token and requires one of roles.
// With no roles any authenticated, enabled user passes.
func Guard(authService service.AuthService, roles ...model.Role) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:     handler.UserContextKey,
		TokenLookup:    tokenLookup,
		ParseTokenFunc: authorize(authService, roles),
		ErrorHandler: func(c echo.Context, err error) error {
			return handler.RespondError(c, guardError(c, err))
		},
	})
}

// OptionalGuard resolves the caller when a valid token is presented and lets
// the request through otherwise. Storage failures are still reported.
func OptionalGuard(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             handler.UserContextKey,
		TokenLookup:            tokenLookup,
		ParseTokenFunc:         authorize(authService, nil),
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			if err := guardError(c, err); errors.Is(err, apperrors.ErrStorageUnavailable) {
				return handler.RespondError(c, err)
			}
			return nil
		},
	})
}

func authorize(authService service.AuthService, roles []model.Role) func(echo.Context, string) (interface{}, error) {
	return func(c echo.Context, token string) (interface{}, error) {
		user, err := authService.Authorize(c.Request().Context(), token, roles...)
		if err != nil {
			c.Set(guardErrorKey, err)
			return nil, err
		}
		return user, nil
	}
}

// guardError prefers the error recorded by authorize. Anything else comes
// from token extraction and means no token was presented.
func guardError(c echo.Context, err error) error {
	if recorded, ok := c.Get(guardErrorKey).(error); ok {
		return recorded
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != http.StatusUnauthorized && httpErr.Code != http.StatusBadRequest {
		return err
	}
	return apperrors.ErrUnauthenticated
}
