package handler

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/recipeapp/recipe-app/auth"
)

// ContentTypeJson checks that the requests have the Content-Type header set to "application/json".
// This helps against CSRF attacks.
func ContentTypeJson(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		mediaType, _, err := mime.ParseMediaType(c.Request().Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, "Only JSON allowed"})
		}

		return next(c)
	}
}

// BrowserSession loads the session store of the requesting browser
func BrowserSession(registry *auth.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope, err := browserScope(c)
			if err != nil {
				log.Error("Cannot resolve browser session: ", err)
				return c.JSON(http.StatusInternalServerError, jsonHTTPResponse{false, "Cannot start session"})
			}

			st, err := registry.Get(scope)
			if err != nil {
				log.Error("Cannot load session store: ", err)
				return c.JSON(http.StatusInternalServerError, jsonHTTPResponse{false, "Cannot access session storage"})
			}

			c.Set(authStoreKey, st)
			return next(c)
		}
	}
}
