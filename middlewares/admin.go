// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminRequiredMiddleware gates a route to admin users. It must run after
// VerifySessionMiddleware so the request identity is already resolved.
func AdminRequiredMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		user, err := GetAuthenticatedUser(c)
		if err != nil {
			logger.Error("Failed to get authenticated user:", err)
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "You must be logged in to access this resource",
			}
		}

		if !user.IsAdmin {
			logger.Error("Non-admin user attempted to access admin route.")
			return &echo.HTTPError{
				Code:    http.StatusForbidden,
				Message: "You do not have permission to access this resource",
			}
		}

		return next(c)
	}
}
