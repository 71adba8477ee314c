// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/middlewares"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIInfoHandler godoc
// @Summary      API overview
// @Description  Lists the available API endpoints and how to authenticate against them.
// @Tags         api
// @Produce      json
// @Success      200 {object} map[string]any "API information"
// @Router       /api/ [get]
func APIInfoHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "AuthGate API",
		"version": "1.0",
		"authentication": map[string]any{
			"api_key": "Send your key in the X-API-Key header",
			"session": "Login via /auth/login to obtain a session cookie",
		},
		"endpoints": map[string]string{
			"POST /api/auth/login":        "Authenticate and obtain an API key",
			"GET /api/auth/me":            "Get the authenticated user (API key)",
			"GET /api/keys":               "List your API keys (session)",
			"POST /api/keys":              "Create an API key (session)",
			"DELETE /api/keys/{key_id}":   "Revoke an API key (session)",
			"GET /api/users":              "List users (admin session)",
			"GET /api/users/{user_id}":    "Get a user (admin session)",
			"PUT /api/users/{user_id}":    "Update a user (admin session)",
			"DELETE /api/users/{user_id}": "Delete a user (admin session)",
			"POST /auth/register":         "Register a new account",
			"POST /auth/login":            "Login and obtain a session cookie",
			"POST /auth/logout":           "Logout (session)",
			"GET /auth/profile":           "Get your profile (session)",
			"PUT /auth/profile":           "Update your profile (session)",
			"PUT /auth/change-password":   "Change your password (session)",
		},
	})
}

// DashboardHandler godoc
// @Summary      Dashboard
// @Description  Returns a short greeting with the logged-in user's details.
// @Tags         main
// @Produce      json
// @Security     SessionAuth
// @Success      200 {object} UserResponse 		 "Dashboard data"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Router       /dashboard [get]
func DashboardHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		c.Logger().Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, UserResponse{
		Message: "Welcome back, " + user.Username + "!",
		User:    userDetails(user, true),
	})
}

// HealthCheckHandler reports liveness for load balancers.
func HealthCheckHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericResponse{Message: "ok"})
}
