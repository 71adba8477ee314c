// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/auth"
	"authgate-server/db"
	"authgate-server/middlewares"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// APILoginHandler godoc
// @Summary      Authenticate and obtain an API key
// @Description  Authenticates with username or email and password, then issues a fresh API key labelled with the requesting device. The raw key is returned once.
// @Tags         api
// @Accept       json
// @Produce      json
// @Param        apiLoginRequest  body  APILoginRequest  true  "Login payload"
// @Success      200 {object} APILoginResponse 	 "Authentication successful"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing required fields"
// @Failure      401 {object} echo.HTTPError     "Invalid credentials"
// @Failure      403 {object} echo.HTTPError     "Account locked or deactivated"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/auth/login [post]
func APILoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req APILoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid API login payload:", err)
		return echo.ErrBadRequest
	}

	if req.Username == "" || req.Password == "" {
		logger.Error("Username and password are required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "username and password fields are required",
		}
	}

	user, err := auth.Authenticate(db.Conn, req.Username, req.Password)
	if err != nil {
		return loginFailure(c, err)
	}

	device := "Unknown"
	if req.Device != nil && *req.Device != "" {
		device = *req.Device
	}

	rawKey, apiKey, err := issueAPIKey(db.Conn, user, "API Key - "+device, nil)
	if err != nil {
		logger.Errorf("Failed to issue API key: %v", err)
		return echo.ErrInternalServerError
	}

	resp := APILoginResponse{
		Message: "Authentication successful",
		APIKey:  rawKey,
		User:    userDetails(user, true),
	}
	if apiKey.ExpiresAt != nil {
		expiresAt := apiKey.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &expiresAt
	}

	logger.Infof("API login successful")
	return c.JSON(http.StatusOK, resp)
}

// GetCurrentUserHandler godoc
// @Summary      Get the key's owner
// @Description  Returns the user the presented API key belongs to.
// @Tags         api
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} GetCurrentUserResponse "User retrieved"
// @Failure      401 {object} echo.HTTPError     "Missing or invalid API key"
// @Failure      403 {object} echo.HTTPError     "Account deactivated"
// @Router       /api/auth/me [get]
func GetCurrentUserHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		c.Logger().Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, GetCurrentUserResponse{
		User: userDetails(user, true),
	})
}
