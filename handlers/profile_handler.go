// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/crypto"
	"authgate-server/db"
	"authgate-server/middlewares"
	"authgate-server/models"
	"authgate-server/passwordcheck"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

func passwordPolicy(c echo.Context, password string) error {
	if err := passwordcheck.ValidatePassword(c.Request().Context(), password); err != nil {
		c.Logger().Error("Password rejected by policy:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}
	return nil
}

// GetProfileHandler godoc
// @Summary      Get the current user's profile
// @Description  Returns the profile of the logged-in user, including email.
// @Tags         profile
// @Produce      json
// @Security     SessionAuth
// @Success      200 {object} UserResponse 		 "Profile retrieved"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Router       /auth/profile [get]
func GetProfileHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		c.Logger().Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, UserResponse{
		User: userDetails(user, true),
	})
}

// UpdateProfileHandler godoc
// @Summary      Update the current user's profile
// @Description  Updates the email address of the logged-in user.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        updateProfileRequest  body  UpdateProfileRequest  true  "Profile payload"
// @Success      200 {object} UserResponse 		 "Profile updated"
// @Failure      400 {object} echo.HTTPError     "Bad request, invalid email"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      409 {object} echo.HTTPError     "Email already registered"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /auth/profile [put]
func UpdateProfileHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid profile update payload:", err)
		return echo.ErrBadRequest
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 120 {
		logger.Error("Email is not a valid address.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email must be a valid email address",
		}
	}

	if email != user.Email {
		var existing models.User
		if db.Conn.Where("email = ? AND id != ?", email, user.ID).First(&existing).RowsAffected > 0 {
			logger.Error("Email already registered to another user.")
			return &echo.HTTPError{
				Code:    http.StatusConflict,
				Message: "email already registered, please use a different email",
			}
		}
		user.Email = email
		if err := db.Conn.Model(user).Update("email", email).Error; err != nil {
			logger.Errorf("Failed to update email: %v", err)
			return echo.ErrInternalServerError
		}
	}

	logger.Infof("Profile updated successfully")
	return c.JSON(http.StatusOK, UserResponse{
		Message: "Your profile has been updated",
		User:    userDetails(user, true),
	})
}

// ChangePasswordHandler godoc
// @Summary      Change the current user's password
// @Description  Verifies the current password, then replaces it with a new one meeting the password policy. Other sessions of the user are revoked.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "Password change payload"
// @Success      200 {object} GenericResponse 	 "Password changed"
// @Failure      400 {object} echo.HTTPError     "Bad request, weak password or missing fields"
// @Failure      401 {object} echo.HTTPError     "Current password is incorrect"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /auth/change-password [put]
func ChangePasswordHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid password change payload:", err)
		return echo.ErrBadRequest
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		logger.Error("Current and new password are required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "current_password and new_password fields are required",
		}
	}
	if req.NewPassword == req.CurrentPassword {
		logger.Error("New password matches the current one.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "new password must be different from the current password",
		}
	}

	newCrypto := crypto.NewCrypto()
	if err := newCrypto.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		logger.Error("Current password verification failed.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Current password is incorrect",
		}
	}

	if err := passwordPolicy(c, req.NewPassword); err != nil {
		return err
	}

	hash, err := newCrypto.HashPassword(req.NewPassword)
	if err != nil {
		logger.Errorf("Failed to hash new password: %v", err)
		return echo.ErrInternalServerError
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(user).Update("password", hash).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to update password: %v", err)
		return echo.ErrInternalServerError
	}

	if session, ok := c.Get("session").(models.Session); ok {
		if err := deleteOtherSessions(tx, user.ID, session.ID); err != nil {
			tx.Rollback()
			logger.Errorf("Failed to revoke other sessions: %v", err)
			return echo.ErrInternalServerError
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("Password changed successfully")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Your password has been changed",
	})
}
