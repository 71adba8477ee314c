// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/db"
	"authgate-server/middlewares"
	"authgate-server/models"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ListUsersHandler godoc
// @Summary      List all users
// @Description  Returns every user account, including emails. Admin only.
// @Tags         admin
// @Produce      json
// @Security     SessionAuth
// @Success      200 {object} UserListResponse 	 "Users retrieved"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      403 {object} echo.HTTPError     "Not an admin"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/users [get]
func ListUsersHandler(c echo.Context) error {
	logger := c.Logger()

	var users []models.User
	if err := db.Conn.Order("id ASC").Find(&users).Error; err != nil {
		logger.Errorf("Failed to list users: %v", err)
		return echo.ErrInternalServerError
	}

	resp := UserListResponse{
		Users: make([]UserDetails, 0, len(users)),
		Total: len(users),
	}
	for i := range users {
		resp.Users = append(resp.Users, userDetails(&users[i], true))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetUserHandler godoc
// @Summary      Get a user
// @Description  Returns one user account by ID. Admin only.
// @Tags         admin
// @Produce      json
// @Security     SessionAuth
// @Param        user_id  path  int  true  "User ID"
// @Success      200 {object} UserResponse 		 "User retrieved"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      403 {object} echo.HTTPError     "Not an admin"
// @Failure      404 {object} echo.HTTPError     "User not found"
// @Router       /api/users/{user_id} [get]
func GetUserHandler(c echo.Context) error {
	logger := c.Logger()

	var user models.User
	err := db.Conn.Where("id = ?", c.Param("user_id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("User not found.")
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "User not found",
		}
	}
	if err != nil {
		logger.Errorf("Failed to load user: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, UserResponse{
		User: userDetails(&user, true),
	})
}

// UpdateUserHandler godoc
// @Summary      Update a user
// @Description  Changes the active flag, admin flag or email of a user. Only fields present in the payload are touched. Admin only.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        user_id  path  int  true  "User ID"
// @Param        updateUserRequest  body  UpdateUserRequest  true  "Fields to update"
// @Success      200 {object} UserResponse 		 "User updated"
// @Failure      400 {object} echo.HTTPError     "Bad request, invalid email"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      403 {object} echo.HTTPError     "Not an admin"
// @Failure      404 {object} echo.HTTPError     "User not found"
// @Failure      409 {object} echo.HTTPError     "Email already registered"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/users/{user_id} [put]
func UpdateUserHandler(c echo.Context) error {
	logger := c.Logger()

	var user models.User
	err := db.Conn.Where("id = ?", c.Param("user_id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("User not found.")
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "User not found",
		}
	}
	if err != nil {
		logger.Errorf("Failed to load user: %v", err)
		return echo.ErrInternalServerError
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid user update payload:", err)
		return echo.ErrBadRequest
	}

	updates := map[string]any{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
		user.IsActive = *req.IsActive
	}
	if req.IsAdmin != nil {
		updates["is_admin"] = *req.IsAdmin
		user.IsAdmin = *req.IsAdmin
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil || len(email) > 120 {
			logger.Error("Email is not a valid address.")
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "email must be a valid email address",
			}
		}
		var existing models.User
		if db.Conn.Where("email = ? AND id != ?", email, user.ID).First(&existing).RowsAffected > 0 {
			logger.Error("Email already registered to another user.")
			return &echo.HTTPError{
				Code:    http.StatusConflict,
				Message: "email already registered, please use a different email",
			}
		}
		updates["email"] = email
		user.Email = email
	}

	if len(updates) > 0 {
		if err := db.Conn.Model(&user).Updates(updates).Error; err != nil {
			logger.Errorf("Failed to update user: %v", err)
			return echo.ErrInternalServerError
		}
	}

	logger.Infof("User updated successfully")
	return c.JSON(http.StatusOK, UserResponse{
		Message: "User updated successfully",
		User:    userDetails(&user, true),
	})
}

// DeleteUserHandler godoc
// @Summary      Delete a user
// @Description  Removes a user account together with its sessions and API keys. Admins cannot delete their own account. Admin only.
// @Tags         admin
// @Produce      json
// @Security     SessionAuth
// @Param        user_id  path  int  true  "User ID"
// @Success      200 {object} GenericResponse 	 "User deleted"
// @Failure      400 {object} echo.HTTPError     "Attempted self-deletion"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      403 {object} echo.HTTPError     "Not an admin"
// @Failure      404 {object} echo.HTTPError     "User not found"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/users/{user_id} [delete]
func DeleteUserHandler(c echo.Context) error {
	logger := c.Logger()

	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}

	var user models.User
	err = db.Conn.Where("id = ?", c.Param("user_id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("User not found.")
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "User not found",
		}
	}
	if err != nil {
		logger.Errorf("Failed to load user: %v", err)
		return echo.ErrInternalServerError
	}

	if user.ID == admin.ID {
		logger.Error("Admin attempted to delete their own account.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "You cannot delete your own account",
		}
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete user sessions: %v", err)
		return echo.ErrInternalServerError
	}
	if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.APIKey{}).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete user API keys: %v", err)
		return echo.ErrInternalServerError
	}
	if err := tx.Unscoped().Delete(&user).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete user: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("User deleted successfully")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "User deleted successfully",
	})
}
