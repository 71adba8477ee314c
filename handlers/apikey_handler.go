// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/crypto"
	"authgate-server/db"
	"authgate-server/middlewares"
	"authgate-server/models"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// issueAPIKey mints a new key for the user. The returned raw value is the
// only copy that ever exists in plaintext; the database keeps the public
// key_id for lookup and an argon2id hash of the full value for verification.
func issueAPIKey(conn *gorm.DB, user *models.User, name string, expiresAt *time.Time) (string, *models.APIKey, error) {
	keyID, err := crypto.GenerateRandomString("ak_", 16, "hex")
	if err != nil {
		return "", nil, err
	}
	secret, err := crypto.GenerateRandomString("", 32, "hex")
	if err != nil {
		return "", nil, err
	}
	rawKey := keyID + secret

	newCrypto := crypto.NewCrypto()
	hashedKey, err := newCrypto.HashAPIKey(rawKey)
	if err != nil {
		return "", nil, err
	}

	apiKey := models.APIKey{
		KeyID:     keyID,
		HashedKey: hashedKey,
		Name:      name,
		IsActive:  true,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
	}
	if err := conn.Create(&apiKey).Error; err != nil {
		return "", nil, err
	}
	return rawKey, &apiKey, nil
}

// ListAPIKeysHandler godoc
// @Summary      List the caller's API keys
// @Description  Returns metadata for every key owned by the logged-in user. Raw key values are never included.
// @Tags         apikeys
// @Produce      json
// @Security     SessionAuth
// @Success      200 {object} APIKeyListResponse "API keys retrieved"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/keys [get]
func ListAPIKeysHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}

	var keys []models.APIKey
	if err := db.Conn.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&keys).Error; err != nil {
		logger.Errorf("Failed to list API keys: %v", err)
		return echo.ErrInternalServerError
	}

	resp := APIKeyListResponse{Keys: make([]APIKeyDetails, 0, len(keys))}
	for i := range keys {
		resp.Keys = append(resp.Keys, apiKeyDetails(&keys[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateAPIKeyHandler godoc
// @Summary      Create an API key
// @Description  Mints a new API key for the logged-in user. The raw key is returned once and cannot be retrieved again.
// @Tags         apikeys
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        createAPIKeyRequest  body  CreateAPIKeyRequest  true  "API key payload"
// @Success      201 {object} CreateAPIKeyResponse "API key created"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing name or invalid expiry"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/keys [post]
func CreateAPIKeyHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}

	var req CreateAPIKeyRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid API key creation payload:", err)
		return echo.ErrBadRequest
	}

	if req.Name == "" {
		logger.Error("API key name is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "name field is required",
		}
	}
	if len(req.Name) > 100 {
		logger.Error("API key name too long.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "name must be at most 100 characters",
		}
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		parsed, err := parseExpiry(*req.ExpiresAt)
		if err != nil {
			logger.Error("Invalid expiry date:", err)
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "expires_at must be an RFC 3339 timestamp or a YYYY-MM-DD date",
			}
		}
		expiresAt = &parsed
	}

	rawKey, apiKey, err := issueAPIKey(db.Conn, user, req.Name, expiresAt)
	if err != nil {
		logger.Errorf("Failed to create API key: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("API key created successfully")
	return c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		Message: "API key created successfully",
		APIKey:  rawKey,
		KeyInfo: apiKeyDetails(apiKey),
		Warning: "Save this key now. You will not be able to see it again.",
	})
}

func parseExpiry(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// RevokeAPIKeyHandler godoc
// @Summary      Revoke an API key
// @Description  Deactivates and removes one of the caller's API keys. Keys of other users are invisible here.
// @Tags         apikeys
// @Produce      json
// @Security     SessionAuth
// @Param        key_id  path  int  true  "API key record ID"
// @Success      200 {object} GenericResponse 	 "API key revoked"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      404 {object} echo.HTTPError     "API key not found"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /api/keys/{key_id} [delete]
func RevokeAPIKeyHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return echo.ErrUnauthorized
	}

	var apiKey models.APIKey
	err = db.Conn.Where("id = ? AND user_id = ?", c.Param("key_id"), user.ID).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("API key not found for this user.")
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "API key not found",
		}
	}
	if err != nil {
		logger.Errorf("Failed to load API key: %v", err)
		return echo.ErrInternalServerError
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(&apiKey).Update("is_active", false).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to deactivate API key: %v", err)
		return echo.ErrInternalServerError
	}
	if err := tx.Delete(&apiKey).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete API key: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("API key revoked successfully")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "API key revoked successfully",
	})
}
