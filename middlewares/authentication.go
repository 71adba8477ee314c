// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"authgate-server/crypto"
	"authgate-server/db"
	"authgate-server/models"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader is the header carrying the raw API key.
const APIKeyHeader = "X-API-Key"

// keyIDLength is the length of the indexed key identifier prefix of a raw
// key: "ak_" plus 16 random bytes hex encoded. The remainder of the raw
// value is the secret, which exists in the database only as a hash.
const keyIDLength = 35

func VerifyAPIKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		apiKeyValue := c.Request().Header.Get(APIKeyHeader)
		if apiKeyValue == "" {
			logger.Error("API key header missing.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Please provide an API key in the X-API-Key header",
			}
		}

		invalidKeyErr := &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "The provided API key is invalid or has expired",
		}

		if !strings.HasPrefix(apiKeyValue, "ak_") || len(apiKeyValue) < keyIDLength {
			logger.Error("API key has invalid format.")
			return invalidKeyErr
		}

		apiKey := models.APIKey{}
		keyID := apiKeyValue[:keyIDLength]
		if err := db.Conn.Where("key_id = ? AND is_active = ?", keyID, true).First(&apiKey).Error; err != nil {
			logger.Error("API key not found or inactive.")
			return invalidKeyErr
		}

		// Expiry is enforced here, not by a background job.
		if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
			logger.Error("API key expired.")
			return invalidKeyErr
		}

		newCrypto := crypto.NewCrypto()
		if err := newCrypto.VerifyAPIKey(apiKeyValue, apiKey.HashedKey); err != nil {
			logger.Error("API key verification failed.")
			return invalidKeyErr
		}

		var user models.User
		if err := db.Conn.Where("id = ?", apiKey.UserID).First(&user).Error; err != nil {
			logger.Error("API key owner not found: ", err)
			return invalidKeyErr
		}

		if !user.IsActive {
			logger.Error("API key owner account is deactivated.")
			return &echo.HTTPError{
				Code:    http.StatusForbidden,
				Message: "Your account has been deactivated",
			}
		}

		now := time.Now()
		apiKey.LastUsedAt = &now
		if err := db.Conn.Save(&apiKey).Error; err != nil {
			logger.Error("Failed to update API key LastUsedAt: ", err)
		}

		c.Set("api_key", apiKey)
		c.Set("user", user)
		return next(c)
	}
}
