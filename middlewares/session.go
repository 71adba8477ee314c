// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"authgate-server/commons"
	"authgate-server/db"
	"authgate-server/models"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SessionCookieName is the cookie carrying the session token for browser
// clients. API clients may send the same token as a bearer header instead.
const SessionCookieName = "session_token"

func sessionTokenFromRequest(c echo.Context) string {
	if after, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func VerifySessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		sessionToken := sessionTokenFromRequest(c)
		if sessionToken == "" {
			logger.Error("Session token missing from cookie and Authorization header.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Authentication is required, please login",
			}
		}

		token, err := jwt.Parse(sessionToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")), nil
		})
		if err != nil || !token.Valid {
			logger.Error("JWT Failed to parse or is invalid: ", err)
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			logger.Error("Failed to parse JWT claims.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		sessionID := claims["sid"]
		userID := claims["uid"]
		tokenID := claims["jti"]

		session := models.Session{}
		err = db.Conn.Where("id = ? AND user_id = ? AND token = ?", sessionID, userID, tokenID).First(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Session not found.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Invalid or expired session token, please login again",
				}
			}
			logger.Error("Failed to load session: ", err)
			return echo.ErrInternalServerError
		}

		// A session without an expiry is treated as expired.
		if session.ExpiresAt == nil || session.ExpiresAt.Before(time.Now()) {
			logger.Error("Session expired.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		var user models.User
		if err := db.Conn.Where("id = ?", session.UserID).First(&user).Error; err != nil {
			logger.Error("Session user not found: ", err)
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		if !user.IsActive {
			logger.Error("Session user account is deactivated.")
			return &echo.HTTPError{
				Code:    http.StatusForbidden,
				Message: "Your account has been deactivated",
			}
		}

		now := time.Now()
		session.LastUsedAt = &now
		if err := db.Conn.Save(&session).Error; err != nil {
			logger.Error("Failed to update session LastUsedAt: ", err)
		}

		c.Set("session", session)
		c.Set("user", user)
		return next(c)
	}
}

// GetAuthenticatedUser returns the user resolved by the session or API-key
// middleware for this request.
func GetAuthenticatedUser(c echo.Context) (*models.User, error) {
	if user, ok := c.Get("user").(models.User); ok {
		return &user, nil
	}
	return nil, errors.New("no authenticated user found")
}
