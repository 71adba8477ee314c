// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/auth"
	"authgate-server/commons"
	"authgate-server/crypto"
	"authgate-server/db"
	"authgate-server/middlewares"
	"authgate-server/models"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	sessionLifetime    = time.Hour
	rememberMeLifetime = 30 * 24 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func createSession(c echo.Context, user *models.User, lifetime time.Duration) (string, error) {
	logger := c.Logger()

	sessionToken, err := crypto.GenerateRandomString("st_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate session token: %v", err)
		return "", err
	}

	sessionExp := time.Now().Add(lifetime)
	sessionLastUsed := time.Now()
	session := models.Session{
		Token:      sessionToken,
		LastUsedAt: &sessionLastUsed,
		ExpiresAt:  &sessionExp,
		UserID:     user.ID,
	}
	if err := db.Conn.Create(&session).Error; err != nil {
		logger.Errorf("Failed to create session: %v", err)
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "authgate-server",
		"iat": time.Now().Unix(),
		"sub": user.Username,
		"jti": sessionToken,
		"sid": session.ID,
		"uid": user.ID,
		"exp": session.ExpiresAt.Unix(),
	})
	tokenString, err := token.SignedString([]byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")))
	if err != nil {
		logger.Errorf("Failed to sign token: %v", err)
		return "", err
	}

	return tokenString, nil
}

func setSessionCookie(c echo.Context, tokenString string, lifetime time.Duration, persistent bool) {
	cookie := &http.Cookie{
		Name:     middlewares.SessionCookieName,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   commons.GetEnv("SESSION_COOKIE_SECURE", "false") == "true",
	}
	if persistent {
		cookie.MaxAge = int(lifetime.Seconds())
	}
	c.SetCookie(cookie)
}

// RegisterHandler godoc
// @Summary      Register a new user
// @Description  Creates a new user account with strong password requirements.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body  RegisterRequest  true  "Registration payload"
// @Success      201 {object} GenericResponse 	 "Registration successful"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing or invalid fields"
// @Failure      409 {object} echo.HTTPError     "Duplicate username or email"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /auth/register [post]
func RegisterHandler(c echo.Context) error {
	logger := c.Logger()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid registration request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Username == "" {
		logger.Error("Username is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "username field is required",
		}
	}
	if len(req.Username) < 3 || len(req.Username) > 80 {
		logger.Error("Username length out of range.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "username must be between 3 and 80 characters",
		}
	}
	if !usernamePattern.MatchString(req.Username) {
		logger.Error("Username contains invalid characters.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "username can only contain letters, numbers, underscores, and hyphens",
		}
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 120 {
		logger.Error("Email is not a valid address.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email must be a valid email address",
		}
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}
	if req.Password2 != "" && req.Password2 != req.Password {
		logger.Error("Password confirmation does not match.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "passwords must match",
		}
	}

	if err := passwordPolicy(c, req.Password); err != nil {
		return err
	}

	if count := db.Conn.Where("username = ?", req.Username).First(&models.User{}).RowsAffected; count > 0 {
		logger.Error("Username already taken.")
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "username already taken, please choose a different one",
		}
	}
	if count := db.Conn.Where("email = ?", email).First(&models.User{}).RowsAffected; count > 0 {
		logger.Error("Email already registered.")
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "email already registered, please use a different email or login",
		}
	}

	newCrypto := crypto.NewCrypto()
	hash, err := newCrypto.HashPassword(req.Password)
	if err != nil {
		logger.Errorf("Failed to hash password: %v", err)
		return echo.ErrInternalServerError
	}

	user := models.User{
		Username: req.Username,
		Email:    email,
		Password: hash,
		IsActive: true,
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	// The unique indexes on username and email close the race between the
	// checks above and this insert.
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to create user: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("User registered successfully")
	return c.JSON(http.StatusCreated, GenericResponse{
		Message: "Registration successful! You can now log in.",
	})
}

// LoginHandler godoc
// @Summary      Login a user
// @Description  Authenticates a user with username or email, establishes a session cookie and redirects to the dashboard.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        loginRequest  body  LoginRequest  true  "Login payload"
// @Success      303 "Login successful, redirect to dashboard"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing required fields"
// @Failure      401 {object} echo.HTTPError     "Invalid credentials"
// @Failure      403 {object} echo.HTTPError     "Account locked or deactivated"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /auth/login [post]
func LoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid login request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Username == "" {
		logger.Error("Username or email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "username field is required",
		}
	}
	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	user, err := auth.Authenticate(db.Conn, req.Username, req.Password)
	if err != nil {
		return loginFailure(c, err)
	}

	lifetime := sessionLifetime
	if req.RememberMe {
		lifetime = rememberMeLifetime
	}
	tokenString, err := createSession(c, user, lifetime)
	if err != nil {
		return echo.ErrInternalServerError
	}
	setSessionCookie(c, tokenString, lifetime, req.RememberMe)

	// Only same-site paths are honored; anything else (absolute URLs,
	// protocol-relative //host forms) falls back to the dashboard.
	next := c.QueryParam("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}
	logger.Infof("User logged in successfully")
	return c.Redirect(http.StatusSeeOther, next)
}

// loginFailure maps authentication errors onto HTTP responses. Invalid
// credentials stay generic; locked and deactivated accounts are named, which
// matches the original behavior of distinguishing them once a user matched.
func loginFailure(c echo.Context, err error) error {
	logger := c.Logger()
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		logger.Error("Login failed: invalid credentials.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid username/email or password",
		}
	case errors.Is(err, auth.ErrAccountLocked):
		logger.Error("Login rejected: account is locked.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Your account is temporarily locked due to multiple failed login attempts. Please try again later.",
		}
	case errors.Is(err, auth.ErrAccountDeactivated):
		logger.Error("Login rejected: account is deactivated.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Your account has been deactivated. Please contact support.",
		}
	default:
		logger.Errorf("Login failed: %v", err)
		return echo.ErrInternalServerError
	}
}

// LogoutHandler godoc
// @Summary      Logout a user
// @Description  Deletes the current session and clears the session cookie.
// @Tags         auth
// @Produce      json
// @Security     SessionAuth
// @Success      204 "Logout successful"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /auth/logout [post]
func LogoutHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := c.Get("session").(models.Session)
	if !ok {
		logger.Error("Session not found in context.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired session token, please login again",
		}
	}

	if err := db.Conn.Unscoped().Delete(&session).Error; err != nil {
		logger.Errorf("Failed to delete session: %v", err)
		return echo.ErrInternalServerError
	}

	c.SetCookie(&http.Cookie{
		Name:     middlewares.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	logger.Infof("User logged out successfully")
	return c.NoContent(http.StatusNoContent)
}

// deleteOtherSessions removes every session of the user except the one the
// request came in on, so a password change invalidates stolen sessions.
func deleteOtherSessions(tx *gorm.DB, userID uint, keepSessionID uint) error {
	return tx.Unscoped().
		Where("user_id = ? AND id != ?", userID, keepSessionID).
		Delete(&models.Session{}).Error
}
