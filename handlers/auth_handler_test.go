package handlers

import (
	"authgate-server/db"
	"authgate-server/lockout"
	"authgate-server/middlewares"
	"authgate-server/models"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestRegisterHandlerSuccess(t *testing.T) {
	setupTestDB(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"Alice@Example.com","password":"Str0ng!Pass","password2":"Str0ng!Pass"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	if err := db.Conn.Where("username = ?", "alice").First(&user).Error; err != nil {
		t.Fatalf("Expected user to be created: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Expected email lowercased, got %s", user.Email)
	}
	if user.Password == "Str0ng!Pass" {
		t.Error("Expected password to be stored hashed")
	}
	if !user.IsActive || user.IsAdmin {
		t.Error("Expected new user to be active and non-admin")
	}
}

func TestRegisterHandlerDuplicateUsername(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"other@example.com","password":"Str0ng!Pass"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "username") {
		t.Errorf("Expected the message to name the username field, got %s", rec.Body.String())
	}
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"bob","email":"ALICE@example.com","password":"Str0ng!Pass"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email") {
		t.Errorf("Expected the message to name the email field, got %s", rec.Body.String())
	}
}

func TestRegisterHandlerWeakPassword(t *testing.T) {
	setupTestDB(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"weak"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestRegisterHandlerPasswordMismatch(t *testing.T) {
	setupTestDB(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Str0ng!Pass","password2":"Different1!"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestRegisterHandlerInvalidUsername(t *testing.T) {
	setupTestDB(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"bad user!","email":"alice@example.com","password":"Str0ng!Pass"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestRegisterHandlerInvalidEmail(t *testing.T) {
	setupTestDB(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"not-an-email","password":"Str0ng!Pass"}`)
	invoke(c, RegisterHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestLoginHandlerSuccess(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"Str0ng!Pass"}`)
	invoke(c, LoginHandler)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Expected redirect to /dashboard, got %s", loc)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middlewares.SessionCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("Expected a session cookie to be set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("Expected the session cookie to be HttpOnly")
	}
	if sessionCookie.MaxAge != 0 {
		t.Error("Expected a session-scoped cookie without remember_me")
	}

	var count int64
	db.Conn.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected one session row, got %d", count)
	}
}

func TestLoginHandlerRememberMe(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"Str0ng!Pass","remember_me":true}`)
	invoke(c, LoginHandler)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d", rec.Code)
	}
	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middlewares.SessionCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("Expected a session cookie to be set")
	}
	if sessionCookie.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
		t.Errorf("Expected a 30 day persistent cookie, got MaxAge %d", sessionCookie.MaxAge)
	}

	var session models.Session
	if err := db.Conn.First(&session).Error; err != nil {
		t.Fatalf("Expected a session row: %v", err)
	}
	if session.ExpiresAt.Before(time.Now().Add(29 * 24 * time.Hour)) {
		t.Errorf("Expected a 30 day session, got expiry %v", session.ExpiresAt)
	}
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrong-password"}`)
	invoke(c, LoginHandler)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}

	var stored models.User
	db.Conn.First(&stored, user.ID)
	if stored.FailedLoginAttempts != 1 {
		t.Errorf("Expected the failure to be recorded, got %d attempts", stored.FailedLoginAttempts)
	}
}

func TestLoginHandlerLockedAccount(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")
	lockedUntil := time.Now().Add(lockout.LockDuration)
	if err := db.Conn.Model(user).Updates(map[string]any{
		"failed_login_attempts": lockout.MaxFailedAttempts,
		"account_locked_until":  lockedUntil,
	}).Error; err != nil {
		t.Fatalf("Failed to lock user: %v", err)
	}

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"Str0ng!Pass"}`)
	invoke(c, LoginHandler)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "locked") {
		t.Errorf("Expected a lock message, got %s", rec.Body.String())
	}
}

func TestLoginHandlerDeactivatedAccount(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")
	if err := db.Conn.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("Failed to deactivate user: %v", err)
	}

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"Str0ng!Pass"}`)
	invoke(c, LoginHandler)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "deactivated") {
		t.Errorf("Expected a deactivation message, got %s", rec.Body.String())
	}
}

func TestLoginHandlerNextRedirect(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/login?next=/profile",
		`{"username":"alice","password":"Str0ng!Pass"}`)
	invoke(c, LoginHandler)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/profile" {
		t.Errorf("Expected redirect to /profile, got %s", loc)
	}
}

func TestLoginHandlerRejectsExternalRedirect(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/auth/login?next=https://evil.example.com",
		`{"username":"alice","password":"Str0ng!Pass"}`)
	invoke(c, LoginHandler)

	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Expected external next to fall back to /dashboard, got %s", loc)
	}
}

func TestLogoutHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")
	session := createTestSessionRow(t, user)

	c, rec := jsonContext(t, http.MethodPost, "/auth/logout", "")
	c.Set("session", session)
	c.Set("user", *user)
	invoke(c, LogoutHandler)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	var count int64
	db.Conn.Unscoped().Model(&models.Session{}).Where("id = ?", session.ID).Count(&count)
	if count != 0 {
		t.Error("Expected the session row to be removed")
	}

	var cleared *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middlewares.SessionCookieName {
			cleared = cookie
		}
	}
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("Expected the session cookie to be cleared")
	}
}

func TestAPILoginHandlerIssuesKey(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"Str0ng!Pass","device":"CLI on laptop"}`)
	invoke(c, APILoginHandler)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp APILoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.HasPrefix(resp.APIKey, "ak_") {
		t.Errorf("Expected an ak_ prefixed key, got %s", resp.APIKey)
	}
	if resp.User.Username != "alice" {
		t.Errorf("Expected user alice, got %s", resp.User.Username)
	}
	if resp.User.Email == nil || *resp.User.Email != "alice@example.com" {
		t.Error("Expected the user's own email in the response")
	}

	var apiKey models.APIKey
	if err := db.Conn.Where("user_id = ?", user.ID).First(&apiKey).Error; err != nil {
		t.Fatalf("Expected a stored API key: %v", err)
	}
	if apiKey.Name != "API Key - CLI on laptop" {
		t.Errorf("Expected device label in the key name, got %s", apiKey.Name)
	}
	if apiKey.HashedKey == resp.APIKey {
		t.Error("Expected the stored key to be hashed")
	}
}

func TestAPILoginHandlerMissingFields(t *testing.T) {
	setupTestDB(t)

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/login", `{"username":"alice"}`)
	invoke(c, APILoginHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestAPILoginHandlerWrongPassword(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"wrong-password"}`)
	invoke(c, APILoginHandler)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
}
