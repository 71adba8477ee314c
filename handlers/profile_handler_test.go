package handlers

import (
	"authgate-server/crypto"
	"authgate-server/db"
	"authgate-server/models"
	"encoding/json"
	"net/http"
	"testing"
)

func TestGetProfileHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodGet, "/auth/profile", "")
	c.Set("user", *user)
	invoke(c, GetProfileHandler)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.User.Email == nil || *resp.User.Email != "alice@example.com" {
		t.Error("Expected the user's own email in the profile")
	}
}

func TestUpdateProfileHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPut, "/auth/profile", `{"email":"New@Example.com"}`)
	c.Set("user", *user)
	invoke(c, UpdateProfileHandler)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored models.User
	db.Conn.First(&stored, user.ID)
	if stored.Email != "new@example.com" {
		t.Errorf("Expected email updated and lowercased, got %s", stored.Email)
	}
}

func TestUpdateProfileHandlerDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")
	createTestUser(t, "bob", "bob@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPut, "/auth/profile", `{"email":"bob@example.com"}`)
	c.Set("user", *user)
	invoke(c, UpdateProfileHandler)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
}

func TestUpdateProfileHandlerInvalidEmail(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPut, "/auth/profile", `{"email":"nope"}`)
	c.Set("user", *user)
	invoke(c, UpdateProfileHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestChangePasswordHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")
	current := createTestSessionRow(t, user)
	other := models.Session{Token: "st_other", ExpiresAt: current.ExpiresAt, UserID: user.ID}
	if err := db.Conn.Create(&other).Error; err != nil {
		t.Fatalf("Failed to create second session: %v", err)
	}

	c, rec := jsonContext(t, http.MethodPut, "/auth/change-password",
		`{"current_password":"Str0ng!Pass","new_password":"N3w!Passw0rd"}`)
	c.Set("user", *user)
	c.Set("session", current)
	invoke(c, ChangePasswordHandler)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored models.User
	db.Conn.First(&stored, user.ID)
	if err := crypto.NewCrypto().VerifyPassword("N3w!Passw0rd", stored.Password); err != nil {
		t.Errorf("Expected the new password to verify, got %v", err)
	}

	// The current session survives, every other one is revoked.
	var count int64
	db.Conn.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected only the current session to remain, got %d", count)
	}
	var remaining models.Session
	db.Conn.Where("user_id = ?", user.ID).First(&remaining)
	if remaining.ID != current.ID {
		t.Error("Expected the current session to be the survivor")
	}
}

func TestChangePasswordHandlerWrongCurrent(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPut, "/auth/change-password",
		`{"current_password":"wrong-password","new_password":"N3w!Passw0rd"}`)
	c.Set("user", *user)
	invoke(c, ChangePasswordHandler)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
}

func TestChangePasswordHandlerSameAsOld(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPut, "/auth/change-password",
		`{"current_password":"Str0ng!Pass","new_password":"Str0ng!Pass"}`)
	c.Set("user", *user)
	invoke(c, ChangePasswordHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestChangePasswordHandlerWeakNew(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice", "alice@example.com", "Str0ng!Pass")

	c, rec := jsonContext(t, http.MethodPut, "/auth/change-password",
		`{"current_password":"Str0ng!Pass","new_password":"weak"}`)
	c.Set("user", *user)
	invoke(c, ChangePasswordHandler)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	var stored models.User
	db.Conn.First(&stored, user.ID)
	if err := crypto.NewCrypto().VerifyPassword("Str0ng!Pass", stored.Password); err != nil {
		t.Error("Expected the old password to remain valid")
	}
}
