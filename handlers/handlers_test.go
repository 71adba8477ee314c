package handlers

import (
	"authgate-server/crypto"
	"authgate-server/db"
	"authgate-server/models"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("BCRYPT_COST", "4")
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	db.Conn = conn
}

func createTestUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := crypto.NewCrypto().HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		IsActive: true,
	}
	if err := db.Conn.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func createTestSessionRow(t *testing.T, user *models.User) models.Session {
	t.Helper()
	expiresAt := time.Now().Add(time.Hour)
	session := models.Session{
		Token:     "st_test_" + user.Username,
		ExpiresAt: &expiresAt,
		UserID:    user.ID,
	}
	if err := db.Conn.Create(&session).Error; err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return session
}

// jsonContext builds an echo context carrying a JSON body, with the handler's
// error (if any) rendered into the recorder the way the server would.
func jsonContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func invoke(c echo.Context, handler echo.HandlerFunc) {
	if err := handler(c); err != nil {
		c.Echo().HTTPErrorHandler(err, c)
	}
}
