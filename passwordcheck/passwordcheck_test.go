package passwordcheck

import (
	"context"
	"strings"
	"testing"
)

func TestValidPasswordPasses(t *testing.T) {
	if err := ValidatePassword(context.Background(), "Str0ng!Pass"); err != nil {
		t.Errorf("Expected password to pass, got %v", err)
	}
}

func TestShortPasswordFails(t *testing.T) {
	err := ValidatePassword(context.Background(), "S1!a")
	if err == nil {
		t.Fatal("Expected short password to fail")
	}
	if !strings.Contains(err.Error(), "at least 8 characters") {
		t.Errorf("Expected length violation in message, got %v", err)
	}
}

func TestMissingClassesAreAllReported(t *testing.T) {
	err := ValidatePassword(context.Background(), "alllowercase")
	if err == nil {
		t.Fatal("Expected weak password to fail")
	}
	for _, want := range []string{"uppercase", "digit", "special"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q violation in message, got %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "lowercase") {
		t.Errorf("Did not expect a lowercase violation, got %v", err)
	}
}

func TestConfigurableMinLength(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LENGTH", "16")
	err := ValidatePassword(context.Background(), "Str0ng!Pass")
	if err == nil {
		t.Fatal("Expected password below the configured length to fail")
	}
	if !strings.Contains(err.Error(), "at least 16 characters") {
		t.Errorf("Expected configured length in message, got %v", err)
	}
}
