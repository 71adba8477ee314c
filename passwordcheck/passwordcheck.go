// SPDX-License-Identifier: GPL-3.0-only

package passwordcheck

import (
	"authgate-server/commons"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode"
)

// ValidatePassword enforces the password policy: a configurable minimum
// length plus at least one uppercase letter, lowercase letter, digit and
// special character. All violations are reported in a single message.
func ValidatePassword(ctx context.Context, password string) error {
	minLength := 8
	if v := commons.GetEnv("PASSWORD_MIN_LENGTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			minLength = i
		}
	}

	var missing []string
	if len([]rune(password)) < minLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", minLength))
	}
	if !containsClass(password, unicode.IsUpper) {
		missing = append(missing, "at least one uppercase letter")
	}
	if !containsClass(password, unicode.IsLower) {
		missing = append(missing, "at least one lowercase letter")
	}
	if !containsClass(password, unicode.IsDigit) {
		missing = append(missing, "at least one digit")
	}
	if !containsClass(password, isSpecialChar) {
		missing = append(missing, "at least one special character")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain %s", strings.Join(missing, ", "))
	}

	if commons.GetEnv("PWNED_PASSWORDS_ENABLED", "false") == "true" {
		pwned, err := checkPasswordPwned(ctx, password)
		if err != nil {
			commons.Logger.Error("Error checking pwned passwords:", err)
		}
		if pwned {
			return errors.New("password has been found in data breaches (pwned); choose a different one")
		}
	}

	return nil
}

func checkPasswordPwned(ctx context.Context, password string) (bool, error) {
	hasher := sha1.New()
	hasher.Write([]byte(password))
	hash := strings.ToUpper(hex.EncodeToString(hasher.Sum(nil)))

	prefix, suffix := hash[:5], hash[5:]
	url := fmt.Sprintf("https://api.pwnedpasswords.com/range/%s", prefix)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("HIBP API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read HIBP response: %w", err)
	}

	for _, line := range strings.Split(string(body), "\n") {
		if parts := strings.Split(line, ":"); len(parts) == 2 {
			if strings.TrimSpace(parts[0]) == suffix {
				return true, nil
			}
		}
	}
	return false, nil
}

func containsClass(s string, match func(rune) bool) bool {
	for _, r := range s {
		if match(r) {
			return true
		}
	}
	return false
}

func isSpecialChar(r rune) bool {
	return unicode.IsSymbol(r) || unicode.IsPunct(r)
}
