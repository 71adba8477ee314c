// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"authgate-server/models"
	"time"
)

// userDetails shapes a user for API responses. The password hash is never
// exposed; the email only when the caller may see it.
func userDetails(user *models.User, includeEmail bool) UserDetails {
	details := UserDetails{
		ID:        user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLogin != nil {
		lastLogin := user.LastLogin.Format(time.RFC3339)
		details.LastLogin = &lastLogin
	}
	if includeEmail {
		email := user.Email
		details.Email = &email
	}
	return details
}

func apiKeyDetails(key *models.APIKey) APIKeyDetails {
	details := APIKeyDetails{
		ID:        key.ID,
		Name:      key.Name,
		IsActive:  key.IsActive,
		CreatedAt: key.CreatedAt.Format(time.RFC3339),
	}
	if key.ExpiresAt != nil {
		expiresAt := key.ExpiresAt.Format(time.RFC3339)
		details.ExpiresAt = &expiresAt
	}
	if key.LastUsedAt != nil {
		lastUsed := key.LastUsedAt.Format(time.RFC3339)
		details.LastUsed = &lastUsed
	}
	return details
}
