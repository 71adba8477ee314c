// SPDX-License-Identifier: GPL-3.0-only

package handlers

// swagger:model RegisterRequest
type RegisterRequest struct {
	// Desired username (letters, digits, underscores and hyphens)
	// required: true
	Username string `json:"username" form:"username" example:"alice"`
	// User's email address
	// required: true
	Email string `json:"email" form:"email" example:"alice@example.com"`
	// User's password
	// required: true
	Password string `json:"password" form:"password" example:"Str0ng!Pass"`
	// Password confirmation; must match password when present
	Password2 string `json:"password2" form:"password2" example:"Str0ng!Pass"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	// Username or email address
	Username string `json:"username" form:"username" example:"alice"`
	// User's password
	Password string `json:"password" form:"password" example:"Str0ng!Pass"`
	// Keep the session alive for 30 days instead of one hour
	RememberMe bool `json:"remember_me" form:"remember_me" example:"false"`
}

// swagger:model APILoginRequest
type APILoginRequest struct {
	// Username or email address
	Username string `json:"username" example:"alice"`
	// User's password
	Password string `json:"password" example:"Str0ng!Pass"`
	// Optional device label recorded on the issued key
	Device *string `json:"device" example:"CLI on laptop"`
}

// swagger:model UserDetails
type UserDetails struct {
	// Unique identifier for the user
	ID uint `json:"id" example:"1"`
	// Username
	Username string `json:"username" example:"alice"`
	// Email address; only present on responses for the user themselves or an admin
	Email *string `json:"email,omitempty" example:"alice@example.com"`
	// Whether the user has admin privileges
	IsAdmin bool `json:"is_admin" example:"false"`
	// Whether the account is active
	IsActive bool `json:"is_active" example:"true"`
	// Timestamp of account creation
	CreatedAt string `json:"created_at" example:"2023-10-01T12:00:00Z"`
	// Timestamp of the last successful login
	LastLogin *string `json:"last_login" example:"2023-10-01T12:00:00Z"`
}

// swagger:model APILoginResponse
type APILoginResponse struct {
	// Message indicating successful authentication
	Message string `json:"message" example:"Authentication successful"`
	// The raw API key. It is shown exactly once and cannot be recovered later.
	APIKey string `json:"api_key" example:"ak_jkdfkjdfkdfjkd..."`
	// The authenticated user
	User UserDetails `json:"user"`
	// Expiration timestamp of the key, if any
	ExpiresAt *string `json:"expires_at" example:"2024-12-31T00:00:00Z"`
}

// swagger:model GetCurrentUserResponse
type GetCurrentUserResponse struct {
	// The authenticated user
	User UserDetails `json:"user"`
}

// swagger:model APIKeyDetails
type APIKeyDetails struct {
	// Identifier of the API key record
	ID uint `json:"id" example:"1"`
	// Name of the API key
	Name string `json:"name" example:"Production API Key"`
	// Whether the key is active
	IsActive bool `json:"is_active" example:"true"`
	// Timestamp of when the key was created
	CreatedAt string `json:"created_at" example:"2023-10-01T12:00:00Z"`
	// Expiration timestamp of the key, if any
	ExpiresAt *string `json:"expires_at" example:"2024-12-31T00:00:00Z"`
	// Last used timestamp of the key
	LastUsed *string `json:"last_used" example:"2023-10-01T12:00:00Z"`
}

// swagger:model APIKeyListResponse
type APIKeyListResponse struct {
	// List of the caller's API keys
	Keys []APIKeyDetails `json:"keys"`
}

// swagger:model CreateAPIKeyRequest
type CreateAPIKeyRequest struct {
	// Name of the API key
	// required: true
	Name string `json:"name" example:"Production API Key"`
	// Optional expiration date (RFC 3339 or YYYY-MM-DD)
	ExpiresAt *string `json:"expires_at" example:"2024-12-31"`
}

// swagger:model CreateAPIKeyResponse
type CreateAPIKeyResponse struct {
	// Message indicating successful creation
	Message string `json:"message" example:"API key created successfully"`
	// The raw API key, shown exactly once
	APIKey string `json:"api_key" example:"ak_jkdfkjdfkdfjkd..."`
	// Metadata of the created key
	KeyInfo APIKeyDetails `json:"key_info"`
	// Reminder that the raw value is not retrievable later
	Warning string `json:"warning" example:"Save this key now. You will not be able to see it again."`
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	// New email address
	// required: true
	Email string `json:"email" form:"email" example:"alice@example.com"`
}

// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// Current password
	// required: true
	CurrentPassword string `json:"current_password" form:"current_password" example:"Str0ng!Pass"`
	// New password
	// required: true
	NewPassword string `json:"new_password" form:"new_password" example:"N3w!Passw0rd"`
}

// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	// New active flag
	IsActive *bool `json:"is_active" example:"true"`
	// New admin flag
	IsAdmin *bool `json:"is_admin" example:"false"`
	// New email address
	Email *string `json:"email" example:"alice@example.com"`
}

// swagger:model UserListResponse
type UserListResponse struct {
	// List of users
	Users []UserDetails `json:"users"`
	// Total number of users
	Total int `json:"total" example:"3"`
}

// swagger:model UserResponse
type UserResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message,omitempty" example:"User updated successfully"`
	// The user
	User UserDetails `json:"user"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message"`
}
