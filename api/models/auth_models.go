// api/models/auth_models.go
package models

import "github.com/schemaforge/schemaforge/internal/domain"

// --- Auth Request/Response Structs ---

// SignupRequest defines the structure for the signup request body
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// SigninRequest defines the structure for the signin request body
type SigninRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SigninResponse defines the structure for the signin response body
type SigninResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// SetPasswordRequest sets a password on an account that has none yet
// (Google-provisioned accounts). Requires a fresh session.
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// GoogleAuthRequest carries the identity asserted by the OAuth front end.
type GoogleAuthRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
}
