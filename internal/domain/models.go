// internal/domain/models.go
package domain

import "time"

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User defines the structure for user data in the metadata DB.
type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Exclude password hash from JSON responses
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	// APIKey is the personal key for the generated /api/{collection}
	// endpoints, a separate credential plane from the session token.
	APIKey    string    `json:"api_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPassword reports whether the account can sign in with email/password.
// Google-provisioned accounts start without one.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Notification is a single entry of a user's notification feed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // info, success, warning, error
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// UsagePeriod tracks API calls for one user within one calendar month.
type UsagePeriod struct {
	UserID string `json:"user_id"`
	Period string `json:"period"` // "2006-01"
	Count  int64  `json:"count"`
	Quota  int64  `json:"quota"`
}

// Remaining returns how many requests are left in the period, never negative.
func (u UsagePeriod) Remaining() int64 {
	if u.Count >= u.Quota {
		return 0
	}
	return u.Quota - u.Count
}
