// internal/schema/authconfig.go
package schema

import (
	"fmt"
)

// DefaultTokenExpirationHours is the token lifetime a fresh AuthConfig gets.
const DefaultTokenExpirationHours = 24

// LoginFields maps which draft fields serve as the login identifier(s).
// AllowBoth is only meaningful when UsernameField is set.
type LoginFields struct {
	EmailField    string `json:"email_field"`
	UsernameField string `json:"username_field,omitempty"`
	AllowBoth     bool   `json:"allow_both"`
}

// AuthConfig turns the owning collection into a credential store: records
// carry login identifiers and a bcrypt-hashed password, and the collection
// gains generated signup/signin endpoints.
//
// Disabling the config discards it entirely (callers set the reference to
// nil) rather than retaining it in a disabled state.
type AuthConfig struct {
	Enabled        bool        `json:"enabled"`
	UserCollection string      `json:"user_collection"`
	LoginFields    LoginFields `json:"login_fields"`
	ResponseFields []string    `json:"response_fields"`
	PasswordField  string      `json:"password_field"`
	// TokenExpiration is in hours.
	TokenExpiration int `json:"token_expiration"`
	// RequireEmailVerification is accepted and stored but not yet acted on.
	RequireEmailVerification bool `json:"require_email_verification"`
	AllowSignup              bool `json:"allow_signup"`
}

// DefaultAuthConfig is the structurally valid config seeded when the toggle
// flips back on without a previously known config.
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		Enabled:         true,
		LoginFields:     LoginFields{EmailField: "email"},
		ResponseFields:  nil,
		PasswordField:   "password",
		TokenExpiration: DefaultTokenExpirationHours,
		AllowSignup:     true,
	}
}

// Normalize enforces the config's structural invariant: ResponseFields never
// contains the current PasswordField, no matter what sequence of edits
// produced the value. Run after every change and before serialization.
func (c *AuthConfig) Normalize() {
	if c == nil {
		return
	}
	if c.TokenExpiration <= 0 {
		c.TokenExpiration = DefaultTokenExpirationHours
	}
	if c.PasswordField == "" {
		return
	}
	filtered := c.ResponseFields[:0]
	for _, name := range c.ResponseFields {
		if name != c.PasswordField {
			filtered = append(filtered, name)
		}
	}
	c.ResponseFields = filtered
}

// Validate checks the config's field references against the owning draft.
// Stale references (a renamed, removed, or retyped field) are reported here
// instead of being silently carried through to the backend.
func (c *AuthConfig) Validate(d *Draft) error {
	if c == nil || !c.Enabled {
		return nil
	}
	if err := c.requireStringField(d, "email_field", c.LoginFields.EmailField); err != nil {
		return err
	}
	if c.LoginFields.UsernameField != "" {
		if err := c.requireStringField(d, "username_field", c.LoginFields.UsernameField); err != nil {
			return err
		}
	}
	if err := c.requireStringField(d, "password_field", c.PasswordField); err != nil {
		return err
	}
	for _, name := range c.ResponseFields {
		if name == c.PasswordField {
			return fmt.Errorf("%w: response_fields must not include the password field", ErrInvalidDraft)
		}
		if d.Field(name) == nil {
			return fmt.Errorf("%w: response field %q does not exist in the draft", ErrInvalidDraft, name)
		}
	}
	if c.TokenExpiration <= 0 {
		return fmt.Errorf("%w: token_expiration must be positive", ErrInvalidDraft)
	}
	return nil
}

func (c *AuthConfig) requireStringField(d *Draft, label, name string) error {
	if name == "" {
		return fmt.Errorf("%w: auth config %s is required", ErrInvalidDraft, label)
	}
	f := d.Field(name)
	if f == nil {
		return fmt.Errorf("%w: auth config %s %q does not exist in the draft", ErrInvalidDraft, label, name)
	}
	if f.Type != FieldString {
		return fmt.Errorf("%w: auth config %s %q must be a string field", ErrInvalidDraft, label, name)
	}
	return nil
}
