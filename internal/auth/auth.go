// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/schemaforge/schemaforge/internal/logger"
)

var (
	ErrBadRequest              = errors.New("bad request")
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInternalServer          = errors.New("authorization error")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	customLog                  = logger.NewLogger()
)

// SessionClaims are the claims of a dashboard session token.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CollectionClaims are the claims of a token issued by a collection's
// generated signin endpoint. Subject is the credential record id.
type CollectionClaims struct {
	SchemaID string `json:"schema_id"`
	jwt.RegisteredClaims
}

// --- Password Utilities ---

// HashPassword generates a bcrypt hash for the given password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		customLog.Warnf("Error generating bcrypt hash: %v", err)
		// Don't return raw bcrypt error to caller usually
		return "", fmt.Errorf("failed to hash password")
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// Log unexpected errors, but return false for mismatch or other errors
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		customLog.Warnf("Unexpected error comparing password hash: %v", err)
	}
	return err == nil
}

// --- JWT Utilities ---

// GenerateSessionJWT creates a signed session token for a dashboard user.
func GenerateSessionJWT(userID, role, jwtSecret string, jwtExpiration time.Duration) (string, error) {
	claims := SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "schemaforge",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Error signing session JWT for user %s: %v", userID, err)
		return "", fmt.Errorf("failed to generate token")
	}
	return signedToken, nil
}

// ValidateSessionJWT parses and validates a session token, returning the
// user id and role if valid.
func ValidateSessionJWT(tokenString, jwtSecret string) (string, string, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(jwtSecret))
	if err != nil {
		return "", "", mapParseError(err)
	}
	if !token.Valid {
		customLog.Warnf("ValidateSessionJWT: Invalid token marked by library")
		return "", "", ErrTokenInvalid
	}
	if claims.UserID == "" {
		customLog.Warnf("ValidateSessionJWT: UserID missing in token claims")
		return "", "", ErrTokenClaimsInvalid
	}
	return claims.UserID, claims.Role, nil
}

// GenerateCollectionJWT issues a token for an end user of a generated
// credential-store collection.
func GenerateCollectionJWT(recordID, schemaID, jwtSecret string, expiration time.Duration) (string, error) {
	claims := CollectionClaims{
		SchemaID: schemaID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   recordID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "schemaforge-collection",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Error signing collection JWT for record %s: %v", recordID, err)
		return "", fmt.Errorf("failed to generate token")
	}
	return signedToken, nil
}

// ValidateCollectionJWT parses and validates a collection token, returning
// the credential record id and the issuing schema id.
func ValidateCollectionJWT(tokenString, jwtSecret string) (string, string, error) {
	claims := &CollectionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(jwtSecret))
	if err != nil {
		return "", "", mapParseError(err)
	}
	if !token.Valid {
		return "", "", ErrTokenInvalid
	}
	if claims.Subject == "" || claims.SchemaID == "" {
		return "", "", ErrTokenClaimsInvalid
	}
	return claims.Subject, claims.SchemaID, nil
}

func keyFunc(jwtSecret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			customLog.Warnf("ValidateJWT: Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}
}

// mapParseError maps jwt library errors to our defined errors.
func mapParseError(err error) error {
	customLog.Warnf("ValidateJWT: Token parsing error: %v", err)
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenExpired
	case errors.Is(err, ErrUnexpectedSigningMethod):
		return err
	default:
		return ErrTokenInvalid
	}
}
