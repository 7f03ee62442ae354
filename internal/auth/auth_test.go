// internal/auth/auth_test.go
package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test_secret_key_for_unit_tests_1234567890"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("StrongPassword123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "StrongPassword123!" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPasswordHash("StrongPassword123!", hash) {
		t.Error("CheckPasswordHash rejected the correct password")
	}
	if CheckPasswordHash("WrongPassword", hash) {
		t.Error("CheckPasswordHash accepted a wrong password")
	}
	if CheckPasswordHash("StrongPassword123!", "not-a-bcrypt-hash") {
		t.Error("CheckPasswordHash accepted a garbage hash")
	}
}

func TestSessionJWTRoundTrip(t *testing.T) {
	token, err := GenerateSessionJWT("user-1", "admin", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionJWT error: %v", err)
	}

	userID, role, err := ValidateSessionJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateSessionJWT error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q; want user-1", userID)
	}
	if role != "admin" {
		t.Errorf("role = %q; want admin", role)
	}
}

func TestSessionJWTWrongSecret(t *testing.T) {
	token, err := GenerateSessionJWT("user-1", "user", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionJWT error: %v", err)
	}

	if _, _, err := ValidateSessionJWT(token, "a_different_secret_entirely_0987654321"); err == nil {
		t.Fatal("ValidateSessionJWT accepted a token signed with another secret")
	}
}

func TestSessionJWTExpired(t *testing.T) {
	token, err := GenerateSessionJWT("user-1", "user", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionJWT error: %v", err)
	}

	_, _, err = ValidateSessionJWT(token, testSecret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateSessionJWT error = %v; want ErrTokenExpired", err)
	}
}

func TestSessionJWTMalformed(t *testing.T) {
	_, _, err := ValidateSessionJWT("not.a.token", testSecret)
	if err == nil {
		t.Fatal("ValidateSessionJWT accepted garbage input")
	}
}

func TestCollectionJWTRoundTrip(t *testing.T) {
	token, err := GenerateCollectionJWT("42", "schema-abc", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateCollectionJWT error: %v", err)
	}

	recordID, schemaID, err := ValidateCollectionJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateCollectionJWT error: %v", err)
	}
	if recordID != "42" {
		t.Errorf("recordID = %q; want 42", recordID)
	}
	if schemaID != "schema-abc" {
		t.Errorf("schemaID = %q; want schema-abc", schemaID)
	}
}

// Session and collection tokens are separate planes: one must never
// validate as the other.
func TestTokenPlanesAreDisjoint(t *testing.T) {
	sessionToken, err := GenerateSessionJWT("user-1", "user", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionJWT error: %v", err)
	}
	if _, _, err := ValidateCollectionJWT(sessionToken, testSecret); err == nil {
		t.Error("ValidateCollectionJWT accepted a session token")
	}

	collectionToken, err := GenerateCollectionJWT("1", "schema-abc", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateCollectionJWT error: %v", err)
	}
	if _, _, err := ValidateSessionJWT(collectionToken, testSecret); err == nil {
		t.Error("ValidateSessionJWT accepted a collection token")
	}
}
