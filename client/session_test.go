// client/session_test.go
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// stubServer is a minimal fake of the management API for session tests.
type stubServer struct {
	validToken string
	signins    int
	signups    int
}

func (s *stubServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": "u1", "username": "alice", "email": "alice@example.com", "role": "user", "is_active": true,
		})
	})
	mux.HandleFunc("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		s.signins++
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Signed in successfully",
			"token":   s.validToken,
			"user": map[string]any{
				"user_id": "u1", "username": "alice", "email": "alice@example.com", "role": "user", "is_active": true,
			},
		})
	})
	mux.HandleFunc("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		s.signups++
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"user_id": "u2", "message": "User registered successfully"})
	})
	return mux
}

func newTestSession(t *testing.T, stub *stubServer) (*Session, *FileCredentialStore, func()) {
	t.Helper()
	server := httptest.NewServer(stub.handler())
	store := &FileCredentialStore{Path: filepath.Join(t.TempDir(), "credentials.json")}
	session := NewSession(NewClient(server.URL), store)
	return session, store, server.Close
}

func TestSessionStartsInitializing(t *testing.T) {
	session, _, done := newTestSession(t, &stubServer{validToken: "tok"})
	defer done()

	if got := session.State(); got != StateInitializing {
		t.Errorf("State() before Init = %q; want %q", got, StateInitializing)
	}
}

func TestInitWithoutStoredCredentials(t *testing.T) {
	session, _, done := newTestSession(t, &stubServer{validToken: "tok"})
	defer done()

	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if got := session.State(); got != StateUnauthenticated {
		t.Errorf("State() = %q; want %q", got, StateUnauthenticated)
	}
	if session.User() != nil {
		t.Error("User() != nil without a session")
	}
}

func TestInitRestoresValidCredentials(t *testing.T) {
	session, store, done := newTestSession(t, &stubServer{validToken: "tok"})
	defer done()

	if err := store.Save("tok"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if got := session.State(); got != StateAuthenticated {
		t.Fatalf("State() = %q; want %q", got, StateAuthenticated)
	}
	if user := session.User(); user == nil || user.Email != "alice@example.com" {
		t.Errorf("User() = %+v; want alice", user)
	}
}

func TestInitClearsRejectedCredentials(t *testing.T) {
	session, store, done := newTestSession(t, &stubServer{validToken: "tok"})
	defer done()

	if err := store.Save("stale-token"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if got := session.State(); got != StateUnauthenticated {
		t.Errorf("State() = %q; want %q", got, StateUnauthenticated)
	}

	stored, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if stored != "" {
		t.Errorf("rejected token still stored: %q", stored)
	}
}

func TestLoginPersistsAndAuthenticates(t *testing.T) {
	stub := &stubServer{validToken: "tok"}
	session, store, done := newTestSession(t, stub)
	defer done()

	if err := session.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got := session.State(); got != StateAuthenticated {
		t.Errorf("State() = %q; want %q", got, StateAuthenticated)
	}
	stored, _ := store.Load()
	if stored != "tok" {
		t.Errorf("stored token = %q; want tok", stored)
	}
}

// Signing up never signs the user in.
func TestSignupDoesNotAuthenticate(t *testing.T) {
	stub := &stubServer{validToken: "tok"}
	session, store, done := newTestSession(t, stub)
	defer done()

	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := session.Signup(context.Background(), "bob", "bob@example.com", "pw123456"); err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if stub.signups != 1 {
		t.Errorf("signups = %d; want 1", stub.signups)
	}
	if got := session.State(); got != StateUnauthenticated {
		t.Errorf("State() after Signup = %q; want %q", got, StateUnauthenticated)
	}
	if stored, _ := store.Load(); stored != "" {
		t.Errorf("Signup stored a token: %q", stored)
	}
}

// Logout is purely local: credentials are cleared, no revocation call.
func TestLogoutClearsLocally(t *testing.T) {
	stub := &stubServer{validToken: "tok"}
	session, store, done := newTestSession(t, stub)
	defer done()

	if err := session.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	session.Logout()

	if got := session.State(); got != StateUnauthenticated {
		t.Errorf("State() = %q; want %q", got, StateUnauthenticated)
	}
	if stored, _ := store.Load(); stored != "" {
		t.Errorf("token still stored after Logout: %q", stored)
	}
}

// DeleteAccount always fails with its fixed message and the session is
// untouched.
func TestDeleteAccount(t *testing.T) {
	stub := &stubServer{validToken: "tok"}
	session, _, done := newTestSession(t, stub)
	defer done()

	if err := session.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	err := session.DeleteAccount(context.Background())
	if err == nil {
		t.Fatal("DeleteAccount() = nil; want error")
	}
	if err.Error() != "Account deletion is not implemented yet in the backend" {
		t.Errorf("DeleteAccount() message = %q", err.Error())
	}
	if got := session.State(); got != StateAuthenticated {
		t.Errorf("State() after DeleteAccount = %q; want %q", got, StateAuthenticated)
	}
	if session.User() == nil {
		t.Error("User() = nil after DeleteAccount; session must be untouched")
	}
}
