// client/session.go
package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/schemaforge/schemaforge/internal/domain"
)

// State is the session lifecycle state. A session starts initializing and
// settles into exactly one of authenticated or unauthenticated; consumers
// should render a loading view until it leaves StateInitializing.
type State string

const (
	StateInitializing    State = "initializing"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// CredentialStore persists the session token between runs.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileCredentialStore keeps the token in a JSON file, the SDK analogue of
// the dashboard's browser storage.
type FileCredentialStore struct {
	Path string
}

type storedCredentials struct {
	Token string `json:"token"`
}

func (s *FileCredentialStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var creds storedCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", err
	}
	return creds.Token, nil
}

func (s *FileCredentialStore) Save(token string) error {
	data, err := json.Marshal(storedCredentials{Token: token})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.Path, data, 0600)
}

func (s *FileCredentialStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Session tracks the signed-in user as an explicit state machine rather
// than a bag of flags.
type Session struct {
	mu     sync.Mutex
	client *Client
	store  CredentialStore

	state State
	user  *domain.User
}

// NewSession creates a Session over the given client and credential store.
// The session starts in StateInitializing until Init runs.
func NewSession(c *Client, store CredentialStore) *Session {
	return &Session{client: c, store: store, state: StateInitializing}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, or nil outside StateAuthenticated.
func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Init restores a persisted session. The stored token is trusted
// optimistically, then verified against the server; a token the server no
// longer accepts is cleared so the next run starts signed out.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateInitializing
	s.mu.Unlock()

	token, err := s.store.Load()
	if err != nil || token == "" {
		if err != nil {
			customLog.Warnf("Session: failed to load stored credentials: %v", err)
		}
		s.setUnauthenticated()
		return nil
	}

	s.client.SetToken(token)
	var user domain.User
	if err := s.client.do(ctx, "GET", "/auth/me", nil, &user); err != nil {
		customLog.Printf("Session: stored token rejected, clearing: %v", err)
		s.client.SetToken("")
		_ = s.store.Clear()
		s.setUnauthenticated()
		return nil
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = &user
	s.mu.Unlock()
	return nil
}

func (s *Session) setUnauthenticated() {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.user = nil
	s.mu.Unlock()
}

type signinResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// Login signs in with email and password and persists the session token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	var resp signinResponse
	err := s.client.do(ctx, "POST", "/auth/signin",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return err
	}

	s.client.SetToken(resp.Token)
	if err := s.store.Save(resp.Token); err != nil {
		customLog.Warnf("Session: failed to persist credentials: %v", err)
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = &resp.User
	s.mu.Unlock()
	return nil
}

// GoogleAuth signs in with an identity asserted by an OAuth front end,
// provisioning the account on first use. Behaves like Login otherwise.
func (s *Session) GoogleAuth(ctx context.Context, email, username string) error {
	var resp signinResponse
	err := s.client.do(ctx, "POST", "/auth/google",
		map[string]string{"email": email, "username": username}, &resp)
	if err != nil {
		return err
	}

	s.client.SetToken(resp.Token)
	if err := s.store.Save(resp.Token); err != nil {
		customLog.Warnf("Session: failed to persist credentials: %v", err)
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = &resp.User
	s.mu.Unlock()
	return nil
}

// Signup registers a new account. Signing up does not sign the user in;
// the session state is unchanged and the caller follows up with Login.
func (s *Session) Signup(ctx context.Context, username, email, password string) error {
	return s.client.do(ctx, "POST", "/auth/signup",
		map[string]string{"username": username, "email": email, "password": password}, nil)
}

// Logout discards the local session. No server call is made; the token
// simply expires on its own.
func (s *Session) Logout() {
	s.client.SetToken("")
	if err := s.store.Clear(); err != nil {
		customLog.Warnf("Session: failed to clear stored credentials: %v", err)
	}
	s.setUnauthenticated()
}

// SetPassword adds password login to the current account: the session is
// re-verified first, the password is set, and the user record is refreshed,
// in that order.
func (s *Session) SetPassword(ctx context.Context, password string) error {
	var user domain.User
	if err := s.client.do(ctx, "GET", "/auth/me", nil, &user); err != nil {
		return err
	}

	err := s.client.do(ctx, "POST", "/auth/set-password",
		map[string]string{"password": password}, nil)
	if err != nil {
		return err
	}

	if err := s.client.do(ctx, "GET", "/auth/me", nil, &user); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}
