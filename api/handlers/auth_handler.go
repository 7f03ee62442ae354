// api/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/schemaforge/schemaforge/api/middleware"
	"github.com/schemaforge/schemaforge/api/models"
	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/auth"
	"github.com/schemaforge/schemaforge/internal/domain"
	"github.com/schemaforge/schemaforge/internal/logger"
	"github.com/schemaforge/schemaforge/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	DB  *sql.DB        // Metadata DB connection pool
	Cfg *config.Config // Application configuration
}

// NewAuthHandler creates a new AuthHandler with dependencies.
func NewAuthHandler(db *sql.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg}
}

// Signup handles user registration requests. Signing up does not sign the
// user in; the client performs an explicit signin afterwards.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Signup binding error: %v", err)
		_ = c.Error(err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		customLog.Warnf("Failed to hash password during signup for email %s: %v", req.Email, err)
		_ = c.Error(err)
		return
	}

	// The very first account becomes the admin.
	role := domain.RoleUser
	if total, _, err := storage.CountUsers(c.Request.Context(), h.DB); err == nil && total == 0 {
		role = domain.RoleAdmin
	}

	userID, err := storage.CreateUser(c.Request.Context(), h.DB, uuid.New().String(),
		req.Username, req.Email, hashedPassword, role)
	if err != nil {
		customLog.Warnf("Failed to create user %s: %v", req.Email, err)
		_ = c.Error(err)
		return
	}

	notifyQuietly(c, h.DB, userID, "Welcome to SchemaForge",
		"Your account is ready. Create your first schema to generate API endpoints.", "info")

	customLog.Printf("Successfully registered user with email %s", req.Email)
	c.JSON(http.StatusCreated, gin.H{"user_id": userID, "message": "User registered successfully"})
}

// Signin handles user login requests and issues a session JWT on success.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req models.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Signin binding error: %v", err)
		_ = c.Error(err)
		return
	}

	user, err := storage.FindUserByEmail(c.Request.Context(), h.DB, req.Email)
	if err != nil {
		customLog.Warnf("Signin failed for email %s: %v", req.Email, err)
		_ = c.Error(err)
		return
	}
	if !user.IsActive {
		_ = c.Error(storage.ErrAccountDisabled)
		return
	}
	if !user.HasPassword() || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		customLog.Warnf("Signin attempt failed for email %s: invalid password", user.Email)
		_ = c.Error(storage.ErrInvalidCredentials)
		return
	}

	tokenString, err := auth.GenerateSessionJWT(user.UserID, user.Role, h.Cfg.JWTSecret, h.Cfg.JWTExpiration)
	if err != nil {
		customLog.Warnf("Failed to generate JWT for user %s: %v", user.UserID, err)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SigninResponse{Message: "Signed in successfully", Token: tokenString, User: *user})
}

// GoogleAuth signs in (or provisions) an account asserted by the OAuth
// front end. Provisioned accounts have no password until SetPassword.
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req models.GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("GoogleAuth binding error: %v", err)
		_ = c.Error(err)
		return
	}

	user, err := storage.FindUserByEmail(c.Request.Context(), h.DB, req.Email)
	if err == storage.ErrUserNotFound {
		userID := uuid.New().String()
		if _, err := storage.CreateUser(c.Request.Context(), h.DB, userID,
			req.Username, req.Email, "", domain.RoleUser); err != nil {
			_ = c.Error(err)
			return
		}
		user, err = storage.FindUserByID(c.Request.Context(), h.DB, userID)
		if err != nil {
			_ = c.Error(err)
			return
		}
	} else if err != nil {
		_ = c.Error(err)
		return
	}
	if !user.IsActive {
		_ = c.Error(storage.ErrAccountDisabled)
		return
	}

	tokenString, err := auth.GenerateSessionJWT(user.UserID, user.Role, h.Cfg.JWTSecret, h.Cfg.JWTExpiration)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.SigninResponse{Message: "Signed in successfully", Token: tokenString, User: *user})
}

// Me returns the authenticated user's record. The dashboard calls this on
// mount to refresh the locally stored session.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	user, err := storage.FindUserByID(c.Request.Context(), h.DB, userID)
	if err != nil {
		customLog.Warnf("Me: user %s not found: %v", userID, err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetPassword adds email/password login to an account that has none yet.
// A fresh session is required; the middleware has already enforced that.
func (h *AuthHandler) SetPassword(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	var req models.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := storage.SetUserPassword(c.Request.Context(), h.DB, userID, hashedPassword); err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Password set for user %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Password set successfully"})
}

// RotateKey replaces the caller's personal API key and returns the new
// value. The old key stops working immediately.
func (h *AuthHandler) RotateKey(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	newKey, err := storage.RotateAPIKey(c.Request.Context(), h.DB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	notifyQuietly(c, h.DB, userID, "API key rotated",
		"Your previous API key no longer works. Update any clients using it.", "info")

	customLog.Printf("Rotated API key for user %s", userID)
	c.JSON(http.StatusOK, gin.H{"api_key": newKey, "message": "API key rotated successfully"})
}

// TestConnection verifies that the storage backing the generated
// collections is reachable.
func (h *AuthHandler) TestConnection(c *gin.Context) {
	if err := h.DB.PingContext(c.Request.Context()); err != nil {
		customLog.Warnf("TestConnection: storage ping failed: %v", err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection successful"})
}
