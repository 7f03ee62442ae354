// api/handlers/collection_auth_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schemaforge/schemaforge/api/middleware"
	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/auth"
	"github.com/schemaforge/schemaforge/internal/schema"
	"github.com/schemaforge/schemaforge/internal/storage"
)

// CollectionAuthHandler serves the generated signup/signin endpoints of
// collections that act as an auth system.
type CollectionAuthHandler struct {
	MetaDB *sql.DB
	Cfg    *config.Config
}

// NewCollectionAuthHandler creates a new CollectionAuthHandler.
func NewCollectionAuthHandler(metaDB *sql.DB, cfg *config.Config) *CollectionAuthHandler {
	return &CollectionAuthHandler{MetaDB: metaDB, Cfg: cfg}
}

// resolveAuthCollection loads the schema behind :collection and requires it
// to carry an auth config. The caller closes the returned DB.
func (h *CollectionAuthHandler) resolveAuthCollection(c *gin.Context) (*schema.Record, *sql.DB, error) {
	userID := c.MustGet(middleware.ContextUserID).(string)
	collectionName := c.Param("collection")

	rec, err := storage.GetSchemaByCollection(c.Request.Context(), h.MetaDB, userID, collectionName)
	if err != nil {
		return nil, nil, err
	}
	if !rec.IsActive {
		return nil, nil, storage.ErrSchemaNotFound
	}
	if rec.AuthConfig == nil {
		return nil, nil, fmt.Errorf("%w: collection '%s' is not an auth system", auth.ErrBadRequest, collectionName)
	}

	userDB, err := storage.ConnectCollectionDB(c.Request.Context(), h.Cfg.DataDir, userID)
	if err != nil {
		return nil, nil, err
	}
	return rec, userDB, nil
}

// responseProjection builds the token response body: the record id plus
// only the configured response fields. The password hash never leaves the
// server even if response_fields were tampered with in storage.
func responseProjection(cfg *schema.AuthConfig, record map[string]any) map[string]any {
	out := map[string]any{"id": record["id"]}
	for _, name := range cfg.ResponseFields {
		if name == cfg.PasswordField {
			continue
		}
		if val, ok := record[name]; ok {
			out[name] = val
		}
	}
	return out
}

// Signup handles POST /api/:collection/auth/signup: creates a credential
// record with the password field bcrypt-hashed.
func (h *CollectionAuthHandler) Signup(c *gin.Context) {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid JSON body", auth.ErrBadRequest))
		return
	}

	rec, userDB, err := h.resolveAuthCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	authCfg := rec.AuthConfig
	if !authCfg.AllowSignup {
		_ = c.Error(fmt.Errorf("%w: signup is disabled for this collection", auth.ErrForbidden))
		return
	}

	rawPassword, ok := data[authCfg.PasswordField].(string)
	if !ok || rawPassword == "" {
		_ = c.Error(fmt.Errorf("%w: field '%s' is required", storage.ErrMissingRequired, authCfg.PasswordField))
		return
	}
	hashed, err := auth.HashPassword(rawPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}
	data[authCfg.PasswordField] = hashed

	recordID, err := storage.InsertCollectionRecord(c.Request.Context(), userDB, rec, data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	record, err := storage.GetCollectionRecord(c.Request.Context(), userDB, rec, recordID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Signed up record %d in auth collection '%s'", recordID, rec.CollectionName)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    responseProjection(authCfg, record),
	})
}

// signinIdentifier pulls the login identifier out of the request body
// according to the configured login fields, returning the draft field to
// match against and the submitted value.
func signinIdentifier(cfg *schema.AuthConfig, data map[string]any) (field, value string, err error) {
	read := func(name string) string {
		if name == "" {
			return ""
		}
		s, _ := data[name].(string)
		return s
	}

	if v := read(cfg.LoginFields.EmailField); v != "" {
		return cfg.LoginFields.EmailField, v, nil
	}
	if cfg.LoginFields.UsernameField != "" && (cfg.LoginFields.AllowBoth || cfg.LoginFields.EmailField == "") {
		if v := read(cfg.LoginFields.UsernameField); v != "" {
			return cfg.LoginFields.UsernameField, v, nil
		}
	}
	return "", "", fmt.Errorf("%w: login identifier is required", auth.ErrBadRequest)
}

// Signin handles POST /api/:collection/auth/signin: verifies credentials
// against the collection's records and issues a collection-scoped JWT.
func (h *CollectionAuthHandler) Signin(c *gin.Context) {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid JSON body", auth.ErrBadRequest))
		return
	}

	rec, userDB, err := h.resolveAuthCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	authCfg := rec.AuthConfig
	field, value, err := signinIdentifier(authCfg, data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	password, _ := data[authCfg.PasswordField].(string)
	if password == "" {
		_ = c.Error(fmt.Errorf("%w: field '%s' is required", auth.ErrBadRequest, authCfg.PasswordField))
		return
	}

	record, err := storage.FindRecordByField(c.Request.Context(), userDB, rec, field, value)
	if err != nil {
		if err == storage.ErrRecordNotFound {
			_ = c.Error(storage.ErrInvalidCredentials)
			return
		}
		_ = c.Error(err)
		return
	}

	storedHash, _ := record[authCfg.PasswordField].(string)
	if storedHash == "" || !auth.CheckPasswordHash(password, storedHash) {
		customLog.Warnf("Signin attempt failed in collection '%s' for %s", rec.CollectionName, field)
		_ = c.Error(storage.ErrInvalidCredentials)
		return
	}

	recordID, _ := record["id"].(int64)
	expiration := time.Duration(authCfg.TokenExpiration) * time.Hour
	token, err := auth.GenerateCollectionJWT(strconv.FormatInt(recordID, 10), rec.ID, h.Cfg.JWTSecret, expiration)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully",
		"token":   token,
		"user":    responseProjection(authCfg, record),
	})
}
