// api/handlers/record_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schemaforge/schemaforge/api/middleware"
	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/auth"
	"github.com/schemaforge/schemaforge/internal/core"
	"github.com/schemaforge/schemaforge/internal/schema"
	"github.com/schemaforge/schemaforge/internal/storage"
)

// RecordHandler serves the generated /api/{collection} CRUD endpoints.
type RecordHandler struct {
	MetaDB *sql.DB
	Cfg    *config.Config
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(metaDB *sql.DB, cfg *config.Config) *RecordHandler {
	return &RecordHandler{MetaDB: metaDB, Cfg: cfg}
}

// authGuardID returns the schema id that collection tokens for rec must
// carry: the referenced auth system if one is set, otherwise the schema
// itself when it doubles as its own credential store.
func authGuardID(rec *schema.Record) string {
	if rec.AuthSystemID != "" {
		return rec.AuthSystemID
	}
	if rec.AuthConfig != nil {
		return rec.ID
	}
	return ""
}

// enforceProtection rejects the request unless it carries a valid
// collection token issued by the schema's auth system. Only runs for
// verbs the owner marked as protected.
func (h *RecordHandler) enforceProtection(c *gin.Context, rec *schema.Record) error {
	if !rec.Protection.Protects(c.Request.Method) {
		return nil
	}

	guardID := authGuardID(rec)
	if guardID == "" {
		// Protection without an auth system should be unreachable; the
		// save-time validation forbids it. Fail closed regardless.
		return auth.ErrUnauthorized
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return auth.ErrUnauthorized
	}

	_, schemaID, err := auth.ValidateCollectionJWT(parts[1], h.Cfg.JWTSecret)
	if err != nil {
		return err
	}
	if schemaID != guardID {
		customLog.Warnf("Protection: token for auth system %s rejected on collection '%s'", schemaID, rec.CollectionName)
		return auth.ErrUnauthorized
	}
	return nil
}

// resolveCollection loads the schema behind the :collection path segment
// for the API-key-authenticated owner, enforces endpoint protection, and
// opens the owner's collection database. The caller closes the returned DB.
func (h *RecordHandler) resolveCollection(c *gin.Context) (*schema.Record, *sql.DB, error) {
	userID := c.MustGet(middleware.ContextUserID).(string)
	collectionName := c.Param("collection")
	if !core.IsValidIdentifier(collectionName) {
		return nil, nil, fmt.Errorf("%w: invalid collection name", storage.ErrSchemaNotFound)
	}

	rec, err := storage.GetSchemaByCollection(c.Request.Context(), h.MetaDB, userID, collectionName)
	if err != nil {
		return nil, nil, err
	}
	if !rec.IsActive {
		return nil, nil, storage.ErrSchemaNotFound
	}

	if err := h.enforceProtection(c, rec); err != nil {
		return nil, nil, err
	}

	userDB, err := storage.ConnectCollectionDB(c.Request.Context(), h.Cfg.DataDir, userID)
	if err != nil {
		return nil, nil, err
	}
	return rec, userDB, nil
}

func parseRecordID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: record id must be a positive integer", auth.ErrBadRequest)
	}
	return id, nil
}

// List handles GET /api/:collection. Only public fields are returned.
func (h *RecordHandler) List(c *gin.Context) {
	opts, err := core.ParsePageOptions(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, userDB, err := h.resolveCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	records, total, err := storage.ListCollectionRecords(c.Request.Context(), userDB, rec, opts, true)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"page":    opts.Page,
		"limit":   opts.Limit,
	})
}

// Get handles GET /api/:collection/:id.
func (h *RecordHandler) Get(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rec, userDB, err := h.resolveCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	record, err := storage.GetCollectionRecord(c.Request.Context(), userDB, rec, recordID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Create handles POST /api/:collection.
func (h *RecordHandler) Create(c *gin.Context) {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		customLog.Warnf("Record create binding error: %v", err)
		_ = c.Error(fmt.Errorf("%w: invalid JSON body", auth.ErrBadRequest))
		return
	}

	rec, userDB, err := h.resolveCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	recordID, err := storage.InsertCollectionRecord(c.Request.Context(), userDB, rec, data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Inserted record %d into '%s'", recordID, rec.CollectionName)
	c.JSON(http.StatusCreated, gin.H{"message": "Record created successfully", "record_id": recordID})
}

// Update handles PUT /api/:collection/:id. Partial updates are allowed;
// required fields are only enforced on insert.
func (h *RecordHandler) Update(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		customLog.Warnf("Record update binding error: %v", err)
		_ = c.Error(fmt.Errorf("%w: invalid JSON body", auth.ErrBadRequest))
		return
	}
	if len(data) == 0 {
		_ = c.Error(fmt.Errorf("%w: request body must contain at least one field", auth.ErrBadRequest))
		return
	}

	rec, userDB, err := h.resolveCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	if err := storage.UpdateCollectionRecord(c.Request.Context(), userDB, rec, recordID, data); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record updated successfully"})
}

// Delete handles DELETE /api/:collection/:id.
func (h *RecordHandler) Delete(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rec, userDB, err := h.resolveCollection(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	if err := storage.DeleteCollectionRecord(c.Request.Context(), userDB, rec, recordID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
