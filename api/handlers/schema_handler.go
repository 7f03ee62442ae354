// api/handlers/schema_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/schemaforge/schemaforge/api/middleware"
	"github.com/schemaforge/schemaforge/api/models"
	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/schema"
	"github.com/schemaforge/schemaforge/internal/storage"
)

// SchemaHandler holds dependencies for schema record CRUD handlers.
type SchemaHandler struct {
	MetaDB *sql.DB
	Cfg    *config.Config
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(metaDB *sql.DB, cfg *config.Config) *SchemaHandler {
	return &SchemaHandler{MetaDB: metaDB, Cfg: cfg}
}

// validateSaveRequest runs the full submission gate on a save request and
// returns the normalized draft and auth config.
func (h *SchemaHandler) validateSaveRequest(c *gin.Context, req *models.SaveSchemaRequest) (*schema.Draft, *schema.AuthConfig, error) {
	draft := req.Draft()
	if err := draft.Validate(); err != nil {
		return nil, nil, err
	}

	// A disabled auth config is discarded, never stored disabled.
	authCfg := req.AuthConfig
	if authCfg != nil && !authCfg.Enabled {
		authCfg = nil
	}
	if authCfg != nil {
		authCfg.Normalize()
		if err := authCfg.Validate(draft); err != nil {
			return nil, nil, err
		}
	}

	// Protected endpoints need an auth system to authenticate against:
	// either a referenced credential-store schema or the draft's own.
	if req.AuthSystemID != "" {
		userID := c.MustGet(middleware.ContextUserID).(string)
		authSystem, err := storage.GetSchema(c.Request.Context(), h.MetaDB, userID, req.AuthSystemID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: auth system %q not found", schema.ErrInvalidDraft, req.AuthSystemID)
		}
		if authSystem.AuthConfig == nil {
			return nil, nil, fmt.Errorf("%w: schema %q is not an auth system", schema.ErrInvalidDraft, req.AuthSystemID)
		}
	} else if req.EndpointProtection.Any() && authCfg == nil {
		return nil, nil, fmt.Errorf("%w: protected endpoints require an auth system", schema.ErrInvalidDraft)
	}

	return draft, authCfg, nil
}

// CreateSchema handles POST /schemas: persists the submitted draft and
// creates the backing collection table.
func (h *SchemaHandler) CreateSchema(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	var req models.SaveSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("CreateSchema binding error: %v", err)
		_ = c.Error(err)
		return
	}

	draft, authCfg, err := h.validateSaveRequest(c, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rec := &schema.Record{
		ID:             uuid.New().String(),
		UserID:         userID,
		CollectionName: draft.CollectionName,
		Fields:         draft.Fields,
		Protection:     req.EndpointProtection,
		AuthConfig:     authCfg,
		AuthSystemID:   req.AuthSystemID,
		IsActive:       true,
	}

	if err := storage.CreateSchema(c.Request.Context(), h.MetaDB, rec); err != nil {
		_ = c.Error(err)
		return
	}

	userDB, err := storage.ConnectCollectionDB(c.Request.Context(), h.Cfg.DataDir, userID)
	if err != nil {
		// Roll the metadata entry back so a retry is possible.
		_ = storage.DeleteSchema(c.Request.Context(), h.MetaDB, userID, rec.ID)
		_ = c.Error(err)
		return
	}
	defer userDB.Close()

	if err := storage.EnsureCollectionTable(c.Request.Context(), userDB, rec); err != nil {
		_ = storage.DeleteSchema(c.Request.Context(), h.MetaDB, userID, rec.ID)
		_ = c.Error(err)
		return
	}

	stored, err := storage.GetSchema(c.Request.Context(), h.MetaDB, userID, rec.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	notifyQuietly(c, h.MetaDB, userID, "Schema created",
		fmt.Sprintf("Collection '%s' is live with four generated endpoints.", rec.CollectionName), "success")

	customLog.Printf("Handler: Created schema '%s' (%s) for user %s", rec.CollectionName, rec.ID, userID)
	c.JSON(http.StatusCreated, models.NewSchemaResponse(stored))
}

// ListSchemas handles GET /schemas.
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	records, err := storage.ListSchemas(c.Request.Context(), h.MetaDB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]models.SchemaResponse, len(records))
	for i := range records {
		responses[i] = models.NewSchemaResponse(&records[i])
	}
	c.JSON(http.StatusOK, gin.H{"schemas": responses})
}

// GetSchema handles GET /schemas/:id.
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	rec, err := storage.GetSchema(c.Request.Context(), h.MetaDB, userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.NewSchemaResponse(rec))
}

// UpdateSchema handles PUT /schemas/:id. The collection name is immutable;
// field additions are migrated into the backing table.
func (h *SchemaHandler) UpdateSchema(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)
	schemaID := c.Param("id")

	existing, err := storage.GetSchema(c.Request.Context(), h.MetaDB, userID, schemaID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req models.SaveSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("UpdateSchema binding error: %v", err)
		_ = c.Error(err)
		return
	}
	if req.CollectionName != existing.CollectionName {
		_ = c.Error(fmt.Errorf("%w: collection name cannot be changed", schema.ErrInvalidDraft))
		return
	}

	draft, authCfg, err := h.validateSaveRequest(c, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rec := &schema.Record{
		ID:             existing.ID,
		UserID:         userID,
		CollectionName: existing.CollectionName,
		Fields:         draft.Fields,
		Protection:     req.EndpointProtection,
		AuthConfig:     authCfg,
		AuthSystemID:   req.AuthSystemID,
		IsActive:       existing.IsActive,
	}
	if err := storage.UpdateSchema(c.Request.Context(), h.MetaDB, rec); err != nil {
		_ = c.Error(err)
		return
	}

	userDB, err := storage.ConnectCollectionDB(c.Request.Context(), h.Cfg.DataDir, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()
	if err := storage.MigrateCollectionTable(c.Request.Context(), userDB, rec); err != nil {
		_ = c.Error(err)
		return
	}

	stored, err := storage.GetSchema(c.Request.Context(), h.MetaDB, userID, schemaID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Updated schema '%s' (%s) for user %s", rec.CollectionName, rec.ID, userID)
	c.JSON(http.StatusOK, models.NewSchemaResponse(stored))
}

// DeleteSchema handles DELETE /schemas/:id: drops the backing table and
// removes the record. Schemas still referenced as an auth system by other
// schemas cannot be deleted.
func (h *SchemaHandler) DeleteSchema(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)
	schemaID := c.Param("id")

	rec, err := storage.GetSchema(c.Request.Context(), h.MetaDB, userID, schemaID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	refs, err := storage.CountProtectionReferences(c.Request.Context(), h.MetaDB, schemaID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if refs > 0 {
		_ = c.Error(fmt.Errorf("%w: %d schema(s) use this collection as their auth system",
			storage.ErrConstraintViolation, refs))
		return
	}

	userDB, err := storage.ConnectCollectionDB(c.Request.Context(), h.Cfg.DataDir, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer userDB.Close()
	if err := storage.DropCollectionTable(c.Request.Context(), userDB, rec.CollectionName); err != nil {
		_ = c.Error(err)
		return
	}

	if err := storage.DeleteSchema(c.Request.Context(), h.MetaDB, userID, schemaID); err != nil {
		_ = c.Error(err)
		return
	}

	notifyQuietly(c, h.MetaDB, userID, "Schema deleted",
		fmt.Sprintf("Collection '%s' and its data were removed.", rec.CollectionName), "warning")

	customLog.Printf("Handler: Deleted schema '%s' (%s) for user %s", rec.CollectionName, schemaID, userID)
	c.Status(http.StatusNoContent)
}
