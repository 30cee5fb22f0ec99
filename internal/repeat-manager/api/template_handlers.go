package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"gorm.io/gorm"

	"repeat-task-service/internal/repeat-manager/db"
	"repeat-task-service/pkg/validation"
)

// RecordHandler manages templates and lists instances of the SQL store.
type RecordHandler struct {
	DB *gorm.DB
	// TemplateSchema, when set, is the JSON schema new template properties
	// must satisfy.
	TemplateSchema string
}

func NewRecordHandler(gormDB *gorm.DB, templateSchema string) *RecordHandler {
	return &RecordHandler{DB: gormDB, TemplateSchema: templateSchema}
}

type CreateTemplateRequest struct {
	Properties map[string]any `json:"properties"`
}

type RecordView struct {
	ID               uint            `json:"id"`
	IsRepeatTemplate bool            `json:"is_repeat_template"`
	CreatedAt        time.Time       `json:"created_at"`
	Properties       json.RawMessage `json:"properties"`
}

func toView(r db.Record) RecordView {
	props := json.RawMessage(r.Properties)
	if len(props) == 0 || !json.Valid(props) {
		props = json.RawMessage("{}")
	}
	return RecordView{ID: r.ID, IsRepeatTemplate: r.IsRepeatTemplate, CreatedAt: r.CreatedAt, Properties: props}
}

func toViews(rows []db.Record) []RecordView {
	views := make([]RecordView, 0, len(rows))
	for _, r := range rows {
		views = append(views, toView(r))
	}
	return views
}

func (h *RecordHandler) CreateTemplate(ctx context.Context, c *app.RequestContext) {
	var req CreateTemplateRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if len(req.Properties) == 0 {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: properties are required"})
		return
	}
	b, err := json.Marshal(req.Properties)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid properties: " + err.Error()})
		return
	}

	if err := validation.ValidateJSONWithSchema(h.TemplateSchema, string(b)); err != nil {
		hlog.CtxWarnf(ctx, "CreateTemplate: properties rejected by template schema: %v", err)
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid template properties: " + err.Error()})
		return
	}

	rec := db.Record{IsRepeatTemplate: true, Properties: string(b)}
	if result := h.DB.WithContext(ctx).Create(&rec); result.Error != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to create repeat template: " + result.Error.Error()})
		return
	}
	hlog.CtxInfof(ctx, "Repeat template ID %d created", rec.ID)
	c.JSON(http.StatusCreated, toView(rec))
}

func (h *RecordHandler) GetTemplates(ctx context.Context, c *app.RequestContext) {
	h.list(ctx, c, true)
}

func (h *RecordHandler) GetInstances(ctx context.Context, c *app.RequestContext) {
	h.list(ctx, c, false)
}

func (h *RecordHandler) list(ctx context.Context, c *app.RequestContext, templates bool) {
	var rows []db.Record
	if result := h.DB.WithContext(ctx).Where("is_repeat_template = ?", templates).Order("id").Find(&rows); result.Error != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to fetch records: " + result.Error.Error()})
		return
	}
	c.JSON(http.StatusOK, toViews(rows))
}

// findTemplate loads the template named by :id, writing the error response
// itself when it returns false.
func (h *RecordHandler) findTemplate(ctx context.Context, c *app.RequestContext) (db.Record, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid ID format"})
		return db.Record{}, false
	}
	var rec db.Record
	result := h.DB.WithContext(ctx).Where("is_repeat_template = ?", true).First(&rec, uint(id))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.H{"error": "Repeat template not found"})
		} else {
			c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to fetch repeat template: " + result.Error.Error()})
		}
		return db.Record{}, false
	}
	return rec, true
}

func (h *RecordHandler) GetTemplateByID(ctx context.Context, c *app.RequestContext) {
	rec, ok := h.findTemplate(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toView(rec))
}

func (h *RecordHandler) DeleteTemplate(ctx context.Context, c *app.RequestContext) {
	rec, ok := h.findTemplate(ctx, c)
	if !ok {
		return
	}
	if result := h.DB.WithContext(ctx).Delete(&db.Record{}, rec.ID); result.Error != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to delete repeat template: " + result.Error.Error()})
		return
	}
	hlog.CtxInfof(ctx, "Repeat template ID %d deleted", rec.ID)
	c.JSON(http.StatusOK, utils.H{"message": "Repeat template deleted successfully"})
}
