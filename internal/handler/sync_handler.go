package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursework-sync/internal/dto"
	"github.com/noah-isme/coursework-sync/internal/middleware"
	"github.com/noah-isme/coursework-sync/internal/models"
	"github.com/noah-isme/coursework-sync/internal/service"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/response"
)

type syncService interface {
	Sync(ctx context.Context, userID string, req dto.SyncRequest, trigger string) (*dto.SyncResponse, error)
	Enqueue(ctx context.Context, userID string, req dto.SyncRequest) (*dto.SyncJobResponse, error)
	Latest(ctx context.Context, userID string) (*dto.SyncResponse, bool, error)
	History(ctx context.Context, userID string, query dto.SyncHistoryQuery) ([]models.SyncHistory, *models.Pagination, error)
	CreateDatabase(ctx context.Context, userID string, req dto.CreateDatabaseRequest) (*dto.CreateDatabaseResponse, error)
}

type historyExporter interface {
	ExportHistory(ctx context.Context, userID, format string) (*service.ExportFile, error)
}

// SyncHandler exposes sync runs, their audit trail and database creation.
type SyncHandler struct {
	sync   syncService
	export historyExporter
}

// NewSyncHandler constructs handler.
func NewSyncHandler(sync syncService, export historyExporter) *SyncHandler {
	return &SyncHandler{sync: sync, export: export}
}

// Sync godoc
// @Summary Run a sync now
// @Description Copies assignments from Canvas into the Notion database and waits for the result.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncRequest false "Sync options"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := bindSyncRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.sync.Sync(c.Request.Context(), userID, req, models.SyncTriggerManual)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Async godoc
// @Summary Queue a sync
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncRequest false "Sync options"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /sync/async [post]
func (h *SyncHandler) Async(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := bindSyncRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.sync.Enqueue(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Latest godoc
// @Summary Latest sync result
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sync/latest [get]
func (h *SyncHandler) Latest(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, cacheHit, err := h.sync.Latest(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// History godoc
// @Summary Sync history
// @Tags Sync
// @Produce json
// @Param action query string false "sync or create_db"
// @Param status query string false "success or error"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sync/history [get]
func (h *SyncHandler) History(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.SyncHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	items, pagination, err := h.sync.History(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Export godoc
// @Summary Export sync history
// @Tags Sync
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /sync/history/export [get]
func (h *SyncHandler) Export(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.export.ExportHistory(c.Request.Context(), userID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// CreateDatabase godoc
// @Summary Create the Notion database
// @Description Creates the assignments database under the configured parent page and stores its id.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.CreateDatabaseRequest false "Optional property selection"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /databases [post]
func (h *SyncHandler) CreateDatabase(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	created, err := h.sync.CreateDatabase(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// bindSyncRequest accepts an empty body as the default request.
func bindSyncRequest(c *gin.Context) (dto.SyncRequest, error) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return req, nil
}
