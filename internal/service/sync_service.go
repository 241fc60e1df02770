package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/calendar"
	"github.com/noah-isme/coursework-sync/internal/dto"
	"github.com/noah-isme/coursework-sync/internal/models"
	"github.com/noah-isme/coursework-sync/internal/reconcile"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/jobs"
	applogger "github.com/noah-isme/coursework-sync/pkg/logger"
	"github.com/noah-isme/coursework-sync/pkg/secret"
)

// JobTypeSync tags queued sync runs.
const JobTypeSync = "sync"

type syncSettingsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateDatabaseID(ctx context.Context, userID, databaseID string) error
	ListAutoSyncUsers(ctx context.Context) ([]string, error)
}

type syncHistoryRepository interface {
	Create(ctx context.Context, history *models.SyncHistory) error
	Latest(ctx context.Context, userID string) (*models.SyncHistory, error)
	List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistory, int, error)
}

type syncQueue interface {
	Enqueue(job jobs.Job) error
}

// SyncConfig tunes calendar resolution and result reporting.
type SyncConfig struct {
	UTCOffsetHours   int
	MatricYear       int
	CalendarYears    int
	ErrorDetailLimit int
	ResultCacheTTL   time.Duration
}

// SyncService runs reconciliation for one user at a time and records the outcome.
type SyncService struct {
	settings  syncSettingsRepository
	history   syncHistoryRepository
	adapters  AdapterFactory
	box       *secret.Box
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SyncConfig
	defaults  calendar.Defaults
	loc       *time.Location
	queue     syncQueue
	now       func() time.Time
}

// NewSyncService constructs the service. cache, metrics and the queue are optional.
func NewSyncService(
	settings syncSettingsRepository,
	history syncHistoryRepository,
	adapters AdapterFactory,
	box *secret.Box,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SyncConfig,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ErrorDetailLimit <= 0 {
		cfg.ErrorDetailLimit = 10
	}
	if cfg.MatricYear <= 0 {
		cfg.MatricYear = time.Now().Year() - 1
	}
	return &SyncService{
		settings:  settings,
		history:   history,
		adapters:  adapters,
		box:       box,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		defaults:  calendar.DefaultCalendar(cfg.MatricYear, cfg.CalendarYears),
		loc:       calendar.FixedZone(cfg.UTCOffsetHours),
		now:       time.Now,
	}
}

// SetQueue enables asynchronous runs.
func (s *SyncService) SetQueue(queue syncQueue) {
	s.queue = queue
}

// Sync runs one reconciliation for userID and blocks until it finishes. Item and run
// failures are reported in the response; only configuration problems return an error.
func (s *SyncService) Sync(ctx context.Context, userID string, req dto.SyncRequest, trigger string) (*dto.SyncResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync request")
	}
	if trigger == "" {
		trigger = models.SyncTriggerManual
	}

	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireSyncSettings(settings); err != nil {
		return nil, err
	}

	runLogger := applogger.ForRun(s.logger, userID, uuid.NewString()).With(zap.String("trigger", trigger))
	adapters, err := s.adapters.Build(settings, runLogger)
	if err != nil {
		return nil, err
	}
	engine, err := reconcile.New(adapters.Source, adapters.Destination, s.bucketer(settings), reconcile.Options{
		ParentPageID:  settings.NotionPageID,
		PropertyNames: settings.DBProperties,
		Rebind:        adapters.Rebind,
		Logger:        runLogger,
		Now:           s.now,
	})
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, reconcile.Request{Scope: req.Scope(), Timeframe: req.Timeframe})
	if err != nil {
		return nil, err
	}

	// Bookkeeping outlives a cancelled request.
	bookkeeping := context.WithoutCancel(ctx)
	if result.DatabaseCreated {
		if err := s.settings.UpdateDatabaseID(bookkeeping, userID, result.DatabaseID); err != nil {
			runLogger.Warn("failed to store created database id", zap.String("database_id", result.DatabaseID), zap.Error(err))
		}
	}

	resp := s.toResponse(result, trigger)
	s.recordHistory(bookkeeping, runLogger, &models.SyncHistory{
		UserID:        userID,
		Action:        models.SyncActionSync,
		Status:        resp.Status,
		Trigger:       trigger,
		CreatedCount:  result.Created,
		UpdatedCount:  result.Updated,
		ErrorCount:    len(result.Errors),
		ErrorMessages: models.ErrorList(resp.Errors),
		DatabaseID:    optionalString(result.DatabaseID),
		StartedAt:     result.StartedAt,
		FinishedAt:    result.FinishedAt,
	})
	_ = s.cache.StoreResult(bookkeeping, userID, resp, s.cfg.ResultCacheTTL)
	s.metrics.ObserveSync(trigger, result)
	return resp, nil
}

// Enqueue schedules a sync for userID on the worker queue.
func (s *SyncService) Enqueue(ctx context.Context, userID string, req dto.SyncRequest) (*dto.SyncJobResponse, error) {
	return s.enqueue(ctx, userID, req, models.SyncTriggerAsync)
}

func (s *SyncService) enqueue(ctx context.Context, userID string, req dto.SyncRequest, trigger string) (*dto.SyncJobResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "asynchronous sync is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync request")
	}
	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireSyncSettings(settings); err != nil {
		return nil, err
	}

	job := jobs.Job{
		ID:       uuid.NewString(),
		Type:     JobTypeSync,
		UserID:   userID,
		Payload:  syncJobPayload{Request: req, Trigger: trigger},
		Enqueued: s.now().UTC(),
	}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, jobs.ErrUserBusy) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a sync is already queued or running")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to enqueue sync")
	}
	s.logger.Info("sync enqueued", zap.String("user_id", userID), zap.String("job_id", job.ID), zap.String("trigger", trigger))
	return &dto.SyncJobResponse{JobID: job.ID, Status: "queued", Enqueued: job.Enqueued}, nil
}

type syncJobPayload struct {
	Request dto.SyncRequest
	Trigger string
}

// HandleJob executes a queued sync. Configuration errors are not retried.
func (s *SyncService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(syncJobPayload)
	if !ok {
		s.logger.Error("unexpected sync job payload", zap.String("job_id", job.ID))
		return nil
	}
	_, err := s.Sync(ctx, job.UserID, payload.Request, payload.Trigger)
	if err != nil && errors.Is(err, appErrors.ErrConfiguration) {
		s.logger.Warn("queued sync skipped", zap.String("job_id", job.ID), zap.String("user_id", job.UserID), zap.Error(err))
		return nil
	}
	return err
}

// RunScheduled queues a sync for every user with auto sync enabled. Users that already
// have a run in flight are skipped.
func (s *SyncService) RunScheduled(ctx context.Context) error {
	userIDs, err := s.settings.ListAutoSyncUsers(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list auto sync users")
	}
	req := dto.SyncRequest{Timeframe: "upcoming", CourseScope: string(models.CourseScopeRecent)}
	queued := 0
	for _, userID := range userIDs {
		if s.queue == nil {
			if _, err := s.Sync(ctx, userID, req, models.SyncTriggerScheduled); err != nil {
				s.logger.Warn("scheduled sync failed", zap.String("user_id", userID), zap.Error(err))
			}
			continue
		}
		if _, err := s.enqueue(ctx, userID, req, models.SyncTriggerScheduled); err != nil {
			s.logger.Warn("scheduled sync not queued", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		queued++
	}
	s.logger.Info("scheduled sync pass", zap.Int("users", len(userIDs)), zap.Int("queued", queued))
	return nil
}

// CreateDatabase creates a destination database under the user's parent page right away
// and stores its id.
func (s *SyncService) CreateDatabase(ctx context.Context, userID string, req dto.CreateDatabaseRequest) (*dto.CreateDatabaseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid database request")
	}
	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	started := s.now().UTC()
	if settings.NotionToken == "" || settings.NotionPageID == "" {
		message := "notion token and parent page id are required"
		s.recordHistory(context.WithoutCancel(ctx), s.logger, &models.SyncHistory{
			UserID:        userID,
			Action:        models.SyncActionCreateDatabase,
			Status:        models.SyncStatusError,
			Trigger:       models.SyncTriggerManual,
			ErrorCount:    1,
			ErrorMessages: models.ErrorList{{Action: models.SyncActionCreateDatabase, Error: message}},
			StartedAt:     started,
			FinishedAt:    started,
		})
		return nil, appErrors.Clone(appErrors.ErrConfiguration, message)
	}
	requested := req.Properties
	if len(requested) == 0 {
		requested = settings.DBProperties
	}
	properties := knownProperties(requested, s.logger)

	adapters, err := s.adapters.Build(settings, s.logger)
	if err != nil {
		return nil, err
	}
	databaseID, createErr := adapters.Destination.CreateDatabase(ctx, settings.NotionPageID, properties)

	history := &models.SyncHistory{
		UserID:     userID,
		Action:     models.SyncActionCreateDatabase,
		Status:     models.SyncStatusSuccess,
		Trigger:    models.SyncTriggerManual,
		DatabaseID: optionalString(databaseID),
		StartedAt:  started,
		FinishedAt: s.now().UTC(),
	}
	if createErr != nil {
		history.Status = models.SyncStatusError
		history.ErrorCount = 1
		history.ErrorMessages = models.ErrorList{{Action: models.SyncActionCreateDatabase, Error: createErr.Error()}}
	}
	s.recordHistory(context.WithoutCancel(ctx), s.logger, history)
	if createErr != nil {
		return nil, appErrors.Wrap(createErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create database")
	}

	if err := s.settings.UpdateDatabaseID(ctx, userID, databaseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store database id")
	}
	s.metrics.ObserveDatabaseCreated()
	return &dto.CreateDatabaseResponse{DatabaseID: databaseID, Properties: append([]string{}, properties...)}, nil
}

// Latest returns the most recent run of a user, preferring the cached copy. The boolean
// reports a cache hit.
func (s *SyncService) Latest(ctx context.Context, userID string) (*dto.SyncResponse, bool, error) {
	if cached, hit, err := s.cache.LatestResult(ctx, userID); err == nil && hit {
		return cached, true, nil
	}

	history, err := s.history.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no sync has run yet")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest sync")
	}
	resp := &dto.SyncResponse{
		Status:     history.Status,
		Created:    history.CreatedCount,
		Updated:    history.UpdatedCount,
		ErrorCount: history.ErrorCount,
		Errors:     append([]models.SyncError{}, history.ErrorMessages...),
		Trigger:    history.Trigger,
		StartedAt:  history.StartedAt,
		FinishedAt: history.FinishedAt,
	}
	if history.DatabaseID != nil {
		resp.DatabaseID = *history.DatabaseID
	}
	return resp, false, nil
}

// History lists the audit trail of a user.
func (s *SyncService) History(ctx context.Context, userID string, query dto.SyncHistoryQuery) ([]models.SyncHistory, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid history query")
	}
	filter := models.SyncHistoryFilter{
		UserID:   userID,
		Action:   models.SyncAction(query.Action),
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	items, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sync history")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ResolveCalendar previews the semester and week a due value falls into for userID.
func (s *SyncService) ResolveCalendar(ctx context.Context, userID, due string) (*dto.CalendarResolution, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if settings == nil {
		settings = &models.UserSettings{UserID: userID}
	}
	b := s.bucketer(settings)
	bucket, err := b.Resolve(due)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
	}
	local, err := calendar.FormatDue(due, b.Location())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
	}
	return &dto.CalendarResolution{Due: due, DueLocal: local, Semester: bucket.Semester, Week: bucket.Week}, nil
}

// loadSettings fetches settings and opens sealed tokens.
func (s *SyncService) loadSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, "sync settings not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	opened := *settings
	if opened.CanvasToken, err = s.box.Open(settings.CanvasToken); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "stored canvas token cannot be decrypted")
	}
	if opened.NotionToken, err = s.box.Open(settings.NotionToken); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "stored notion token cannot be decrypted")
	}
	return &opened, nil
}

func (s *SyncService) bucketer(settings *models.UserSettings) *calendar.Bucketer {
	return calendar.NewBucketer(calendar.Config{
		Phases:      settings.SemesterPhases,
		CustomStart: settings.SemesterStartDate,
		CustomEnd:   settings.SemesterEndDate,
		CustomLabel: settings.SemesterLabel,
	}, s.defaults, s.loc)
}

func (s *SyncService) toResponse(result *models.SyncResult, trigger string) *dto.SyncResponse {
	return &dto.SyncResponse{
		Status:          result.Status(),
		Created:         result.Created,
		Updated:         result.Updated,
		ErrorCount:      len(result.Errors),
		Errors:          result.CappedErrors(s.cfg.ErrorDetailLimit),
		DatabaseID:      result.DatabaseID,
		DatabaseCreated: result.DatabaseCreated,
		Trigger:         trigger,
		StartedAt:       result.StartedAt,
		FinishedAt:      result.FinishedAt,
	}
}

func (s *SyncService) recordHistory(ctx context.Context, logger *zap.Logger, history *models.SyncHistory) {
	if err := s.history.Create(ctx, history); err != nil {
		logger.Warn("failed to record sync history", zap.String("action", string(history.Action)), zap.Error(err))
	}
}

// requireSyncSettings reports every missing credential or id in one error.
func requireSyncSettings(settings *models.UserSettings) error {
	var missing []string
	if settings.CanvasToken == "" {
		missing = append(missing, "canvas token")
	}
	if settings.SchoolDomain == "" {
		missing = append(missing, "school domain")
	}
	if settings.NotionToken == "" {
		missing = append(missing, "notion token")
	}
	if settings.NotionDatabaseID == "" && settings.NotionPageID == "" {
		missing = append(missing, "notion database id or parent page id")
	}
	if len(missing) == 0 {
		return nil
	}
	return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
