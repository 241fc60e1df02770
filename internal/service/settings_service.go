package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/calendar"
	"github.com/noah-isme/coursework-sync/internal/dto"
	"github.com/noah-isme/coursework-sync/internal/models"
	"github.com/noah-isme/coursework-sync/internal/notion"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/secret"
)

const dateLayout = "2006-01-02"

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Upsert(ctx context.Context, settings *models.UserSettings) error
}

// SettingsService manages per-user sync settings. Tokens are sealed before storage
// and never returned in clear.
type SettingsService struct {
	repo      settingsRepository
	box       *secret.Box
	validator *validator.Validate
	logger    *zap.Logger
	cache     *CacheService
}

// NewSettingsService constructs the service.
func NewSettingsService(repo settingsRepository, box *secret.Box, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, box: box, validator: validate, logger: logger}
}

// WithCache drops the cached latest result whenever settings change.
func (s *SettingsService) WithCache(cache *CacheService) *SettingsService {
	s.cache = cache
	return s
}

// Get returns the masked settings of a user.
func (s *SettingsService) Get(ctx context.Context, userID string) (*dto.SettingsResponse, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sync settings not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return s.toResponse(settings)
}

// Update validates and stores settings. Omitted tokens keep their stored value.
func (s *SettingsService) Update(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	current, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = &models.UserSettings{UserID: userID}
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	start, end, err := parseSemesterRange(req.SemesterStartDate, req.SemesterEndDate)
	if err != nil {
		return nil, err
	}

	next := *current
	next.UserID = userID
	next.SchoolDomain = strings.TrimSpace(req.SchoolDomain)
	next.NotionPageID = strings.TrimSpace(req.NotionPageID)
	next.NotionDatabaseID = strings.TrimSpace(req.NotionDatabaseID)
	next.DBProperties = models.StringList(knownProperties(req.DBProperties, s.logger))
	next.SemesterStartDate = start
	next.SemesterEndDate = end
	next.SemesterLabel = strings.TrimSpace(req.SemesterLabel)
	next.SemesterPhases = models.PhaseList(req.SemesterPhases)
	next.AutoSync = req.AutoSync

	if req.CanvasToken != nil {
		if next.CanvasToken, err = s.box.Seal(strings.TrimSpace(*req.CanvasToken)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal canvas token")
		}
	}
	if req.NotionToken != nil {
		if next.NotionToken, err = s.box.Seal(strings.TrimSpace(*req.NotionToken)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal notion token")
		}
	}

	if err := s.repo.Upsert(ctx, &next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	_ = s.cache.DropResult(ctx, userID)
	s.logger.Info("settings updated", zap.String("user_id", userID), zap.Bool("auto_sync", next.AutoSync))
	return s.toResponse(&next)
}

func (s *SettingsService) toResponse(settings *models.UserSettings) (*dto.SettingsResponse, error) {
	canvasToken, err := s.box.Open(settings.CanvasToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored credentials cannot be decrypted")
	}
	notionToken, err := s.box.Open(settings.NotionToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored credentials cannot be decrypted")
	}
	resp := &dto.SettingsResponse{
		CanvasToken:      secret.Mask(canvasToken),
		NotionToken:      secret.Mask(notionToken),
		SchoolDomain:     settings.SchoolDomain,
		NotionPageID:     settings.NotionPageID,
		NotionDatabaseID: settings.NotionDatabaseID,
		DBProperties:     append([]string{}, settings.DBProperties...),
		SemesterLabel:    settings.SemesterLabel,
		SemesterPhases:   append([]models.Phase{}, settings.SemesterPhases...),
		AutoSync:         settings.AutoSync,
		UpdatedAt:        settings.UpdatedAt,
	}
	if settings.SemesterStartDate != nil {
		resp.SemesterStartDate = settings.SemesterStartDate.Format(dateLayout)
	}
	if settings.SemesterEndDate != nil {
		resp.SemesterEndDate = settings.SemesterEndDate.Format(dateLayout)
	}
	return resp, nil
}

// knownProperties keeps the names found in the destination catalog. Unknown names are
// dropped, not rejected, so a partially provisioned database still syncs.
func knownProperties(names []string, logger *zap.Logger) []string {
	kept := make([]string, 0, len(names))
	var dropped []string
	for _, name := range names {
		if notion.KnownProperty(name) {
			kept = append(kept, name)
			continue
		}
		dropped = append(dropped, name)
	}
	if len(dropped) > 0 {
		logger.Info("ignoring unknown database properties", zap.Strings("properties", dropped))
	}
	return kept
}

// parseSemesterRange accepts either both bounds or neither.
func parseSemesterRange(rawStart, rawEnd string) (*time.Time, *time.Time, error) {
	if rawStart == "" && rawEnd == "" {
		return nil, nil, nil
	}
	if rawStart == "" || rawEnd == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "semester start and end dates must be set together")
	}
	start, err := calendar.ParseDate(rawStart)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester start date")
	}
	end, err := calendar.ParseDate(rawEnd)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester end date")
	}
	if end.Before(start) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "semester end date is before start date")
	}
	return &start, &end, nil
}
