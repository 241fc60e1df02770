package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/export"
)

const (
	exportPageSize = 200
	exportMaxRows  = 5000
)

type historyLister interface {
	List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistory, int, error)
}

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the sync audit trail as CSV or PDF.
type ExportService struct {
	history   historyLister
	renderers map[string]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(history historyLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		history: history,
		renderers: map[string]renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ExportHistory renders every history row of userID in the requested format.
func (s *ExportService) ExportHistory(ctx context.Context, userID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}

	var rows []models.SyncHistory
	for page := 1; len(rows) < exportMaxRows; page++ {
		items, total, err := s.history.List(ctx, models.SyncHistoryFilter{UserID: userID, Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sync history")
		}
		rows = append(rows, items...)
		if len(items) < exportPageSize || len(rows) >= total {
			break
		}
	}
	if len(rows) > exportMaxRows {
		rows = rows[:exportMaxRows]
	}

	body, err := r.Render(historyDataset(rows), "Sync history")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("history exported", zap.String("user_id", userID), zap.String("format", format), zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("sync-history-%s.%s", s.now().UTC().Format("20060102-150405"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func historyDataset(items []models.SyncHistory) export.Dataset {
	headers := []string{"Started", "Action", "Trigger", "Status", "Created", "Updated", "Errors", "Database", "First error"}
	rows := make([]map[string]string, 0, len(items))
	for _, h := range items {
		row := map[string]string{
			"Started": h.StartedAt.UTC().Format(time.RFC3339),
			"Action":  string(h.Action),
			"Trigger": h.Trigger,
			"Status":  h.Status,
			"Created": strconv.Itoa(h.CreatedCount),
			"Updated": strconv.Itoa(h.UpdatedCount),
			"Errors":  strconv.Itoa(h.ErrorCount),
		}
		if h.DatabaseID != nil {
			row["Database"] = *h.DatabaseID
		}
		if len(h.ErrorMessages) > 0 {
			first := h.ErrorMessages[0]
			msg := first.Error
			if msg == "" {
				msg = first.Response
			}
			row["First error"] = strings.TrimSpace(fmt.Sprintf("%s %s %s", first.Action, first.Course, msg))
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Headers: headers,
		Rows:    rows,
		Widths:  []float64{2.2, 1, 1, 1, 0.8, 0.8, 0.8, 2.2, 4},
	}
}
