package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/canvas"
	"github.com/noah-isme/coursework-sync/internal/models"
	"github.com/noah-isme/coursework-sync/internal/notion"
	"github.com/noah-isme/coursework-sync/internal/reconcile"
	"github.com/noah-isme/coursework-sync/pkg/config"
)

var (
	_ reconcile.SourceAdapter      = (*canvas.Client)(nil)
	_ reconcile.DestinationAdapter = (*notion.Client)(nil)
)

// Adapters are the per-run collaborators of the reconciliation engine.
type Adapters struct {
	Source      reconcile.SourceAdapter
	Destination reconcile.DestinationAdapter
	Rebind      reconcile.Rebinder
}

// AdapterFactory builds fresh adapters for one run from decrypted settings.
type AdapterFactory interface {
	Build(settings *models.UserSettings, logger *zap.Logger) (*Adapters, error)
}

// HTTPAdapterFactory builds Canvas and Notion REST clients.
type HTTPAdapterFactory struct {
	Canvas config.CanvasConfig
	Notion config.NotionConfig
}

// Build returns new clients, so schema and index caches never outlive a run.
func (f HTTPAdapterFactory) Build(settings *models.UserSettings, logger *zap.Logger) (*Adapters, error) {
	source, err := canvas.NewClient(canvas.Options{
		Token:           settings.CanvasToken,
		SchoolDomain:    settings.SchoolDomain,
		BaseURLTemplate: f.Canvas.BaseURLTemplate,
		Timeout:         f.Canvas.Timeout,
		MaxRetries:      f.Notion.MaxRetries,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	dest, err := notion.NewClient(notion.Options{
		Token:      settings.NotionToken,
		DatabaseID: settings.NotionDatabaseID,
		BaseURL:    f.Notion.BaseURL,
		APIVersion: f.Notion.Version,
		Timeout:    f.Notion.Timeout,
		MaxRetries: f.Notion.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &Adapters{
		Source:      source,
		Destination: dest,
		Rebind: func(databaseID string) reconcile.DestinationAdapter {
			return dest.WithDatabase(databaseID)
		},
	}, nil
}
