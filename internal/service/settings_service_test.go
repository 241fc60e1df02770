package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/dto"
	"github.com/noah-isme/coursework-sync/internal/models"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/secret"
)

func strPtr(v string) *string { return &v }

func validSettingsRequest() dto.UpdateSettingsRequest {
	return dto.UpdateSettingsRequest{
		CanvasToken:  strPtr("canvas-token-1234"),
		NotionToken:  strPtr("secret_notion_5678"),
		SchoolDomain: "nus",
		NotionPageID: "parent-1",
		DBProperties: []string{"Status", "Week"},
		AutoSync:     true,
	}
}

func TestSettingsServiceUpdateSealsTokens(t *testing.T) {
	repo := &settingsRepoStub{}
	box := secret.NewBox("passphrase")
	svc := NewSettingsService(repo, box, nil, nil)

	resp, err := svc.Update(context.Background(), "user-1", validSettingsRequest())
	require.NoError(t, err)
	assert.Equal(t, "********1234", resp.CanvasToken)
	assert.Equal(t, "********5678", resp.NotionToken)
	assert.True(t, resp.AutoSync)

	stored := repo.items["user-1"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "canvas-token-1234", stored.CanvasToken)
	opened, err := box.Open(stored.CanvasToken)
	require.NoError(t, err)
	assert.Equal(t, "canvas-token-1234", opened)
	assert.Equal(t, models.StringList{"Status", "Week"}, stored.DBProperties)
}

func TestSettingsServiceUpdateKeepsOmittedTokens(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, secret.NewBox("passphrase"), nil, nil)
	_, err := svc.Update(context.Background(), "user-1", validSettingsRequest())
	require.NoError(t, err)
	sealed := repo.items["user-1"].NotionToken

	req := validSettingsRequest()
	req.CanvasToken = nil
	req.NotionToken = nil
	req.NotionDatabaseID = "db-9"
	resp, err := svc.Update(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "********5678", resp.NotionToken)
	assert.Equal(t, sealed, repo.items["user-1"].NotionToken)
	assert.Equal(t, "db-9", resp.NotionDatabaseID)
}

func TestSettingsServiceUpdateValidation(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{}, secret.NewBox(""), nil, nil)

	tests := []struct {
		name   string
		mutate func(*dto.UpdateSettingsRequest)
	}{
		{"missing domain", func(r *dto.UpdateSettingsRequest) { r.SchoolDomain = "" }},
		{"half range", func(r *dto.UpdateSettingsRequest) { r.SemesterStartDate = "2024-08-05" }},
		{"inverted range", func(r *dto.UpdateSettingsRequest) {
			r.SemesterStartDate = "2024-12-01"
			r.SemesterEndDate = "2024-08-05"
		}},
		{"bad date", func(r *dto.UpdateSettingsRequest) {
			r.SemesterStartDate = "05/08/2024"
			r.SemesterEndDate = "2024-12-01"
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validSettingsRequest()
			tc.mutate(&req)
			_, err := svc.Update(context.Background(), "user-1", req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestSettingsServiceUpdateDropsUnknownProperties(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, secret.NewBox(""), nil, nil)
	req := validSettingsRequest()
	req.DBProperties = []string{"Priority", "Week"}

	resp, err := svc.Update(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Week"}, resp.DBProperties)
	assert.Equal(t, models.StringList{"Week"}, repo.items["user-1"].DBProperties)
}

func TestSettingsServiceUpdateStoresSemesterRange(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, secret.NewBox(""), nil, nil)
	req := validSettingsRequest()
	req.SemesterStartDate = "2024-08-05"
	req.SemesterEndDate = "2024-11-30"
	req.SemesterLabel = "Exchange Term"

	resp, err := svc.Update(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "2024-08-05", resp.SemesterStartDate)
	assert.Equal(t, "2024-11-30", resp.SemesterEndDate)
	assert.Equal(t, "Exchange Term", resp.SemesterLabel)
}

func TestSettingsServiceGet(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, secret.NewBox(""), nil, nil)

	_, err := svc.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	repo.items = map[string]*models.UserSettings{"user-1": {UserID: "user-1", CanvasToken: "abcdefgh", SchoolDomain: "nus"}}
	resp, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "********efgh", resp.CanvasToken)
	assert.Equal(t, "", resp.NotionToken)

	repo.err = errors.New("db down")
	_, err = svc.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
