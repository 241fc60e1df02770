package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/dto"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

type settingsServiceMock struct {
	resp    *dto.SettingsResponse
	err     error
	updated dto.UpdateSettingsRequest
}

func (m *settingsServiceMock) Get(ctx context.Context, userID string) (*dto.SettingsResponse, error) {
	return m.resp, m.err
}

func (m *settingsServiceMock) Update(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	m.updated = req
	return m.resp, m.err
}

func TestSettingsHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(&settingsServiceMock{resp: &dto.SettingsResponse{CanvasToken: "********1234"}})

	c, w := newGinContext(http.MethodGet, "/settings", nil)
	withUser(c)
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "********1234")

	handler = NewSettingsHandler(&settingsServiceMock{err: appErrors.ErrNotFound})
	c, w = newGinContext(http.MethodGet, "/settings", nil)
	withUser(c)
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &settingsServiceMock{resp: &dto.SettingsResponse{SchoolDomain: "nus"}}
	handler := NewSettingsHandler(mockSvc)

	c, w := newGinContext(http.MethodPut, "/settings", []byte(`{"school_domain":"nus","notion_page_id":"p-1","canvas_token":"abcdefgh","auto_sync":true}`))
	withUser(c)
	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.updated.CanvasToken)
	assert.Equal(t, "abcdefgh", *mockSvc.updated.CanvasToken)
	assert.Nil(t, mockSvc.updated.NotionToken)
	assert.True(t, mockSvc.updated.AutoSync)
}

func TestSettingsHandlerUpdateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(&settingsServiceMock{})

	c, w := newGinContext(http.MethodPut, "/settings", []byte(`{"school_domain":`))
	withUser(c)
	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
