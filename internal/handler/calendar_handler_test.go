package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/coursework-sync/internal/dto"
)

type resolverMock struct {
	userID string
}

func (m *resolverMock) ResolveCalendar(ctx context.Context, userID, due string) (*dto.CalendarResolution, error) {
	m.userID = userID
	return &dto.CalendarResolution{Due: due, Semester: "AY2024/2025 Semester 1", Week: "Week 6"}, nil
}

func TestCalendarHandlerResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := &resolverMock{}
	handler := NewCalendarHandler(resolver)

	c, w := newGinContext(http.MethodGet, "/calendar/resolve?due=2024-09-15", nil)
	handler.Resolve(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", resolver.userID)
	assert.Contains(t, w.Body.String(), "Week 6")

	c, _ = newGinContext(http.MethodGet, "/calendar/resolve?due=2024-09-15", nil)
	withUser(c)
	handler.Resolve(c)
	assert.Equal(t, "user-1", resolver.userID)
}

func TestCalendarHandlerRequiresDue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCalendarHandler(&resolverMock{})

	c, w := newGinContext(http.MethodGet, "/calendar/resolve", nil)
	handler.Resolve(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
