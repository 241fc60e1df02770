package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursework-sync/internal/dto"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
	"github.com/noah-isme/coursework-sync/pkg/response"
)

type calendarResolver interface {
	ResolveCalendar(ctx context.Context, userID, due string) (*dto.CalendarResolution, error)
}

// CalendarHandler previews semester and week bucketing.
type CalendarHandler struct {
	resolver calendarResolver
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(resolver calendarResolver) *CalendarHandler {
	return &CalendarHandler{resolver: resolver}
}

// Resolve godoc
// @Summary Resolve semester and week
// @Description Anonymous callers get the built-in calendar; signed-in users get their custom phases and range.
// @Tags Calendar
// @Produce json
// @Param due query string true "Due date or timestamp"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/resolve [get]
func (h *CalendarHandler) Resolve(c *gin.Context) {
	due := c.Query("due")
	if due == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "due required"))
		return
	}
	var userID string
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}
	resolution, err := h.resolver.ResolveCalendar(c.Request.Context(), userID, due)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolution, nil)
}
