package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aurahq/aura-backend/internal/http/response"
	"github.com/aurahq/aura-backend/internal/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// GET /users/:id/events?from=2026-08-01&to=2026-08-31
func (h *EventHandler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid user id"))
		return
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	events, err := h.eventService.ListInRange(c.Request.Context(), userID, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// POST /users/:id/events
// body: { "type": "...", "occurred_date": "2026-08-30", "notes": "..." }
func (h *EventHandler) ReportManual(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid user id"))
		return
	}
	var req struct {
		Type         string `json:"type"`
		OccurredDate string `json:"occurred_date"`
		Notes        string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	occurred, err := time.Parse("2006-01-02", req.OccurredDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid occurred_date, want YYYY-MM-DD"))
		return
	}
	event, err := h.eventService.ReportManual(c.Request.Context(), userID, services.ManualEventInput{
		Type:         req.Type,
		OccurredDate: occurred,
		Notes:        req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}
