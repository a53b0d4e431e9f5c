package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EngagementHandler struct {
	engagementService service.EngagementService
}

func NewEngagementHandler(engagementService service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

func (h *EngagementHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Anonymous shoppers produce events too, so no auth requirement here.
	router.POST("/api/events", h.RecordEvent)
}

// RecordEvent appends one engagement event
// @Summary      Record an engagement event
// @Description  Logs a product view, cart add/remove or wishlist add for interest metrics
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RecordEventRequest  true  "Event Payload"
// @Success      201      {object}  response.Response{data=service.EventResponse}
// @Failure      400      {object}  response.Response "Unknown event type"
// @Failure      404      {object}  response.Response "Unknown product"
// @Router       /api/events [post]
func (h *EngagementHandler) RecordEvent(c *gin.Context) {
	var req service.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	var customerID *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		customerID = &id
	}

	event, err := h.engagementService.Record(c.Request.Context(), customerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, event))
}
