package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyfocus/backend/internal/middleware"
	"studyfocus/backend/internal/service"
	"studyfocus/backend/internal/timer"
)

type FocusHandler struct {
	focusService *service.FocusService
}

type startRequest struct {
	WorkspaceID *string `json:"workspaceId,omitempty"`
}

type tickRequest struct {
	Seconds int `json:"seconds"`
}

type settingsRequest struct {
	FocusMinutes            int `json:"focusMinutes"`
	ShortBreakMinutes       int `json:"shortBreakMinutes"`
	LongBreakMinutes        int `json:"longBreakMinutes"`
	SessionsBeforeLongBreak int `json:"sessionsBeforeLongBreak"`
}

func NewFocusHandler(focusService *service.FocusService) *FocusHandler {
	return &FocusHandler{focusService: focusService}
}

func (h *FocusHandler) GetState(c *gin.Context) {
	userID := middleware.UserID(c)
	state, apiErr := h.focusService.State(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeInvalidJSON(c)
			return
		}
	}

	userID := middleware.UserID(c)
	state, apiErr := h.focusService.Start(c.Request.Context(), userID, req.WorkspaceID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Pause(c *gin.Context) {
	userID := middleware.UserID(c)
	state, apiErr := h.focusService.Pause(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Reset(c *gin.Context) {
	userID := middleware.UserID(c)
	state, apiErr := h.focusService.Reset(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Tick(c *gin.Context) {
	req := tickRequest{Seconds: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeInvalidJSON(c)
			return
		}
	}

	userID := middleware.UserID(c)
	state, apiErr := h.focusService.Advance(c.Request.Context(), userID, req.Seconds)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.focusService.UpdateSettings(c.Request.Context(), userID, timer.Config{
		FocusMinutes:            req.FocusMinutes,
		ShortBreakMinutes:       req.ShortBreakMinutes,
		LongBreakMinutes:        req.LongBreakMinutes,
		SessionsBeforeLongBreak: req.SessionsBeforeLongBreak,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) GetHistory(c *gin.Context) {
	userID := middleware.UserID(c)

	limit := 50
	rawLimit := c.Query("limit")
	if rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.focusService.History(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *FocusHandler) GetStats(c *gin.Context) {
	userID := middleware.UserID(c)
	stats, apiErr := h.focusService.Stats(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
