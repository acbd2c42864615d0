package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyfocus/backend/internal/middleware"
	"studyfocus/backend/internal/service"
)

type StreakHandler struct {
	streakService *service.StreakService
}

type activityRequest struct {
	WorkspaceID *string `json:"workspaceId,omitempty"`
}

func NewStreakHandler(streakService *service.StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

// RecordActivity registers a qualifying activity outside the timer, such as
// a quiz attempt or a resource upload.
func (h *StreakHandler) RecordActivity(c *gin.Context) {
	var req activityRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeInvalidJSON(c)
			return
		}
	}

	userID := middleware.UserID(c)
	current, apiErr := h.streakService.RecordActivity(c.Request.Context(), userID, req.WorkspaceID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": current})
}

func (h *StreakHandler) GetCurrent(c *gin.Context) {
	userID := middleware.UserID(c)

	var workspaceID *string
	if raw := c.Query("workspaceId"); raw != "" {
		workspaceID = &raw
	}

	current, apiErr := h.streakService.CurrentStreak(c.Request.Context(), userID, workspaceID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": current})
}

func (h *StreakHandler) GetLeaderboard(c *gin.Context) {
	workspaceID := c.Query("workspaceId")
	entries, apiErr := h.streakService.Leaderboard(c.Request.Context(), workspaceID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
