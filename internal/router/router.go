package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyfocus/backend/internal/handler"
	"studyfocus/backend/internal/middleware"
	"studyfocus/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	focusHandler *handler.FocusHandler,
	streakHandler *handler.StreakHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	focus := api.Group("/focus")
	focus.Use(middleware.Auth(authService))
	focus.GET("/state", focusHandler.GetState)
	focus.POST("/start", focusHandler.Start)
	focus.POST("/pause", focusHandler.Pause)
	focus.POST("/reset", focusHandler.Reset)
	focus.POST("/tick", focusHandler.Tick)
	focus.PUT("/settings", focusHandler.UpdateSettings)
	focus.GET("/history", focusHandler.GetHistory)
	focus.GET("/stats", focusHandler.GetStats)

	streaks := api.Group("/streaks")
	streaks.Use(middleware.Auth(authService))
	streaks.POST("/activity", streakHandler.RecordActivity)
	streaks.GET("/current", streakHandler.GetCurrent)
	streaks.GET("/leaderboard", streakHandler.GetLeaderboard)

	return engine
}
