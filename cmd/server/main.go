package main

import (
	"context"
	"log"

	"studyfocus/backend/internal/clock"
	"studyfocus/backend/internal/config"
	"studyfocus/backend/internal/db"
	"studyfocus/backend/internal/handler"
	"studyfocus/backend/internal/repository"
	"studyfocus/backend/internal/router"
	"studyfocus/backend/internal/service"
	"studyfocus/backend/internal/streak"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	prefRepo := repository.NewPreferenceRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	streakRepo := repository.NewStreakRepository(database)

	systemClock := clock.System{}
	engine := streak.NewEngine(sessionRepo, streakRepo, systemClock)

	authService := service.NewAuthService(userRepo, prefRepo, cfg.JWTSecret, cfg.TokenTTL)
	focusService := service.NewFocusService(prefRepo, sessionRepo, engine, systemClock)
	streakService := service.NewStreakService(engine, systemClock)

	authHandler := handler.NewAuthHandler(authService)
	focusHandler := handler.NewFocusHandler(focusService)
	streakHandler := handler.NewStreakHandler(streakService)

	go focusService.Run(context.Background(), cfg.TickInterval)

	httpEngine := router.New(authService, authHandler, focusHandler, streakHandler, cfg.CORSOrigins)
	log.Printf("backend listening on :%s", cfg.Port)
	if err := httpEngine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
