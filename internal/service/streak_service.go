package service

import (
	"context"

	"studyfocus/backend/internal/clock"
	apperrors "studyfocus/backend/internal/errors"
	"studyfocus/backend/internal/model"
	"studyfocus/backend/internal/streak"
)

// StreakService exposes streak queries and activity recording for events
// outside the timer, such as quiz attempts or resource uploads reported by
// other parts of the application.
type StreakService struct {
	engine *streak.Engine
	clock  clock.Clock
}

func NewStreakService(engine *streak.Engine, clk clock.Clock) *StreakService {
	return &StreakService{engine: engine, clock: clk}
}

func (s *StreakService) RecordActivity(ctx context.Context, userID string, workspaceID *string) (*model.Streak, *apperrors.APIError) {
	if err := s.engine.RecordActivity(ctx, userID, workspaceID, s.clock.Today()); err != nil {
		return nil, apperrors.Internal("failed to record activity")
	}
	current, err := s.engine.CurrentStreak(ctx, userID, workspaceID)
	if err != nil {
		return nil, apperrors.Internal("failed to load streak")
	}
	return &current, nil
}

func (s *StreakService) CurrentStreak(ctx context.Context, userID string, workspaceID *string) (*model.Streak, *apperrors.APIError) {
	current, err := s.engine.CurrentStreak(ctx, userID, workspaceID)
	if err != nil {
		return nil, apperrors.Internal("failed to load streak")
	}
	return &current, nil
}

func (s *StreakService) Leaderboard(ctx context.Context, workspaceID string) ([]streak.LeaderboardEntry, *apperrors.APIError) {
	if workspaceID == "" {
		return nil, apperrors.BadRequest("invalid_workspace", "workspaceId is required")
	}
	entries, err := s.engine.Leaderboard(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.Internal("failed to load leaderboard")
	}
	return entries, nil
}
