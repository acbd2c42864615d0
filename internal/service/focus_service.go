package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"studyfocus/backend/internal/clock"
	apperrors "studyfocus/backend/internal/errors"
	"studyfocus/backend/internal/model"
	"studyfocus/backend/internal/repository"
	"studyfocus/backend/internal/streak"
	"studyfocus/backend/internal/timer"
)

// FocusService hosts one timer per user and feeds completed focus phases
// into the streak engine. Timers are process-local; only sessions, streaks,
// and preferences are durable.
type FocusService struct {
	prefRepo    *repository.PreferenceRepository
	sessionRepo *repository.SessionRepository
	engine      *streak.Engine
	clock       clock.Clock

	mu     sync.Mutex
	timers map[string]*userTimer
}

type userTimer struct {
	mu          sync.Mutex
	timer       *timer.Timer
	workspaceID *string
}

// StateView is the state snapshot returned to clients.
type StateView struct {
	Phase               timer.Phase  `json:"phase"`
	SecondsRemaining    int          `json:"secondsRemaining"`
	CompletedFocusCount int          `json:"completedFocusCount"`
	Running             bool         `json:"running"`
	Config              timer.Config `json:"config"`
}

func NewFocusService(
	prefRepo *repository.PreferenceRepository,
	sessionRepo *repository.SessionRepository,
	engine *streak.Engine,
	clk clock.Clock,
) *FocusService {
	return &FocusService{
		prefRepo:    prefRepo,
		sessionRepo: sessionRepo,
		engine:      engine,
		clock:       clk,
		timers:      make(map[string]*userTimer),
	}
}

// State returns the user's timer snapshot, creating a paused timer from the
// stored preferences on first access.
func (s *FocusService) State(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	entry, apiErr := s.getOrCreate(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	view := buildStateView(entry.timer)
	return &view, nil
}

// Start begins or resumes the countdown. The optional workspace is attached
// to sessions and streak activity recorded from this timer.
func (s *FocusService) Start(ctx context.Context, userID string, workspaceID *string) (*StateView, *apperrors.APIError) {
	entry, apiErr := s.getOrCreate(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if workspaceID != nil {
		entry.workspaceID = workspaceID
	}
	entry.timer.Start()
	view := buildStateView(entry.timer)
	return &view, nil
}

func (s *FocusService) Pause(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	entry, apiErr := s.getOrCreate(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.timer.Pause()
	view := buildStateView(entry.timer)
	return &view, nil
}

func (s *FocusService) Reset(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	entry, apiErr := s.getOrCreate(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.timer.Reset()
	view := buildStateView(entry.timer)
	return &view, nil
}

// Advance consumes elapsed seconds on a running timer. Completed focus
// phases are persisted as sessions and counted toward the streak.
func (s *FocusService) Advance(ctx context.Context, userID string, seconds int) (*StateView, *apperrors.APIError) {
	if seconds <= 0 {
		return nil, apperrors.BadRequest("invalid_seconds", "seconds must be positive")
	}

	entry, apiErr := s.getOrCreate(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	for i := 0; i < seconds; i++ {
		completed, err := entry.timer.Tick()
		if err != nil {
			if errors.Is(err, timer.ErrNotRunning) {
				return nil, apperrors.BadRequest("timer_not_running", "timer is not running")
			}
			return nil, apperrors.Internal("failed to advance timer")
		}
		if completed != nil && completed.Phase == timer.PhaseFocus {
			if _, err := s.engine.RecordFocusSession(ctx, userID, entry.workspaceID, completed.DurationMinutes); err != nil {
				return nil, apperrors.Internal("failed to record focus session")
			}
		}
	}

	view := buildStateView(entry.timer)
	return &view, nil
}

// UpdateSettings validates and persists the timer configuration, then
// applies it to the live timer under the timer's deferral rules.
func (s *FocusService) UpdateSettings(ctx context.Context, userID string, config timer.Config) (*StateView, *apperrors.APIError) {
	if err := config.Validate(); err != nil {
		return nil, apperrors.BadRequest("invalid_config", err.Error())
	}

	entry, apiErr := s.getOrCreate(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	prefs := model.Preferences{
		UserID:                  userID,
		FocusMinutes:            config.FocusMinutes,
		ShortBreakMinutes:       config.ShortBreakMinutes,
		LongBreakMinutes:        config.LongBreakMinutes,
		SessionsBeforeLongBreak: config.SessionsBeforeLongBreak,
		UpdatedAt:               s.clock.Now(),
	}
	if err := s.prefRepo.Upsert(ctx, &prefs); err != nil {
		return nil, apperrors.Internal("failed to save preferences")
	}

	if err := entry.timer.ApplyConfig(config); err != nil {
		return nil, apperrors.BadRequest("invalid_config", err.Error())
	}

	view := buildStateView(entry.timer)
	return &view, nil
}

func (s *FocusService) History(ctx context.Context, userID string, limit int) ([]model.Session, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.sessionRepo.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

func (s *FocusService) Stats(ctx context.Context, userID string) (*streak.Stats, *apperrors.APIError) {
	stats, err := s.engine.UserStats(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to get stats")
	}
	return &stats, nil
}

// Run drives running timers once per interval until ctx is cancelled. This
// is the external clock loop; the timers themselves never read the clock.
func (s *FocusService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickAll(ctx)
		}
	}
}

func (s *FocusService) tickAll(ctx context.Context) {
	s.mu.Lock()
	entries := make(map[string]*userTimer, len(s.timers))
	for userID, entry := range s.timers {
		entries[userID] = entry
	}
	s.mu.Unlock()

	for userID, entry := range entries {
		entry.mu.Lock()
		if !entry.timer.Snapshot().Running {
			entry.mu.Unlock()
			continue
		}
		completed, err := entry.timer.Tick()
		workspaceID := entry.workspaceID
		entry.mu.Unlock()

		if err != nil {
			continue
		}
		if completed != nil && completed.Phase == timer.PhaseFocus {
			if _, err := s.engine.RecordFocusSession(ctx, userID, workspaceID, completed.DurationMinutes); err != nil {
				log.Printf("record focus session for %s: %v", userID, err)
			}
		}
	}
}

func (s *FocusService) getOrCreate(ctx context.Context, userID string) (*userTimer, *apperrors.APIError) {
	s.mu.Lock()
	if entry, ok := s.timers[userID]; ok {
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	config, apiErr := s.loadConfig(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	t, err := timer.New(config)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_config", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.timers[userID]; ok {
		return entry, nil
	}
	entry := &userTimer{timer: t}
	s.timers[userID] = entry
	return entry, nil
}

func (s *FocusService) loadConfig(ctx context.Context, userID string) (timer.Config, *apperrors.APIError) {
	prefs, err := s.prefRepo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		return timer.DefaultConfig(), nil
	}
	if err != nil {
		return timer.Config{}, apperrors.Internal("failed to load preferences")
	}
	return timer.Config{
		FocusMinutes:            prefs.FocusMinutes,
		ShortBreakMinutes:       prefs.ShortBreakMinutes,
		LongBreakMinutes:        prefs.LongBreakMinutes,
		SessionsBeforeLongBreak: prefs.SessionsBeforeLongBreak,
	}, nil
}

func buildStateView(t *timer.Timer) StateView {
	snapshot := t.Snapshot()
	return StateView{
		Phase:               snapshot.Phase,
		SecondsRemaining:    snapshot.SecondsRemaining,
		CompletedFocusCount: snapshot.CompletedFocusCount,
		Running:             snapshot.Running,
		Config:              t.Config(),
	}
}
