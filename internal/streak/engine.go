// Package streak implements daily-streak and XP accounting over completed
// focus sessions. Durable state lives behind the SessionStore and
// StreakStore ports; the engine itself performs no I/O beyond them and no
// retries.
package streak

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyfocus/backend/internal/clock"
	"studyfocus/backend/internal/model"
)

// Reference XP rate: a standard 25 minute focus session earns 15 XP, scaled
// proportionally for other durations.
const (
	referenceMinutes = 25
	referenceXP      = 15
)

// ScoreMultiplier converts streak days to a leaderboard score.
const ScoreMultiplier = 100

// SessionStore persists completed sessions and answers aggregate queries.
type SessionStore interface {
	CreateSession(ctx context.Context, session *model.Session) error
	CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountSessions(ctx context.Context, userID string) (int, error)
	SumFocusMinutes(ctx context.Context, userID string) (int, error)
}

// LeaderboardRow pairs a current streak with the owning user's display name.
type LeaderboardRow struct {
	UserID    string
	FullName  string
	DaysCount int
}

// StreakStore persists streak rows. FindCurrent returns (nil, nil) when the
// pair has no current streak. CloseAndOpen applies both writes atomically:
// either the old row is closed and the fresh one exists, or neither change
// is visible. Implementations must serialize the find-then-write sequence
// for one (user, workspace) pair against concurrent writers, e.g. with a
// transaction plus a unique constraint on current rows.
type StreakStore interface {
	FindCurrent(ctx context.Context, userID string, workspaceID *string) (*model.Streak, error)
	Create(ctx context.Context, streak *model.Streak) error
	Update(ctx context.Context, streak *model.Streak) error
	CloseAndOpen(ctx context.Context, closed *model.Streak, fresh *model.Streak) error
	ListCurrentByWorkspace(ctx context.Context, workspaceID string) ([]LeaderboardRow, error)
}

// LeaderboardEntry is one ranked row of a workspace leaderboard.
type LeaderboardEntry struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	DaysCount int    `json:"daysCount"`
	Score     int    `json:"score"`
}

// Stats summarises a user's focus activity.
type Stats struct {
	TodaysSessions    int     `json:"todaysSessions"`
	TodaysXP          int     `json:"todaysXp"`
	TotalSessions     int     `json:"totalSessions"`
	TotalFocusHours   float64 `json:"totalFocusHours"`
	CurrentStreakDays int     `json:"currentStreakDays"`
}

// Engine records activity and maintains streak state per (user, workspace)
// key. Calls for the same key are serialized in-process; the store's
// constraints back the single-current-streak invariant across processes.
type Engine struct {
	sessions SessionStore
	streaks  StreakStore
	clock    clock.Clock

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

func NewEngine(sessions SessionStore, streaks StreakStore, clk clock.Clock) *Engine {
	return &Engine{
		sessions: sessions,
		streaks:  streaks,
		clock:    clk,
		keys:     make(map[string]*sync.Mutex),
	}
}

// XPForDuration returns the XP award for a focus session of the given
// length: round(minutes / 25 * 15).
func XPForDuration(durationMinutes int) int {
	return int(math.Round(float64(durationMinutes) / referenceMinutes * referenceXP))
}

// RecordFocusSession persists a completed focus session with its XP award
// and registers today's activity for the streak.
func (e *Engine) RecordFocusSession(ctx context.Context, userID string, workspaceID *string, durationMinutes int) (*model.Session, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("record focus session: duration must be positive, got %d", durationMinutes)
	}

	session := &model.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		WorkspaceID:     workspaceID,
		Type:            model.SessionTypeFocus,
		DurationMinutes: durationMinutes,
		XPEarned:        XPForDuration(durationMinutes),
		CreatedAt:       e.clock.Now(),
	}
	if err := e.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("record focus session: %w", err)
	}

	if err := e.RecordActivity(ctx, userID, workspaceID, e.clock.Today()); err != nil {
		return nil, err
	}
	return session, nil
}

// RecordActivity registers qualifying activity on activityDate and advances
// the streak for (userID, workspaceID). Repeat calls on the same day are
// no-ops, so multiple sessions in one day count once. A one-day gap
// continues the streak; anything else closes it and opens a fresh one.
func (e *Engine) RecordActivity(ctx context.Context, userID string, workspaceID *string, activityDate time.Time) error {
	day := clock.Day(activityDate)

	lock := e.keyLock(userID, workspaceID)
	lock.Lock()
	defer lock.Unlock()

	last, err := e.streaks.FindCurrent(ctx, userID, workspaceID)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	if last == nil {
		if err := e.openStreak(ctx, userID, workspaceID, day); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	}

	lastDay := clock.Day(last.StartDate)
	switch {
	case lastDay.Equal(day):
		return nil
	case lastDay.Equal(day.AddDate(0, 0, -1)):
		last.DaysCount++
		last.StartDate = day
		if err := e.streaks.Update(ctx, last); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	default:
		endDate := lastDay
		last.Current = false
		last.EndDate = &endDate
		fresh := &model.Streak{
			ID:          uuid.NewString(),
			UserID:      userID,
			WorkspaceID: workspaceID,
			StartDate:   day,
			DaysCount:   1,
			Current:     true,
		}
		if err := e.streaks.CloseAndOpen(ctx, last, fresh); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	}
}

func (e *Engine) openStreak(ctx context.Context, userID string, workspaceID *string, day time.Time) error {
	return e.streaks.Create(ctx, &model.Streak{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		StartDate:   day,
		DaysCount:   1,
		Current:     true,
	})
}

// CurrentStreak returns the current streak for the pair, or a zero-value
// streak when the user has no activity yet.
func (e *Engine) CurrentStreak(ctx context.Context, userID string, workspaceID *string) (model.Streak, error) {
	current, err := e.streaks.FindCurrent(ctx, userID, workspaceID)
	if err != nil {
		return model.Streak{}, fmt.Errorf("current streak: %w", err)
	}
	if current == nil {
		return model.Streak{UserID: userID, WorkspaceID: workspaceID}, nil
	}
	return *current, nil
}

// Leaderboard ranks a workspace's current streaks by length, longest first.
// The score is a fixed display multiplier over the day count.
func (e *Engine) Leaderboard(ctx context.Context, workspaceID string) ([]LeaderboardEntry, error) {
	rows, err := e.streaks.ListCurrentByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LeaderboardEntry{
			UserID:    row.UserID,
			Name:      row.FullName,
			DaysCount: row.DaysCount,
			Score:     row.DaysCount * ScoreMultiplier,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries, nil
}

// UserStats aggregates session counts, XP, and streak length for a user.
func (e *Engine) UserStats(ctx context.Context, userID string) (Stats, error) {
	today := e.clock.Today()

	todays, err := e.sessions.CountSessionsSince(ctx, userID, today)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	total, err := e.sessions.CountSessions(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	focusMinutes, err := e.sessions.SumFocusMinutes(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	current, err := e.streaks.FindCurrent(ctx, userID, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	stats := Stats{
		TodaysSessions:  todays,
		TodaysXP:        todays * referenceXP,
		TotalSessions:   total,
		TotalFocusHours: float64(focusMinutes) / 60,
	}
	if current != nil {
		stats.CurrentStreakDays = current.DaysCount
	}
	return stats, nil
}

func (e *Engine) keyLock(userID string, workspaceID *string) *sync.Mutex {
	key := userID
	if workspaceID != nil {
		key += "|" + *workspaceID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.keys[key]
	if !ok {
		lock = &sync.Mutex{}
		e.keys[key] = lock
	}
	return lock
}
