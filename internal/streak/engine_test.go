package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyfocus/backend/internal/clock"
	"studyfocus/backend/internal/model"
)

type fakeSessionStore struct {
	sessions []model.Session
}

func (f *fakeSessionStore) CreateSession(_ context.Context, session *model.Session) error {
	f.sessions = append(f.sessions, *session)
	return nil
}

func (f *fakeSessionStore) CountSessionsSince(_ context.Context, userID string, since time.Time) (int, error) {
	count := 0
	for _, s := range f.sessions {
		if s.UserID == userID && !s.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionStore) CountSessions(_ context.Context, userID string) (int, error) {
	count := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionStore) SumFocusMinutes(_ context.Context, userID string) (int, error) {
	minutes := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.Type == model.SessionTypeFocus {
			minutes += s.DurationMinutes
		}
	}
	return minutes, nil
}

type fakeStreakStore struct {
	streaks         []model.Streak
	names           map[string]string
	closeAndOpenErr error
}

func (f *fakeStreakStore) FindCurrent(_ context.Context, userID string, workspaceID *string) (*model.Streak, error) {
	var found *model.Streak
	for i := range f.streaks {
		s := &f.streaks[i]
		if s.UserID != userID || !s.Current {
			continue
		}
		if !sameWorkspace(s.WorkspaceID, workspaceID) {
			continue
		}
		if found == nil || s.StartDate.After(found.StartDate) {
			found = s
		}
	}
	if found == nil {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (f *fakeStreakStore) Create(_ context.Context, streak *model.Streak) error {
	f.streaks = append(f.streaks, *streak)
	return nil
}

func (f *fakeStreakStore) Update(_ context.Context, streak *model.Streak) error {
	for i := range f.streaks {
		if f.streaks[i].ID == streak.ID {
			f.streaks[i] = *streak
			return nil
		}
	}
	return nil
}

func (f *fakeStreakStore) CloseAndOpen(_ context.Context, closed *model.Streak, fresh *model.Streak) error {
	if f.closeAndOpenErr != nil {
		return f.closeAndOpenErr
	}
	for i := range f.streaks {
		if f.streaks[i].ID == closed.ID {
			f.streaks[i] = *closed
		}
	}
	f.streaks = append(f.streaks, *fresh)
	return nil
}

func (f *fakeStreakStore) ListCurrentByWorkspace(_ context.Context, workspaceID string) ([]LeaderboardRow, error) {
	rows := make([]LeaderboardRow, 0)
	for _, s := range f.streaks {
		if !s.Current || s.WorkspaceID == nil || *s.WorkspaceID != workspaceID {
			continue
		}
		rows = append(rows, LeaderboardRow{
			UserID:    s.UserID,
			FullName:  f.names[s.UserID],
			DaysCount: s.DaysCount,
		})
	}
	return rows, nil
}

func sameWorkspace(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeStreakStore) currentRows(userID string) []model.Streak {
	rows := make([]model.Streak, 0)
	for _, s := range f.streaks {
		if s.UserID == userID && s.Current {
			rows = append(rows, s)
		}
	}
	return rows
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func newTestEngine(start time.Time) (*Engine, *fakeSessionStore, *fakeStreakStore, *clock.Fake) {
	sessions := &fakeSessionStore{}
	streaks := &fakeStreakStore{names: make(map[string]string)}
	clk := clock.NewFake(start)
	return NewEngine(sessions, streaks, clk), sessions, streaks, clk
}

func TestRecordActivitySameDayIsIdempotent(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-01"))
	ctx := context.Background()

	d1 := day("2026-03-01")
	if err := engine.RecordActivity(ctx, "u1", nil, d1); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := engine.RecordActivity(ctx, "u1", nil, d1); err != nil {
		t.Fatalf("second record: %v", err)
	}

	current := streaks.currentRows("u1")
	if len(current) != 1 {
		t.Fatalf("expected exactly one current streak, got %d", len(current))
	}
	if current[0].DaysCount != 1 {
		t.Fatalf("same-day activity must not inflate days, got %d", current[0].DaysCount)
	}
}

func TestRecordActivityContinuesStreak(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-01"))
	ctx := context.Background()

	d1 := day("2026-03-01")
	d2 := day("2026-03-02")
	if err := engine.RecordActivity(ctx, "u1", nil, d1); err != nil {
		t.Fatalf("day1: %v", err)
	}
	if err := engine.RecordActivity(ctx, "u1", nil, d2); err != nil {
		t.Fatalf("day2: %v", err)
	}

	current := streaks.currentRows("u1")
	if len(current) != 1 {
		t.Fatalf("expected one current streak, got %d", len(current))
	}
	if current[0].DaysCount != 2 {
		t.Fatalf("expected days count 2, got %d", current[0].DaysCount)
	}
	if !current[0].StartDate.Equal(d2) {
		t.Fatalf("expected start date advanced to %v, got %v", d2, current[0].StartDate)
	}
}

func TestRecordActivityBreaksStreakAfterGap(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-01"))
	ctx := context.Background()

	d1 := day("2026-03-01")
	d4 := day("2026-03-04")
	if err := engine.RecordActivity(ctx, "u1", nil, d1); err != nil {
		t.Fatalf("day1: %v", err)
	}
	if err := engine.RecordActivity(ctx, "u1", nil, d4); err != nil {
		t.Fatalf("day4: %v", err)
	}

	if len(streaks.streaks) != 2 {
		t.Fatalf("expected closed + fresh streak rows, got %d", len(streaks.streaks))
	}

	closed := streaks.streaks[0]
	if closed.Current {
		t.Fatal("old streak should be closed")
	}
	if closed.EndDate == nil || !closed.EndDate.Equal(d1) {
		t.Fatalf("expected end date %v, got %v", d1, closed.EndDate)
	}

	current := streaks.currentRows("u1")
	if len(current) != 1 {
		t.Fatalf("expected one current streak, got %d", len(current))
	}
	if current[0].DaysCount != 1 || !current[0].StartDate.Equal(d4) {
		t.Fatalf("expected fresh streak at %v, got %+v", d4, current[0])
	}
}

func TestFailedReopenLeavesCurrentStreakIntact(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-01"))
	ctx := context.Background()

	d1 := day("2026-03-01")
	if err := engine.RecordActivity(ctx, "u1", nil, d1); err != nil {
		t.Fatalf("day1: %v", err)
	}

	streaks.closeAndOpenErr = errors.New("store unavailable")
	if err := engine.RecordActivity(ctx, "u1", nil, day("2026-03-05")); err == nil {
		t.Fatal("expected the store failure to propagate")
	}

	// The break must be all-or-nothing: a failed reopen may not leave the
	// user with zero current streaks.
	current := streaks.currentRows("u1")
	if len(current) != 1 {
		t.Fatalf("expected the old streak to stay current, got %d current rows", len(current))
	}
	if !current[0].StartDate.Equal(d1) || current[0].DaysCount != 1 {
		t.Fatalf("old streak must be unchanged, got %+v", current[0])
	}

	streaks.closeAndOpenErr = nil
	if err := engine.RecordActivity(ctx, "u1", nil, day("2026-03-05")); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	current = streaks.currentRows("u1")
	if len(current) != 1 || !current[0].StartDate.Equal(day("2026-03-05")) {
		t.Fatalf("expected fresh streak after retry, got %+v", current)
	}
}

func TestRecordActivityPastDateBreaksStreak(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-05"))
	ctx := context.Background()

	if err := engine.RecordActivity(ctx, "u1", nil, day("2026-03-05")); err != nil {
		t.Fatalf("today: %v", err)
	}
	// A replayed event from the past closes and reopens rather than failing.
	if err := engine.RecordActivity(ctx, "u1", nil, day("2026-03-02")); err != nil {
		t.Fatalf("past date: %v", err)
	}

	current := streaks.currentRows("u1")
	if len(current) != 1 {
		t.Fatalf("expected one current streak, got %d", len(current))
	}
	if current[0].DaysCount != 1 {
		t.Fatalf("expected fresh streak, got %d days", current[0].DaysCount)
	}
}

func TestWorkspaceStreaksAreIndependent(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-01"))
	ctx := context.Background()

	ws := "ws1"
	d1 := day("2026-03-01")
	if err := engine.RecordActivity(ctx, "u1", nil, d1); err != nil {
		t.Fatalf("personal: %v", err)
	}
	if err := engine.RecordActivity(ctx, "u1", &ws, d1); err != nil {
		t.Fatalf("workspace: %v", err)
	}

	if len(streaks.currentRows("u1")) != 2 {
		t.Fatal("personal and workspace streaks should be separate rows")
	}

	personal, err := engine.CurrentStreak(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("current personal: %v", err)
	}
	if personal.WorkspaceID != nil {
		t.Fatal("personal streak must not carry a workspace")
	}
}

func TestCurrentStreakZeroValueWhenAbsent(t *testing.T) {
	engine, _, _, _ := newTestEngine(day("2026-03-01"))

	current, err := engine.CurrentStreak(context.Background(), "nobody", nil)
	if err != nil {
		t.Fatalf("current streak: %v", err)
	}
	if current.DaysCount != 0 || current.ID != "" {
		t.Fatalf("expected zero-value streak, got %+v", current)
	}
}

func TestXPForDuration(t *testing.T) {
	cases := []struct {
		minutes int
		want    int
	}{
		{25, 15},
		{50, 30},
		{1, 1},
		{5, 3},
		{30, 18},
	}
	for _, tc := range cases {
		if got := XPForDuration(tc.minutes); got != tc.want {
			t.Fatalf("XPForDuration(%d) = %d, want %d", tc.minutes, got, tc.want)
		}
	}
}

func TestRecordFocusSessionPersistsAndCountsOnce(t *testing.T) {
	engine, sessions, streaks, _ := newTestEngine(day("2026-03-01").Add(9 * time.Hour))
	ctx := context.Background()

	first, err := engine.RecordFocusSession(ctx, "u1", nil, 25)
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	if first.XPEarned != 15 {
		t.Fatalf("expected 15 XP for 25 minutes, got %d", first.XPEarned)
	}

	second, err := engine.RecordFocusSession(ctx, "u1", nil, 50)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if second.XPEarned != 30 {
		t.Fatalf("expected 30 XP for 50 minutes, got %d", second.XPEarned)
	}

	if len(sessions.sessions) != 2 {
		t.Fatalf("expected two persisted sessions, got %d", len(sessions.sessions))
	}

	current := streaks.currentRows("u1")
	if len(current) != 1 || current[0].DaysCount != 1 {
		t.Fatalf("two same-day sessions should yield one streak day, got %+v", current)
	}
}

func TestRecordFocusSessionRejectsNonPositiveDuration(t *testing.T) {
	engine, sessions, _, _ := newTestEngine(day("2026-03-01"))

	if _, err := engine.RecordFocusSession(context.Background(), "u1", nil, 0); err == nil {
		t.Fatal("expected rejection of zero duration")
	}
	if len(sessions.sessions) != 0 {
		t.Fatal("rejected session must not be persisted")
	}
}

func TestLeaderboardScoresAndOrder(t *testing.T) {
	engine, _, streaks, _ := newTestEngine(day("2026-03-10"))
	ctx := context.Background()

	ws := "ws1"
	streaks.names["u1"] = "Ada"
	streaks.names["u2"] = "Grace"
	streaks.streaks = []model.Streak{
		{ID: "s1", UserID: "u1", WorkspaceID: &ws, StartDate: day("2026-03-10"), DaysCount: 3, Current: true},
		{ID: "s2", UserID: "u2", WorkspaceID: &ws, StartDate: day("2026-03-10"), DaysCount: 7, Current: true},
		{ID: "s3", UserID: "u2", WorkspaceID: nil, StartDate: day("2026-03-10"), DaysCount: 9, Current: true},
	}

	entries, err := engine.Leaderboard(ctx, ws)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected two workspace entries, got %d", len(entries))
	}
	if entries[0].Name != "Grace" || entries[0].Score != 700 {
		t.Fatalf("expected Grace with 700 first, got %+v", entries[0])
	}
	if entries[1].Name != "Ada" || entries[1].Score != 300 {
		t.Fatalf("expected Ada with 300 second, got %+v", entries[1])
	}
}

func TestUserStats(t *testing.T) {
	start := day("2026-03-02").Add(10 * time.Hour)
	engine, sessions, streaks, clk := newTestEngine(start)
	ctx := context.Background()

	// Yesterday's session, recorded before the clock advanced to today.
	clk.Set(day("2026-03-01").Add(20 * time.Hour))
	if _, err := engine.RecordFocusSession(ctx, "u1", nil, 25); err != nil {
		t.Fatalf("yesterday session: %v", err)
	}

	clk.Set(start)
	if _, err := engine.RecordFocusSession(ctx, "u1", nil, 25); err != nil {
		t.Fatalf("today session 1: %v", err)
	}
	if _, err := engine.RecordFocusSession(ctx, "u1", nil, 50); err != nil {
		t.Fatalf("today session 2: %v", err)
	}

	stats, err := engine.UserStats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TodaysSessions != 2 {
		t.Fatalf("expected 2 sessions today, got %d", stats.TodaysSessions)
	}
	if stats.TodaysXP != 30 {
		t.Fatalf("expected 30 XP today, got %d", stats.TodaysXP)
	}
	if stats.TotalSessions != 3 {
		t.Fatalf("expected 3 total sessions, got %d", stats.TotalSessions)
	}
	if stats.TotalFocusHours != (25+25+50)/60.0 {
		t.Fatalf("unexpected focus hours: %v", stats.TotalFocusHours)
	}
	if stats.CurrentStreakDays != 2 {
		t.Fatalf("expected 2 streak days, got %d", stats.CurrentStreakDays)
	}

	if len(sessions.sessions) != 3 {
		t.Fatalf("expected 3 persisted sessions, got %d", len(sessions.sessions))
	}
	if len(streaks.currentRows("u1")) != 1 {
		t.Fatal("expected a single current streak")
	}
}
