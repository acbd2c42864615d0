package model

import "time"

const (
	SessionTypeFocus      = "focus"
	SessionTypeShortBreak = "short_break"
	SessionTypeLongBreak  = "long_break"
)

const (
	DefaultFocusMinutes            = 25
	DefaultShortBreakMinutes       = 5
	DefaultLongBreakMinutes        = 15
	DefaultSessionsBeforeLongBreak = 4
)

// Session is an append-only record of one completed timer phase.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	WorkspaceID     *string   `json:"workspaceId,omitempty"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"durationMinutes"`
	XPEarned        int       `json:"xpEarned"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Streak is a consecutive-day run of activity for a (user, workspace) pair.
// At most one row per pair has Current=true. Rows are closed, never deleted.
type Streak struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	WorkspaceID *string    `json:"workspaceId,omitempty"`
	StartDate   time.Time  `json:"startDate"`
	DaysCount   int        `json:"daysCount"`
	Current     bool       `json:"current"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// Preferences holds a user's persisted timer configuration, in minutes.
type Preferences struct {
	UserID                  string    `json:"userId"`
	FocusMinutes            int       `json:"focusMinutes"`
	ShortBreakMinutes       int       `json:"shortBreakMinutes"`
	LongBreakMinutes        int       `json:"longBreakMinutes"`
	SessionsBeforeLongBreak int       `json:"sessionsBeforeLongBreak"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func DefaultPreferences(userID string, now time.Time) Preferences {
	return Preferences{
		UserID:                  userID,
		FocusMinutes:            DefaultFocusMinutes,
		ShortBreakMinutes:       DefaultShortBreakMinutes,
		LongBreakMinutes:        DefaultLongBreakMinutes,
		SessionsBeforeLongBreak: DefaultSessionsBeforeLongBreak,
		UpdatedAt:               now,
	}
}
