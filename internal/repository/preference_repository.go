package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studyfocus/backend/internal/model"
)

type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, focus_minutes, short_break_minutes, long_break_minutes,
		        sessions_before_long_break, updated_at
		 FROM preferences
		 WHERE user_id = ?`,
		userID,
	)

	var prefs model.Preferences
	var updatedAt string
	err := row.Scan(
		&prefs.UserID,
		&prefs.FocusMinutes,
		&prefs.ShortBreakMinutes,
		&prefs.LongBreakMinutes,
		&prefs.SessionsBeforeLongBreak,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse preferences updated_at: %w", err)
	}
	prefs.UpdatedAt = parsedUpdatedAt

	return &prefs, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, prefs *model.Preferences) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO preferences (
			user_id, focus_minutes, short_break_minutes, long_break_minutes,
			sessions_before_long_break, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			focus_minutes = excluded.focus_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			sessions_before_long_break = excluded.sessions_before_long_break,
			updated_at = excluded.updated_at`,
		prefs.UserID,
		prefs.FocusMinutes,
		prefs.ShortBreakMinutes,
		prefs.LongBreakMinutes,
		prefs.SessionsBeforeLongBreak,
		prefs.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
