package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studyfocus/backend/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *model.Session) error {
	var workspaceID interface{}
	if session.WorkspaceID != nil {
		workspaceID = *session.WorkspaceID
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, user_id, workspace_id, type, duration_minutes, xp_earned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		workspaceID,
		session.Type,
		session.DurationMinutes,
		session.XPEarned,
		formatTimestamp(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM sessions WHERE user_id = ? AND created_at >= ?`,
		userID,
		formatTimestamp(since),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions since: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) CountSessions(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM sessions WHERE user_id = ?`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) SumFocusMinutes(ctx context.Context, userID string) (int, error) {
	var minutes int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM sessions WHERE user_id = ? AND type = ?`,
		userID,
		model.SessionTypeFocus,
	).Scan(&minutes)
	if err != nil {
		return 0, fmt.Errorf("sum focus minutes: %w", err)
	}
	return minutes, nil
}

func (r *SessionRepository) ListSessions(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, workspace_id, type, duration_minutes, xp_earned, created_at
		 FROM sessions
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var workspaceID sql.NullString
	var createdAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&workspaceID,
		&session.Type,
		&session.DurationMinutes,
		&session.XPEarned,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if workspaceID.Valid {
		value := workspaceID.String
		session.WorkspaceID = &value
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = parsedCreatedAt

	return &session, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}
