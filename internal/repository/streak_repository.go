package repository

import (
	"context"
	"database/sql"
	"fmt"

	"studyfocus/backend/internal/model"
	"studyfocus/backend/internal/streak"
)

// StreakRepository stores streak rows. The partial unique index on
// (user_id, workspace_id) for current rows backs the single-current-streak
// invariant; the streak engine serializes read-modify-write per key.
type StreakRepository struct {
	db *sql.DB
}

func NewStreakRepository(db *sql.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

func (r *StreakRepository) FindCurrent(ctx context.Context, userID string, workspaceID *string) (*model.Streak, error) {
	var wsValue interface{}
	if workspaceID != nil {
		wsValue = *workspaceID
	}

	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, workspace_id, start_date, days_count, current, end_date
		 FROM streaks
		 WHERE user_id = ? AND workspace_id IS ? AND current = 1
		 ORDER BY start_date DESC
		 LIMIT 1`,
		userID,
		wsValue,
	)
	streakRow, err := scanStreak(row)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return streakRow, nil
}

func (r *StreakRepository) Create(ctx context.Context, s *model.Streak) error {
	if err := insertStreak(ctx, r.db, s); err != nil {
		return fmt.Errorf("create streak: %w", err)
	}
	return nil
}

func (r *StreakRepository) Update(ctx context.Context, s *model.Streak) error {
	if err := updateStreak(ctx, r.db, s); err != nil {
		if err == ErrNotFound {
			return err
		}
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// CloseAndOpen closes one streak row and inserts its replacement in a single
// transaction, so a failed reopen never leaves the pair without a current
// streak.
func (r *StreakRepository) CloseAndOpen(ctx context.Context, closed *model.Streak, fresh *model.Streak) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("close and open streak: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := updateStreak(ctx, tx, closed); err != nil {
		return fmt.Errorf("close and open streak: close: %w", err)
	}
	if err := insertStreak(ctx, tx, fresh); err != nil {
		return fmt.Errorf("close and open streak: open: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("close and open streak: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertStreak(ctx context.Context, db execer, s *model.Streak) error {
	var workspaceID interface{}
	if s.WorkspaceID != nil {
		workspaceID = *s.WorkspaceID
	}
	var endDate interface{}
	if s.EndDate != nil {
		endDate = formatDate(*s.EndDate)
	}

	_, err := db.ExecContext(
		ctx,
		`INSERT INTO streaks (id, user_id, workspace_id, start_date, days_count, current, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.UserID,
		workspaceID,
		formatDate(s.StartDate),
		s.DaysCount,
		boolToInt(s.Current),
		endDate,
	)
	return err
}

func updateStreak(ctx context.Context, db execer, s *model.Streak) error {
	var endDate interface{}
	if s.EndDate != nil {
		endDate = formatDate(*s.EndDate)
	}

	result, err := db.ExecContext(
		ctx,
		`UPDATE streaks
		 SET start_date = ?,
		     days_count = ?,
		     current = ?,
		     end_date = ?
		 WHERE id = ?`,
		formatDate(s.StartDate),
		s.DaysCount,
		boolToInt(s.Current),
		endDate,
		s.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StreakRepository) ListCurrentByWorkspace(ctx context.Context, workspaceID string) ([]streak.LeaderboardRow, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.user_id, u.full_name, s.days_count
		 FROM streaks s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.workspace_id = ? AND s.current = 1
		 ORDER BY s.days_count DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list current streaks: %w", err)
	}
	defer rows.Close()

	entries := make([]streak.LeaderboardRow, 0)
	for rows.Next() {
		var entry streak.LeaderboardRow
		if err := rows.Scan(&entry.UserID, &entry.FullName, &entry.DaysCount); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate current streaks: %w", err)
	}

	return entries, nil
}

func scanStreak(s scanner) (*model.Streak, error) {
	streakRow := model.Streak{}
	var workspaceID sql.NullString
	var startDate string
	var current int
	var endDate sql.NullString
	err := s.Scan(
		&streakRow.ID,
		&streakRow.UserID,
		&workspaceID,
		&startDate,
		&streakRow.DaysCount,
		&current,
		&endDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan streak: %w", err)
	}

	if workspaceID.Valid {
		value := workspaceID.String
		streakRow.WorkspaceID = &value
	}

	parsedStartDate, err := parseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("parse streak start_date: %w", err)
	}
	streakRow.StartDate = parsedStartDate
	streakRow.Current = current == 1

	if endDate.Valid {
		parsedEndDate, parseErr := parseDate(endDate.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse streak end_date: %w", parseErr)
		}
		streakRow.EndDate = &parsedEndDate
	}

	return &streakRow, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
