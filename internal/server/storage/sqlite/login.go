package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// SaveLoginEvents stores login events; known LocalIDs are ignored
func (s *Storage) SaveLoginEvents(ctx context.Context, events []*models.LoginEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO login_events (local_id, user_id, email, at, received_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, e := range events {
		result, err := stmt.ExecContext(ctx, e.LocalID, e.UserID, e.Email, unixNano(e.At), unixNano(e.ReceivedAt))
		if err != nil {
			return 0, fmt.Errorf("failed to insert login event %s: %w", e.LocalID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		saved += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return saved, nil
}

// ListLoginEvents returns login events of a user
func (s *Storage) ListLoginEvents(ctx context.Context, userID string) ([]*models.LoginEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT local_id, user_id, email, at, received_at
		FROM login_events
		WHERE user_id = ?
		ORDER BY at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query login events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.LoginEvent, 0)
	for rows.Next() {
		e := &models.LoginEvent{}
		var at, receivedAt int64
		if err := rows.Scan(&e.LocalID, &e.UserID, &e.Email, &at, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan login event: %w", err)
		}
		e.At = fromUnixNano(at)
		e.ReceivedAt = fromUnixNano(receivedAt)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate login events: %w", err)
	}

	return events, nil
}
