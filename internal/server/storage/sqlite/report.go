package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
)

// CreateReport stores a report. Repeated uploads with the same idempotency
// key of the same user return the existing ID.
func (s *Storage) CreateReport(ctx context.Context, report *models.Report) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	key := sql.NullString{String: report.IdempotencyKey, Valid: report.IdempotencyKey != ""}

	if key.Valid {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM reports WHERE user_id = ? AND idempotency_key = ?`,
			report.UserID, key,
		).Scan(&id)
		switch {
		case err == nil:
			return id, false, nil
		case !errors.Is(err, sql.ErrNoRows):
			return 0, false, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	var image any
	if len(report.Image) > 0 {
		image = report.Image
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reports (user_id, description, latitude, longitude, captured_at,
			image, image_type, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.UserID,
		report.Description,
		report.Latitude,
		report.Longitude,
		unixNano(report.CapturedAt),
		image,
		report.ImageType,
		key,
		unixNano(report.CreatedAt),
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get report id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, true, nil
}

// GetReport retrieves a single report with its image
func (s *Storage) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	query := `
		SELECT id, user_id, description, latitude, longitude, captured_at,
			image, image_type, COALESCE(idempotency_key, ''), created_at
		FROM reports
		WHERE id = ?
	`

	r := &models.Report{}
	var capturedAt, createdAt int64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.UserID,
		&r.Description,
		&r.Latitude,
		&r.Longitude,
		&capturedAt,
		&r.Image,
		&r.ImageType,
		&r.IdempotencyKey,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	r.CapturedAt = fromUnixNano(capturedAt)
	r.CreatedAt = fromUnixNano(createdAt)
	r.HasImage = len(r.Image) > 0

	return r, nil
}

// ListReports returns reports without image payloads
func (s *Storage) ListReports(ctx context.Context, userID string) ([]*models.Report, error) {
	query := `
		SELECT id, user_id, description, latitude, longitude, captured_at,
			image IS NOT NULL, image_type, COALESCE(idempotency_key, ''), created_at
		FROM reports
	`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY captured_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		r := &models.Report{}
		var capturedAt, createdAt int64

		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.Description,
			&r.Latitude,
			&r.Longitude,
			&capturedAt,
			&r.HasImage,
			&r.ImageType,
			&r.IdempotencyKey,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		r.CapturedAt = fromUnixNano(capturedAt)
		r.CreatedAt = fromUnixNano(createdAt)
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// DeleteReport deletes report by ID
func (s *Storage) DeleteReport(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrReportNotFound
	}

	return nil
}
