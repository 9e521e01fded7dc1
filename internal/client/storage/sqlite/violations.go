package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/validation"
)

// kmPerDegree приближённая длина градуса широты
const kmPerDegree = 111.0

const violationColumns = `local_id, remote_id, sync_key, owner_id, description,
	latitude, longitude, captured_at, image, sync_state`

// Insert validates and stores a new record.
// LocalID and SyncKey (if empty) are assigned here; a zero CapturedAt becomes now.
func (s *Storage) Insert(ctx context.Context, v *models.Violation) (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: violation is nil", storage.ErrValidation)
	}
	if err := validateViolation(v); err != nil {
		return 0, err
	}

	if v.CapturedAt.IsZero() {
		v.CapturedAt = time.Now()
	}
	if v.SyncKey == "" {
		v.SyncKey = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	query := `
		INSERT INTO violations (remote_id, sync_key, owner_id, description,
			latitude, longitude, captured_at, image, sync_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		nullInt64(v.RemoteID),
		v.SyncKey,
		v.OwnerID,
		v.Description,
		v.Latitude,
		v.Longitude,
		v.CapturedAt.UnixNano(),
		nullBytes(v.Image),
		int(v.SyncState),
	)
	if err != nil {
		return 0, wrapErr("insert violation", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("get inserted id", err)
	}

	v.LocalID = id
	return id, nil
}

// Get returns a single record by LocalID
func (s *Storage) Get(ctx context.Context, localID int64) (*models.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+violationColumns+` FROM violations WHERE local_id = ?`, localID)

	v, err := scanViolation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrViolationNotFound
		}
		return nil, wrapErr("get violation", err)
	}
	return v, nil
}

// ListByOwner returns the owner's records, newest first
func (s *Storage) ListByOwner(ctx context.Context, ownerID string) ([]*models.Violation, error) {
	return s.FilteredQuery(ctx, ownerID, storage.Filter{})
}

// ListUnsynced returns pending records in insertion order
func (s *Storage) ListUnsynced(ctx context.Context) ([]*models.Violation, error) {
	return s.query(ctx, "list unsynced violations",
		`SELECT `+violationColumns+` FROM violations WHERE sync_state = ? ORDER BY local_id ASC`,
		int(models.SyncPending))
}

// CountUnsynced returns the number of pending records
func (s *Storage) CountUnsynced(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM violations WHERE sync_state = ?`, int(models.SyncPending)).Scan(&n)
	if err != nil {
		return 0, wrapErr("count unsynced violations", err)
	}
	return n, nil
}

// MarkSynced flips the record to Synced. The first non-nil remote id wins;
// an already synced record is left unchanged.
func (s *Storage) MarkSynced(ctx context.Context, localID int64, remoteID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	query := `
		UPDATE violations
		SET sync_state = ?, remote_id = COALESCE(remote_id, ?)
		WHERE local_id = ?
	`

	if _, err := s.db.ExecContext(ctx, query, int(models.SyncSynced), nullInt64(remoteID), localID); err != nil {
		return wrapErr("mark violation synced", err)
	}
	return nil
}

// Delete removes a record by LocalID
func (s *Storage) Delete(ctx context.Context, localID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM violations WHERE local_id = ?`, localID)
	if err != nil {
		return false, wrapErr("delete violation", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("get affected rows", err)
	}
	return n > 0, nil
}

// FilteredQuery narrows the owner's records by calendar day and/or a
// bounding box around Center. The box uses r/111 degrees of latitude and
// r/(111*cos(lat)) degrees of longitude, so corners lie slightly outside
// the true radius.
func (s *Storage) FilteredQuery(ctx context.Context, ownerID string, f storage.Filter) ([]*models.Violation, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)

	if f.Date != nil {
		d := *f.Date
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		end := start.AddDate(0, 0, 1)
		where = append(where, "captured_at >= ?", "captured_at < ?")
		args = append(args, start.UnixNano(), end.UnixNano())
	}

	if f.Center != nil && f.RadiusKm != nil {
		if !f.Center.IsFinite() {
			return nil, fmt.Errorf("%w: filter center must be finite", storage.ErrValidation)
		}
		if err := validation.ValidateRadius(*f.RadiusKm); err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrValidation, err)
		}

		r := *f.RadiusKm
		dLat := r / kmPerDegree
		where = append(where, "latitude BETWEEN ? AND ?")
		args = append(args, f.Center.Lat-dLat, f.Center.Lat+dLat)

		// у полюса cos → 0, долгота не ограничивается
		if cos := math.Cos(f.Center.Lat * math.Pi / 180); cos > 1e-9 {
			dLng := r / (kmPerDegree * cos)
			where = append(where, "longitude BETWEEN ? AND ?")
			args = append(args, f.Center.Lng-dLng, f.Center.Lng+dLng)
		}
	}

	query := `SELECT ` + violationColumns + ` FROM violations WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY captured_at DESC, local_id DESC`

	return s.query(ctx, "query violations", query, args...)
}

func (s *Storage) query(ctx context.Context, op, query string, args ...any) ([]*models.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := make([]*models.Violation, 0)
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanViolation(sc scanner) (*models.Violation, error) {
	var (
		v          models.Violation
		remoteID   sql.NullInt64
		capturedAt int64
		image      []byte
		state      int
	)

	err := sc.Scan(
		&v.LocalID,
		&remoteID,
		&v.SyncKey,
		&v.OwnerID,
		&v.Description,
		&v.Latitude,
		&v.Longitude,
		&capturedAt,
		&image,
		&state,
	)
	if err != nil {
		return nil, err
	}

	if remoteID.Valid {
		id := remoteID.Int64
		v.RemoteID = &id
	}
	v.CapturedAt = time.Unix(0, capturedAt).UTC()
	if len(image) > 0 {
		v.Image = image
	}
	v.SyncState = models.SyncState(state)

	return &v, nil
}

func validateViolation(v *models.Violation) error {
	if err := validation.ValidateDescription(v.Description); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrValidation, err)
	}
	if err := validation.ValidateOwner(v.OwnerID); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrValidation, err)
	}
	if err := validation.ValidateCoordinates(v.Latitude, v.Longitude); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrValidation, err)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
