package storage

import (
	"context"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// Filter narrows FilteredQuery. Nil fields are not applied.
type Filter struct {
	Date     *time.Time     // календарный день в локации значения
	Center   *models.LatLng // центр пространственного фильтра
	RadiusKm *float64       // радиус в км, применяется вместе с Center
}

// ViolationStorage defines the persistent store of violation records.
// Every method is safe for concurrent use; writes are serialized.
type ViolationStorage interface {
	// Insert validates and durably stores a new record, returns its LocalID.
	// Returns ErrValidation for blank description/owner or bad coordinates.
	Insert(ctx context.Context, v *models.Violation) (int64, error)

	// Get returns a record by LocalID or ErrViolationNotFound
	Get(ctx context.Context, localID int64) (*models.Violation, error)

	// ListByOwner returns all records of the owner, newest CapturedAt first
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Violation, error)

	// ListUnsynced returns records in SyncPending state only
	ListUnsynced(ctx context.Context) ([]*models.Violation, error)

	// CountUnsynced returns the number of pending records
	CountUnsynced(ctx context.Context) (int, error)

	// MarkSynced sets SyncSynced and records remoteID if none was stored yet.
	// Idempotent; marking an absent record is a no-op.
	MarkSynced(ctx context.Context, localID int64, remoteID *int64) error

	// Delete removes a record; reports false if it did not exist
	Delete(ctx context.Context, localID int64) (bool, error)

	// FilteredQuery is ListByOwner narrowed by f, same ordering
	FilteredQuery(ctx context.Context, ownerID string, f Filter) ([]*models.Violation, error)
}
