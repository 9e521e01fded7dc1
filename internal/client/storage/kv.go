package storage

import (
	"context"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// DeletionQueue holds deletion intents awaiting confirmation from the server
type DeletionQueue interface {
	// EnqueueDeletion appends an entry for the fingerprint and returns it
	EnqueueDeletion(ctx context.Context, fp models.Fingerprint) (*models.DeletionEntry, error)

	// ListDeletions returns queued entries in insertion order
	ListDeletions(ctx context.Context) ([]*models.DeletionEntry, error)

	// UpdateDeletion overwrites an existing entry (attempt counter)
	UpdateDeletion(ctx context.Context, entry *models.DeletionEntry) error

	// RemoveDeletion drops an entry; removing an absent entry is not an error
	RemoveDeletion(ctx context.Context, id uint64) error
}

// CredentialStorage is the offline credential vault keyed by normalized email
type CredentialStorage interface {
	// SaveCredential inserts or overwrites the profile for cred.Email
	SaveCredential(ctx context.Context, cred *models.OfflineCredential) error

	// GetCredential returns ErrCredentialNotFound if no profile is cached
	GetCredential(ctx context.Context, email string) (*models.OfflineCredential, error)
}

// OfflineLoginStorage is the append/prune list of offline login attempts
type OfflineLoginStorage interface {
	AppendOfflineLogin(ctx context.Context, login *models.OfflineLogin) error
	ListOfflineLogins(ctx context.Context) ([]*models.OfflineLogin, error)
	RemoveOfflineLogins(ctx context.Context, localIDs []string) error
}

// SessionStorage keeps the current client session
type SessionStorage interface {
	SaveSession(ctx context.Context, session *models.Session) error

	// GetSession returns ErrSessionNotFound when logged out
	GetSession(ctx context.Context) (*models.Session, error)

	// DeleteSession removes the session (logout); idempotent
	DeleteSession(ctx context.Context) error
}

// RemoteCacheStorage keeps the last pulled server view per owner
type RemoteCacheStorage interface {
	// ReplaceRemoteViolations atomically replaces the owner's cached view
	ReplaceRemoteViolations(ctx context.Context, ownerID string, items []*models.RemoteViolation) error

	// ListRemoteViolations returns the cached view, empty if never pulled
	ListRemoteViolations(ctx context.Context, ownerID string) ([]*models.RemoteViolation, error)
}

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSyncTimestamp saves the unix time of the last completed sync cycle
	SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error

	// GetLastSyncTimestamp returns 0 if no sync has been performed yet
	GetLastSyncTimestamp(ctx context.Context) (int64, error)
}
