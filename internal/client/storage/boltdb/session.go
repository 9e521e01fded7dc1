package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

var sessionKey = []byte("current")

// SaveSession stores the current session
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	return s.update("save session", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketSession)
		if err != nil {
			return err
		}

		// Сериализуем данные в JSON
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		return bucket.Put(sessionKey, data)
	})
}

// GetSession retrieves the current session
func (s *Storage) GetSession(ctx context.Context) (*models.Session, error) {
	var session *models.Session

	err := s.view("get session", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketSession)
		if err != nil {
			return err
		}

		data := bucket.Get(sessionKey)
		if data == nil {
			return storage.ErrSessionNotFound
		}

		session = &models.Session{}
		if err := json.Unmarshal(data, session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// DeleteSession removes the session (logout). Deleting a missing session is a no-op.
func (s *Storage) DeleteSession(ctx context.Context) error {
	return s.update("delete session", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketSession)
		if err != nil {
			return err
		}
		return bucket.Delete(sessionKey)
	})
}
