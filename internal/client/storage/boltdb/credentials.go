package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/validation"
)

// SaveCredential inserts or overwrites the offline profile keyed by email
func (s *Storage) SaveCredential(ctx context.Context, cred *models.OfflineCredential) error {
	key := validation.NormalizeEmail(cred.Email)
	if key == "" {
		return fmt.Errorf("%w: credential email cannot be empty", storage.ErrValidation)
	}

	return s.update("save credential", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketCredentials)
		if err != nil {
			return err
		}

		stored := *cred
		stored.Email = key

		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("failed to marshal credential: %w", err)
		}
		return bucket.Put([]byte(key), data)
	})
}

// GetCredential returns the offline profile for email
func (s *Storage) GetCredential(ctx context.Context, email string) (*models.OfflineCredential, error) {
	var cred *models.OfflineCredential

	err := s.view("get credential", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketCredentials)
		if err != nil {
			return err
		}

		data := bucket.Get([]byte(validation.NormalizeEmail(email)))
		if data == nil {
			return storage.ErrCredentialNotFound
		}

		cred = &models.OfflineCredential{}
		if err := json.Unmarshal(data, cred); err != nil {
			return fmt.Errorf("failed to unmarshal credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cred, nil
}
