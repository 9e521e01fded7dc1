package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// ReplaceRemoteViolations atomically replaces the owner's cached server view
func (s *Storage) ReplaceRemoteViolations(ctx context.Context, ownerID string, items []*models.RemoteViolation) error {
	if items == nil {
		items = []*models.RemoteViolation{}
	}

	return s.update("replace remote cache", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketRemoteCache)
		if err != nil {
			return err
		}

		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal remote violations: %w", err)
		}
		return bucket.Put([]byte(ownerID), data)
	})
}

// ListRemoteViolations returns the cached server view of the owner
func (s *Storage) ListRemoteViolations(ctx context.Context, ownerID string) ([]*models.RemoteViolation, error) {
	items := make([]*models.RemoteViolation, 0)

	err := s.view("list remote cache", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketRemoteCache)
		if err != nil {
			return err
		}

		data := bucket.Get([]byte(ownerID))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to unmarshal remote violations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}
