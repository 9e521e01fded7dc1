package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// EnqueueDeletion appends a deletion intent for fp
func (s *Storage) EnqueueDeletion(ctx context.Context, fp models.Fingerprint) (*models.DeletionEntry, error) {
	var entry *models.DeletionEntry

	err := s.update("enqueue deletion", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketDeletionQueue)
		if err != nil {
			return err
		}

		id, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate queue id: %w", err)
		}

		entry = &models.DeletionEntry{
			ID:          id,
			Fingerprint: fp,
			QueuedAt:    time.Now().UTC(),
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal deletion entry: %w", err)
		}
		return bucket.Put(itob(id), data)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListDeletions returns queued entries in insertion order
func (s *Storage) ListDeletions(ctx context.Context) ([]*models.DeletionEntry, error) {
	entries := make([]*models.DeletionEntry, 0)

	err := s.view("list deletions", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketDeletionQueue)
		if err != nil {
			return err
		}

		return bucket.ForEach(func(k, v []byte) error {
			var e models.DeletionEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal deletion entry %d: %w", btoi(k), err)
			}
			entries = append(entries, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// UpdateDeletion overwrites an existing entry; a removed entry is not resurrected
func (s *Storage) UpdateDeletion(ctx context.Context, entry *models.DeletionEntry) error {
	return s.update("update deletion", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketDeletionQueue)
		if err != nil {
			return err
		}

		key := itob(entry.ID)
		if bucket.Get(key) == nil {
			return nil
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal deletion entry: %w", err)
		}
		return bucket.Put(key, data)
	})
}

// RemoveDeletion drops the entry with id
func (s *Storage) RemoveDeletion(ctx context.Context, id uint64) error {
	return s.update("remove deletion", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketDeletionQueue)
		if err != nil {
			return err
		}
		return bucket.Delete(itob(id))
	})
}
