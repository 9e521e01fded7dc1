package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

const (
	keyLastSyncTimestamp = "last_sync_timestamp"
)

// SaveLastSyncTimestamp saves the unix time of the last completed sync cycle
func (s *Storage) SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error {
	return s.update("save last sync timestamp", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketMetadata)
		if err != nil {
			return err
		}

		// Конвертируем int64 в bytes
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := bucket.Put([]byte(keyLastSyncTimestamp), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last sync timestamp: %w", err)
		}
		return nil
	})
}

// GetLastSyncTimestamp retrieves the timestamp of the last completed sync cycle
// Returns 0 if no sync has been performed yet
func (s *Storage) GetLastSyncTimestamp(ctx context.Context) (int64, error) {
	var timestamp int64

	err := s.view("get last sync timestamp", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketMetadata)
		if err != nil {
			return err
		}

		timestampBytes := bucket.Get([]byte(keyLastSyncTimestamp))
		if timestampBytes == nil {
			// первая синхронизация
			return nil
		}

		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})
	if err != nil {
		return 0, err
	}

	return timestamp, nil
}
