package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// AppendOfflineLogin records an offline login attempt
func (s *Storage) AppendOfflineLogin(ctx context.Context, login *models.OfflineLogin) error {
	return s.update("append offline login", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketOfflineLogins)
		if err != nil {
			return err
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		data, err := json.Marshal(login)
		if err != nil {
			return fmt.Errorf("failed to marshal offline login: %w", err)
		}
		return bucket.Put(itob(seq), data)
	})
}

// ListOfflineLogins returns recorded attempts oldest first
func (s *Storage) ListOfflineLogins(ctx context.Context) ([]*models.OfflineLogin, error) {
	logins := make([]*models.OfflineLogin, 0)

	err := s.view("list offline logins", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketOfflineLogins)
		if err != nil {
			return err
		}

		return bucket.ForEach(func(_, v []byte) error {
			var l models.OfflineLogin
			if err := json.Unmarshal(v, &l); err != nil {
				return fmt.Errorf("failed to unmarshal offline login: %w", err)
			}
			logins = append(logins, &l)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return logins, nil
}

// RemoveOfflineLogins prunes attempts acknowledged by the server
func (s *Storage) RemoveOfflineLogins(ctx context.Context, localIDs []string) error {
	if len(localIDs) == 0 {
		return nil
	}

	remove := make(map[string]struct{}, len(localIDs))
	for _, id := range localIDs {
		remove[id] = struct{}{}
	}

	return s.update("remove offline logins", func(tx *bbolt.Tx) error {
		bucket, err := bucketOf(tx, bucketOfflineLogins)
		if err != nil {
			return err
		}

		// сначала собираем ключи: удаление во время обхода курсором небезопасно
		var keys [][]byte
		err = bucket.ForEach(func(k, v []byte) error {
			var l models.OfflineLogin
			if err := json.Unmarshal(v, &l); err != nil {
				return fmt.Errorf("failed to unmarshal offline login: %w", err)
			}
			if _, ok := remove[l.LocalID]; ok {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
