// Package boltdb implements the client's key-value lists and maps on BoltDB:
// deletion queue, offline login attempts, credential vault, session,
// remote view cache and sync metadata.
package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketDeletionQueue = []byte("deletion_queue")
	bucketOfflineLogins = []byte("offline_logins")
	bucketCredentials   = []byte("credentials")
	bucketSession       = []byte("session")
	bucketRemoteCache   = []byte("remote_cache")
	bucketMetadata      = []byte("metadata")

	allBuckets = [][]byte{
		bucketDeletionQueue,
		bucketOfflineLogins,
		bucketCredentials,
		bucketSession,
		bucketRemoteCache,
		bucketMetadata,
	}
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

var (
	_ storage.DeletionQueue       = (*Storage)(nil)
	_ storage.CredentialStorage   = (*Storage)(nil)
	_ storage.OfflineLoginStorage = (*Storage)(nil)
	_ storage.SessionStorage      = (*Storage)(nil)
	_ storage.RemoteCacheStorage  = (*Storage)(nil)
	_ storage.MetadataStorage     = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB; файл блокируется, второй процесс получит ошибку по таймауту
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// update и view оборачивают транзакции проверкой закрытия и ErrStorage
func (s *Storage) update(op string, fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := s.db.Update(fn); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

func (s *Storage) view(op string, fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := s.db.View(fn); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// wrapErr добавляет ErrStorage ко всем ошибкам, кроме доменных sentinel-ошибок
func wrapErr(op string, err error) error {
	switch err {
	case storage.ErrSessionNotFound, storage.ErrCredentialNotFound:
		return err
	}
	return fmt.Errorf("failed to %s: %w: %w", op, storage.ErrStorage, err)
}

func bucketOf(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%s bucket not found", name)
	}
	return b, nil
}

// itob кодирует порядковый номер big-endian, чтобы курсор обходил ключи по порядку
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
