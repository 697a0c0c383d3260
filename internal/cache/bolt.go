package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/boltdb/bolt"
)

const boltFile = "stages.bolt"

// BoltStore keeps every entry in one bolt file, one bucket per stage. Each
// Put is a single write transaction.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates dir/stages.bolt.
func OpenBoltStore(dir string) (*BoltStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("bolt cache needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, boltFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt file: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, stage, fingerprint string) ([]byte, bool, error) {
	if err := validKey(stage, fingerprint); err != nil {
		return nil, false, err
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(stage))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(fingerprint)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading bolt entry: %w", err)
	}
	return data, data != nil, nil
}

func (s *BoltStore) Put(_ context.Context, stage, fingerprint string, payload []byte) error {
	if err := validKey(stage, fingerprint); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(stage))
		if err != nil {
			return err
		}
		return b.Put([]byte(fingerprint), payload)
	})
	if err != nil {
		return fmt.Errorf("writing bolt entry: %w", err)
	}
	return nil
}

// Purge deletes the stage's bucket in one write transaction.
func (s *BoltStore) Purge(_ context.Context, stage string) (int64, error) {
	if err := validStage(stage); err != nil {
		return 0, err
	}
	var removed int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(stage))
		if b == nil {
			return nil
		}
		removed = int64(b.Stats().KeyN)
		return tx.DeleteBucket([]byte(stage))
	})
	if err != nil {
		return 0, fmt.Errorf("purging bolt bucket: %w", err)
	}
	return removed, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Name() string { return config.BackendBolt }
