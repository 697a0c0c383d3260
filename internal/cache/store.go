// Package cache memoizes pipeline stage outputs in a content-addressed
// store. Entries are keyed by (stage, fingerprint), wrapped in a checksummed
// envelope and published atomically, so a damaged or half-written entry is
// only ever seen as a miss.
package cache

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/resilience"
)

// Store persists opaque payloads. Get returns (nil, false, nil) on a miss.
// Implementations must be safe for concurrent use and must never expose a
// partially written payload.
type Store interface {
	Get(ctx context.Context, stage, fingerprint string) ([]byte, bool, error)
	Put(ctx context.Context, stage, fingerprint string, payload []byte) error
	// Purge drops every entry of stage and reports how many were removed.
	Purge(ctx context.Context, stage string) (int64, error)
	Close() error
	Name() string
}

type opener func(ctx context.Context, cfg *config.Config) (Store, error)

var backends = map[string]opener{
	config.BackendFS: func(_ context.Context, cfg *config.Config) (Store, error) {
		return NewFileStore(cfg.Cache.Dir)
	},
	config.BackendBolt: func(_ context.Context, cfg *config.Config) (Store, error) {
		return OpenBoltStore(cfg.Cache.Dir)
	},
	config.BackendRedis: func(ctx context.Context, cfg *config.Config) (Store, error) {
		return OpenRedisStore(ctx, cfg.Redis, cfg.Cache.TTL)
	},
	config.BackendPostgres: func(ctx context.Context, cfg *config.Config) (Store, error) {
		return OpenPostgresStore(ctx, cfg.Postgres)
	},
	config.BackendNone: func(context.Context, *config.Config) (Store, error) {
		return NopStore{}, nil
	},
}

// remote backends are dialled through resilience.Retry.
var remote = map[string]bool{
	config.BackendRedis:    true,
	config.BackendPostgres: true,
}

// Backends lists the accepted backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the store selected by cfg.Cache.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	openFn, ok := backends[cfg.Cache.Backend]
	if !ok {
		return nil, apperrors.NewConfigurationError("cache.backend", cfg.Cache.Backend, "unsupported cache backend")
	}
	log := logger.WithComponent("cache")
	if !remote[cfg.Cache.Backend] {
		store, err := openFn(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
		}
		log.Info("cache store opened", "backend", store.Name())
		return store, nil
	}

	var store Store
	err := resilience.Retry(ctx, "cache-"+cfg.Cache.Backend, resilience.RetryConfig{}, func(ctx context.Context) error {
		s, err := openFn(ctx, cfg)
		if err != nil {
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
	}
	log.Info("cache store opened", "backend", store.Name())
	return store, nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validStage(stage string) error {
	if !keyPattern.MatchString(stage) {
		return fmt.Errorf("invalid stage name %q", stage)
	}
	return nil
}

// validKey guards stage and fingerprint values that end up in file paths,
// bucket names and SQL parameters.
func validKey(stage, fingerprint string) error {
	if err := validStage(stage); err != nil {
		return err
	}
	if !keyPattern.MatchString(fingerprint) {
		return fmt.Errorf("invalid fingerprint %q", fingerprint)
	}
	return nil
}

// NopStore never hits and drops every write.
type NopStore struct{}

func (NopStore) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Put(context.Context, string, string, []byte) error { return nil }

func (NopStore) Purge(context.Context, string) (int64, error) { return 0, nil }

func (NopStore) Close() error { return nil }

func (NopStore) Name() string { return config.BackendNone }
