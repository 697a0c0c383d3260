package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/postgres"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS stage_cache (
	stage       TEXT        NOT NULL,
	fingerprint TEXT        NOT NULL,
	payload     BYTEA       NOT NULL,
	size        BIGINT      NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (stage, fingerprint)
)`

// PostgresStore keeps entries in the stage_cache table. A row is replaced
// with a single upsert, so readers see either the old or the new payload.
type PostgresStore struct {
	client *postgres.Client
}

func OpenPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	client, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewPostgresStore(ctx, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore creates the stage_cache table if needed.
func NewPostgresStore(ctx context.Context, client *postgres.Client) (*PostgresStore, error) {
	if _, err := client.DB.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("creating stage_cache table: %w", err)
	}
	return &PostgresStore{client: client}, nil
}

func (s *PostgresStore) Get(ctx context.Context, stage, fingerprint string) ([]byte, bool, error) {
	if err := validKey(stage, fingerprint); err != nil {
		return nil, false, err
	}
	var payload []byte
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT payload FROM stage_cache WHERE stage = $1 AND fingerprint = $2`,
		stage, fingerprint,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying stage_cache: %w", err)
	}
	return payload, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, stage, fingerprint string, payload []byte) error {
	if err := validKey(stage, fingerprint); err != nil {
		return err
	}
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stage_cache (stage, fingerprint, payload, size, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (stage, fingerprint)
			DO UPDATE SET payload = EXCLUDED.payload, size = EXCLUDED.size, updated_at = now()`,
			stage, fingerprint, payload, len(payload),
		)
		if err != nil {
			return fmt.Errorf("upserting stage_cache: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Purge(ctx context.Context, stage string) (int64, error) {
	if err := validStage(stage); err != nil {
		return 0, err
	}
	res, err := s.client.DB.ExecContext(ctx, `DELETE FROM stage_cache WHERE stage = $1`, stage)
	if err != nil {
		return 0, fmt.Errorf("purging stage_cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	return s.client.Close()
}

func (s *PostgresStore) Name() string { return config.BackendPostgres }
