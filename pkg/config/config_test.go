package config

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.Engine.MaxFeatures)
	assert.Equal(t, 10, cfg.Engine.TopK)
	assert.Equal(t, BackendFS, cfg.Cache.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retrieval.yaml")
	yamlDoc := `
engine:
  maxFeatures: 500
  topK: 3
cache:
  backend: bolt
  dir: /tmp/retrieval-cache
kafka:
  topics:
    buildComplete: builds
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("RE_TOP_K", "7")
	t.Setenv("RE_REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Engine.MaxFeatures)
	assert.Equal(t, 7, cfg.Engine.TopK)
	assert.Equal(t, 4, cfg.Engine.Workers, "unset fields keep defaults")
	assert.Equal(t, BackendBolt, cfg.Cache.Backend)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "builds", cfg.Kafka.Topics.BuildComplete)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero max features", func(c *Config) { c.Engine.MaxFeatures = 0 }, "engine.maxFeatures"},
		{"negative top k", func(c *Config) { c.Engine.TopK = -1 }, "engine.topK"},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }, "engine.workers"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "s3" }, "cache.backend"},
		{"fs without dir", func(c *Config) { c.Cache.Dir = "" }, "cache.dir"},
		{"kafka without topic", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Topics.BuildComplete = ""
		}, "kafka"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, apperrors.ErrConfiguration)
			var cfgErr *apperrors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := Default().Postgres
	assert.Equal(t, "host=localhost port=5432 user=retrieval password=localdev dbname=retrieval sslmode=disable", p.DSN())
}
