package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Grading.BatchSize)
	assert.Equal(t, time.Hour, cfg.Grading.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Grading.TxTimeout)
	assert.Equal(t, OverallBasisAverage, cfg.Grading.OverallBasis)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "PGX")
	t.Setenv("GRADING_BATCH_SIZE", "0")
	t.Setenv("GRADING_TX_TIMEOUT", "not-a-duration")
	t.Setenv("GRADING_OVERALL_BASIS", "total")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPgx, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Grading.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Grading.TxTimeout)
	assert.Equal(t, OverallBasisTotal, cfg.Grading.OverallBasis)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
