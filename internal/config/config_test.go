package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
engine:
  step_size: 0.01
  price_precision: 4
fees:
  default:
    maker: 0.2
    taker: 0.5
  tiers:
    1:
      maker: "0.05"
      taker: "0.1"
logging:
  level: debug
journal:
  path: events.bin
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.True(t, cfg.Engine.StepSize.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, int32(4), cfg.Engine.PricePrecision)
	assert.True(t, cfg.Fees.Default.Maker.Equal(decimal.RequireFromString("0.2")))
	require.Contains(t, cfg.Fees.Tiers, int16(1))
	assert.True(t, cfg.Fees.Tiers[1].Taker.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "events.bin", cfg.Journal.Path)
	// untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"zero step", "engine:\n  step_size: 0\n", "engine.step_size"},
		{"precision", "engine:\n  price_precision: 12\n", "engine.price_precision"},
		{"negative fee", "fees:\n  default:\n    maker: -1\n    taker: 0\n", "fees.default"},
		{"log level", "logging:\n  level: loud\n", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	t.Setenv("ORDER_MATCHER_LOG_LEVEL", "warn")
	t.Setenv("ORDER_MATCHER_JOURNAL", "/tmp/journal.bin")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/journal.bin", cfg.Journal.Path)
}
