package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-matcher/internal/config"
)

func TestConfigureWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	defer Logger.SetOutput(os.Stdout)
	defer Logger.SetLevel(logrus.InfoLevel)

	require.NoError(t, Configure(config.Logging{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1}))
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	LogOrderResult(7, "OrderAccepted")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":7`)
	assert.Contains(t, string(data), "Order matching result")
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Configure(config.Logging{Level: "loud"}))
}
