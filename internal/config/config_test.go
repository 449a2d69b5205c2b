package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 30*time.Second, cfg.TxStatementTimeout)
	assert.Equal(t, DefaultLedger(), cfg.LedgerConfig)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("LOW_STOCK_THRESHOLD", "12")
	t.Setenv("TAX_PAYABLE_CODE", "2200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(12), cfg.LowStockThreshold)
	assert.Equal(t, "2200", cfg.TaxPayableCode)
}

func TestLoad_UnknownStorage(t *testing.T) {
	t.Setenv("STORAGE", "mongo")

	_, err := Load()
	assert.Error(t, err)
}
