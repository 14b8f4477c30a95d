package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Sync.MaxProductsPerRun)
	assert.Equal(t, UnmatchedLineFail, cfg.Sync.UnmatchedLinePolicy)
	assert.InDelta(t, 0.21, cfg.Sync.DefaultShippingTaxRate, 1e-9)
	assert.Equal(t, 250, cfg.Shopify.PageLimit)
	assert.Equal(t, 30*time.Minute, cfg.Task.RunTimeout)
	assert.False(t, cfg.Sync.CreateProductsOnImport)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SYNC_MAX_PRODUCTS_PER_RUN", "0")
	t.Setenv("SYNC_UNMATCHED_LINE_POLICY", "GENERIC")
	t.Setenv("SHOPIFY_REQUESTS_PER_SECOND", "1.5")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Sync.MaxProductsPerRun)
	assert.Equal(t, UnmatchedLineGeneric, cfg.Sync.UnmatchedLinePolicy)
	assert.InDelta(t, 1.5, cfg.Shopify.RequestsPerSecond, 1e-9)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "sync:\n  max_products_per_run: 25\ntask:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Sync.MaxProductsPerRun)
	assert.False(t, cfg.Task.Enabled)
}

func TestValidate_UnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Sync.UnmatchedLinePolicy = "skip"
	assert.Error(t, cfg.Validate())

	cfg.Sync.UnmatchedLinePolicy = UnmatchedLineGeneric
	cfg.Sync.GenericProductSKU = ""
	assert.Error(t, cfg.Validate())
}
