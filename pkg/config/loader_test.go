package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  type: s3
  s3:
    bucket: lab-data
conversion:
  policy: exact
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	require.NoError(t, Load(cfgPath))
	assert.Equal(t, "s3", viper.GetString("storage.type"))
	assert.Equal(t, "lab-data", viper.GetString("storage.s3.bucket"))
	assert.Equal(t, "exact", viper.GetString("conversion.policy"))

	// 没有写的键使用默认值
	assert.Equal(t, "us-east-1", viper.GetString("storage.s3.region"))
	assert.Equal(t, "sqlite", viper.GetString("catalog.driver"))
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("EXD_STORAGE_PATH", "/data/store")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  path: /from/file\n"), 0644))

	require.NoError(t, Load(cfgPath))
	assert.Equal(t, "/data/store", viper.GetString("storage.path"))
}

func TestLoad_BrokenFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage: [unclosed\n"), 0644))

	err := Load(cfgPath)
	assert.ErrorContains(t, err, "fatal error config file")
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupLogger(&buf, "info")
	slog.Debug("hidden")
	slog.Info("shown", slog.String("k", "v"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "k=v")

	assert.Equal(t, slog.LevelWarn, ParseLevel("bogus"))
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
}
