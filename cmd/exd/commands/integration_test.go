package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI 写一个指向临时目录的配置文件，返回它的路径
func setupCLI(t *testing.T) string {
	t.Helper()
	viper.Reset()
	bindFlags()
	EXD = nil
	t.Cleanup(func() {
		viper.Reset()
		EXD = nil
	})

	dir := t.TempDir()
	cfg := fmt.Sprintf("storage:\n  path: %s\ncatalog:\n  dsn: %s\nlog:\n  level: error\n",
		filepath.Join(dir, "store"), filepath.Join(dir, "catalog.db"))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath
}

// resetFlags 把所有子命令的 flag 恢复为默认值 (cobra 会在多次 Execute 之间保留它们)
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfgPath, args...)
	require.NoError(t, err, "exd %v", args)
	return out
}

func TestCLI_Workflow(t *testing.T) {
	cfg := setupCLI(t)

	out := mustRun(t, cfg, "create")
	assert.Contains(t, out, "Initialized exdir store in")

	// 再次 create 是幂等的
	mustRun(t, cfg, "create")

	out = mustRun(t, cfg, "mkgrp", "/run")
	assert.Equal(t, "Created group /run\n", out)

	out = mustRun(t, cfg, "put", "/run/gain", "--dtype", "float32", "--shape", "2,2", "1", "0", "0", "1")
	assert.Equal(t, "Wrote /run/gain (2x2 float32)\n", out)

	out = mustRun(t, cfg, "put", "/counts", "--dtype", "int64", "3", "5", "7")
	assert.Contains(t, out, "(3 int64)")

	out = mustRun(t, cfg, "ls")
	assert.Regexp(t, `Dataset\s+counts\s+vector of size 3`, out)
	assert.Regexp(t, `Group\s+run\s+1 objects`, out)

	out = mustRun(t, cfg, "show", "/counts")
	assert.Contains(t, out, "[3 5 7]")

	out = mustRun(t, cfg, "info", "/run/gain")
	assert.Contains(t, out, "2x2 matrix")
	assert.Contains(t, out, "float32 (<f4)")

	// set-attr: 新建、重复写入 (no-op)、修改
	out = mustRun(t, cfg, "set-attr", "/run", "rate", "100")
	assert.Equal(t, "/run.rate = 100\n", out)
	out = mustRun(t, cfg, "set-attr", "/run", "rate", "100")
	assert.Equal(t, "/run.rate unchanged\n", out)

	out = mustRun(t, cfg, "attrs", "/run")
	assert.Regexp(t, `rate\s+100`, out)

	out = mustRun(t, cfg, "manifest", "-q")
	first := out
	assert.Len(t, first, 65) // 64 hex + 换行

	// 内容不变，哈希不变
	out = mustRun(t, cfg, "manifest", "-q")
	assert.Equal(t, first, out)

	out = mustRun(t, cfg, "manifest")
	assert.Contains(t, out, "/run/gain")

	out = mustRun(t, cfg, "index", "--prune")
	assert.Equal(t, "Indexed 2 datasets, pruned 0\n", out)

	out = mustRun(t, cfg, "find", "--dtype", "float32")
	assert.Contains(t, out, "/run/gain")
	assert.NotContains(t, out, "/counts")

	out = mustRun(t, cfg, "find", "--rank", "1")
	assert.Contains(t, out, "/counts")

	out = mustRun(t, cfg, "find", "--under", "/run")
	assert.Contains(t, out, "/run/gain")
	assert.NotContains(t, out, "/counts")

	out = mustRun(t, cfg, "find", "--rank", "3")
	assert.Contains(t, out, "no matching datasets")
}

func TestCLI_Errors(t *testing.T) {
	cfg := setupCLI(t)

	// 仓库还不存在
	_, err := runCLI(t, cfg, "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exd create")

	mustRun(t, cfg, "create")

	t.Run("ShowMissing", func(t *testing.T) {
		_, err := runCLI(t, cfg, "show", "/nope")
		assert.Error(t, err)
	})

	t.Run("PutBadShape", func(t *testing.T) {
		_, err := runCLI(t, cfg, "put", "/x", "--shape", "2,2", "1", "2", "3")
		assert.Error(t, err)
	})

	t.Run("PutBadDtype", func(t *testing.T) {
		_, err := runCLI(t, cfg, "put", "/x", "--dtype", "float128", "1")
		assert.Error(t, err)
	})

	t.Run("SetAttrNotANumber", func(t *testing.T) {
		_, err := runCLI(t, cfg, "set-attr", "/", "gain", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid number")
	})

	t.Run("UnknownPolicy", func(t *testing.T) {
		_, err := runCLI(t, cfg, "--policy", "sloppy", "ls")
		assert.Error(t, err)
	})
}
