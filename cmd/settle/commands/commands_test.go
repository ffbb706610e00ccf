package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/settle"
)

// run executes the CLI against a file store rooted in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--store", "file",
		"--dir", dir,
	}, args...)
	err := Run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func TestAddListSettle(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "add", "Ana", "90")
	require.NoError(t, err)
	_, err = run(t, dir, "add", "Beto", "0")
	require.NoError(t, err)
	_, err = run(t, dir, "add", "Caro", "0")
	require.NoError(t, err)

	out, err := run(t, dir, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1."), lines[0])
	assert.Contains(t, lines[0], "Ana")
	assert.Contains(t, lines[0], "$90")
	assert.Contains(t, lines[2], "Caro")

	out, err = run(t, dir, "settle")
	require.NoError(t, err)
	assert.Contains(t, out, "Total spent: $90")
	assert.Contains(t, out, "Each pays:   $30")
	assert.Regexp(t, `Beto\s+pays\s+Ana\s+\$30`, out)
	assert.Regexp(t, `Caro\s+pays\s+Ana\s+\$30`, out)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "add", " ", "10")
	assert.ErrorIs(t, err, errAddIgnored)
	_, err = run(t, dir, "add", "Ana", "abc")
	assert.ErrorIs(t, err, errAddIgnored)

	out, err := run(t, dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "no participants\n", out)
}

func TestAddHelpMentionsColorScope(t *testing.T) {
	var stdout bytes.Buffer
	err := Run(context.Background(), []string{"add", "--help"}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Colors are tracked per run")
}

func TestRemoveIsOneBased(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "add", "Ana", "10")
	require.NoError(t, err)
	_, err = run(t, dir, "add", "Beto", "20")
	require.NoError(t, err)

	out, err := run(t, dir, "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, "removed Ana\n", out)

	_, err = run(t, dir, "remove", "5")
	assert.ErrorIs(t, err, errRemoveIgnored)
	_, err = run(t, dir, "remove", "0")
	assert.ErrorIs(t, err, errRemoveIgnored)
	_, err = run(t, dir, "remove", "x")
	assert.Error(t, err)

	out, err = run(t, dir, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Ana")
	assert.Contains(t, out, "Beto")
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "add", "Ana", "10")
	require.NoError(t, err)

	out, err := run(t, dir, "reset")
	require.NoError(t, err)
	assert.Equal(t, "removed 1 participants\n", out)

	out, err = run(t, dir, "settle")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to settle.")
}

func TestLocaleFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "add", "Ana", "1234.5")
	require.NoError(t, err)

	out, err := run(t, dir, "--locale", "en", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "$1,234.50")

	out, err = run(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "$1.234,50")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settle.yaml")
	cfgYAML := "store: memory\nlocale: en\nsnapshot_key: trip\npalette: [\"#123456\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(cfgYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "trip", cfg.SnapshotKey)
	assert.Equal(t, []string{"#123456"}, cfg.Palette)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	var stdout bytes.Buffer
	err = Run(context.Background(), []string{"--config", path, "add", "Ana", "10"}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "1. Ana paid $10\n", stdout.String())
}

func TestConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("SETTLE_STORE", "redis")
	t.Setenv("SETTLE_REDIS_ADDR", "cache:6380")
	t.Setenv("SETTLE_REDIS_DB", "2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = "floppy"
	assert.ErrorIs(t, cfg.Validate(), settle.ErrInvalidStoreDriver)

	cfg = DefaultConfig()
	cfg.Store = StoreS3
	assert.ErrorIs(t, cfg.Validate(), settle.ErrInvalidStoreDriver)

	cfg = DefaultConfig()
	cfg.Locale = "fr"
	assert.Error(t, cfg.Validate())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	args := []string{"--config", "", "--store", "redis", "--redis-addr", mr.Addr()}

	err := Run(context.Background(), append(args, "add", "Ana", "10"), &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	raw, err := mr.Get("settle:" + settle.DefaultSnapshotKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"name":"Ana"`)

	var stdout bytes.Buffer
	err = Run(context.Background(), append(args, "list"), &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Ana")
}
