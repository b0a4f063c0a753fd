package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pageturn/internal/config"
)

func noEnv(string) (string, bool) { return "", false }

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// flagCmd returns a command carrying the root's persistent flags, parsed from args.
func flagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := NewRootCmdWithEnv("test", noEnv)
	require.NoError(t, root.ParseFlags(args))
	return root
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd("1.2.3")
	assert.Equal(t, "pageturn", root.Use)
	assert.Equal(t, "1.2.3", root.Version)

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "browse")
	assert.Contains(t, names, "dump")

	for _, flag := range []string{"config", "debug", "no-cache", "cache-ttl"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestResolveConfig_OverlayAndFlags(t *testing.T) {
	t.Setenv(config.EnvCacheEnabled, "")
	t.Setenv(config.EnvCacheTTL, "")
	overlay := writeOverlay(t, `
selectors:
  list: ul.results
  loader: script.loader
  paging: a.older:last
  content: li.result
  pagination: li.pager
  modal: "#detail"
  modal_title: h2
  modal_body: .body
  modal_close: .dismiss
  url_attr: data-detail-url
  title_attr: data-detail-title
cache:
  enabled: true
  directory: /tmp/pageturn-test
  ttl_seconds: 60
`)

	cmd := flagCmd(t, "--config", overlay, "--cache-ttl", "900")
	cfg, err := resolveConfig(cmd, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "ul.results", cfg.Selectors.List)
	assert.Equal(t, "a.older:last", cfg.Selectors.Paging)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 900, cfg.Cache.TTLSeconds)

	sel, err := selectorsFrom(cfg)
	require.NoError(t, err)
	assert.Equal(t, "a.older", sel.Paging)

	cmd = flagCmd(t, "--config", overlay, "--no-cache")
	cfg, err = resolveConfig(cmd, noEnv)
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
}

func TestResolveConfig_EnvNamesOverlay(t *testing.T) {
	overlay := writeOverlay(t, "scroll:\n  padding: 320\n")
	lookup := func(key string) (string, bool) {
		if key == EnvConfig {
			return overlay, true
		}
		return "", false
	}

	cfg, err := resolveConfig(flagCmd(t), lookup)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Scroll.Padding)
}

func TestResolveConfig_Errors(t *testing.T) {
	t.Run("missing overlay", func(t *testing.T) {
		cmd := flagCmd(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := resolveConfig(cmd, noEnv)
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		cmd := flagCmd(t, "--config", writeOverlay(t, "scroll:\n  padding: -5\n"))
		_, err := resolveConfig(cmd, noEnv)
		require.ErrorIs(t, err, config.ErrInvalidPadding)
	})

	t.Run("broken selector", func(t *testing.T) {
		cfg := config.Default()
		cfg.Selectors.Content = ".item,,["
		_, err := selectorsFrom(cfg)
		require.Error(t, err)
	})
}

func TestRootCmd_RejectsNegativeCacheTTL(t *testing.T) {
	t.Cleanup(func() { config.SetGlobalConfig(nil) })

	var buf bytes.Buffer
	root := NewRootCmdWithEnv("test", noEnv)
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"dump", "http://example.test/", "--cache-ttl", "-1"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache-ttl must be >= 0")
}

func TestOwnsTerminal(t *testing.T) {
	assert.True(t, ownsTerminal(NewBrowseCmd()))
	assert.False(t, ownsTerminal(NewDumpCmd()))
}

func TestResolveOutputFormat(t *testing.T) {
	var buf bytes.Buffer

	got, err := resolveOutputFormat("", &buf)
	require.NoError(t, err)
	assert.Equal(t, outputNDJSON, got, "non-terminal writers default to ndjson")

	got, err = resolveOutputFormat("JSON", &buf)
	require.NoError(t, err)
	assert.Equal(t, outputJSON, got)

	_, err = resolveOutputFormat("xml", &buf)
	require.Error(t, err)
}
