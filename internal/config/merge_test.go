package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pageturn/internal/config"
)

// newDefaultTarget returns a Config with known non-zero values so tests can
// verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	cfg := config.Default()
	cfg.Cache.Directory = "/var/cache/pageturn"
	cfg.Logging.File = "/var/log/pageturn.log"
	return cfg
}

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
selectors:
  list: ul.results
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "ul.results", target.Selectors.List)
	assert.Equal(t, config.DefaultPagingSelector, target.Selectors.Paging, "sibling keys keep their values")
	assert.Equal(t, config.DefaultContentSelector, target.Selectors.Content)
}

func TestShallowMergeYAML_MultipleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
scroll:
  padding: 250
fetch:
  timeout: 5s
  user_agent: crawler/2
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, 250, target.Scroll.Padding)
	assert.Equal(t, 5*time.Second, target.Fetch.Timeout)
	assert.Equal(t, "crawler/2", target.Fetch.UserAgent)
	assert.Equal(t, int64(config.DefaultMaxBodyBytes), target.Fetch.MaxBodyBytes)
}

func TestShallowMergeYAML_AbsentKeysPreserved(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
cache:
  enabled: true
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.True(t, target.Cache.Enabled)
	assert.Equal(t, "/var/cache/pageturn", target.Cache.Directory)
	assert.Equal(t, config.DefaultCacheTTLSeconds, target.Cache.TTLSeconds)
	assert.Equal(t, "/var/log/pageturn.log", target.Logging.File)
	assert.Equal(t, config.DefaultPadding, target.Scroll.Padding)
}

func TestShallowMergeYAML_EmptyOverlayFile(t *testing.T) {
	target := newDefaultTarget()
	before := *target
	overlay := writeOverlay(t, "")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, before, *target)
}

func TestShallowMergeYAML_CommentOnlyFile(t *testing.T) {
	target := newDefaultTarget()
	before := *target
	overlay := writeOverlay(t, "# nothing here\n# still nothing\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, before, *target)
}

func TestShallowMergeYAML_CorruptedYAMLReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "selectors: [unclosed\n")

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing overlay YAML")
}

func TestShallowMergeYAML_MissingFileReturnsError(t *testing.T) {
	target := newDefaultTarget()

	err := config.ShallowMergeYAML(target, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading overlay file")
}

func TestShallowMergeYAML_NilTarget(t *testing.T) {
	require.Error(t, config.ShallowMergeYAML(nil, "unused.yaml"))
}

func TestShallowMergeYAML_OverrideLogging(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
logging:
  level: debug
  format: console
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "debug", target.Logging.Level)
	assert.Equal(t, "console", target.Logging.Format)
	assert.Equal(t, "/var/log/pageturn.log", target.Logging.File)
}

func TestShallowMergeYAML_ZeroValueFieldsReplaceDefaults(t *testing.T) {
	target := newDefaultTarget()
	target.Cache.Enabled = true
	overlay := writeOverlay(t, `
cache:
  enabled: false
  ttl_seconds: 0
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.False(t, target.Cache.Enabled)
	assert.Equal(t, 0, target.Cache.TTLSeconds)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
theme: dark
scroll:
  padding: 40
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, 40, target.Scroll.Padding)
}

func TestShallowMergeYAML_TypeMismatchReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
scroll:
  padding: lots
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"scroll"`)
}
