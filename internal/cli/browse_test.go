package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pageturn/internal/config"
)

// headlessProgram runs the browser without a terminal, feeding it keys.
func headlessProgram(t *testing.T, keys string) {
	t.Helper()
	orig := browseProgramOptions
	browseProgramOptions = func(cmd *cobra.Command) []tea.ProgramOption {
		return []tea.ProgramOption{
			tea.WithContext(cmd.Context()),
			tea.WithInput(strings.NewReader(keys)),
			tea.WithOutput(io.Discard),
			tea.WithoutSignalHandler(),
		}
	}
	t.Cleanup(func() { browseProgramOptions = orig })
}

func isolatedLogs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	overlay := filepath.Join(dir, "pageturn.yaml")
	content := "logging:\n  level: error\n  format: json\n  file: " + filepath.Join(dir, "pageturn.log") + "\n"
	require.NoError(t, os.WriteFile(overlay, []byte(content), 0o600))
	t.Setenv(EnvConfig, overlay)
	t.Setenv(config.EnvCacheEnabled, "false")
	t.Cleanup(func() { config.SetGlobalConfig(nil) })
}

func TestBrowseCmd_QuitsOnKey(t *testing.T) {
	isolatedLogs(t)
	headlessProgram(t, "q")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<div class="item-list"><div class="item"><a href="/a/">A</a></div></div>`))
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"browse", srv.URL + "/", "--padding", "32"})

	require.NoError(t, root.Execute())
	assert.Equal(t, 32, config.GetGlobalConfig().Scroll.Padding)
}

func TestBrowseCmd_Errors(t *testing.T) {
	isolatedLogs(t)
	headlessProgram(t, "q")

	run := func(args ...string) error {
		root := NewRootCmd("test")
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{"browse"}, args...))
		return root.Execute()
	}

	require.Error(t, run(), "URL argument is required")
	require.ErrorContains(t, run("mailto:someone@example.com"), "invalid start URL")
	require.ErrorContains(t, run("http://example.test/", "--padding", "-1"), "padding must be >= 0")
}
