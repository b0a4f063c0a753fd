package detail

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Body styles.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	// StylePlain renders without colors, for logs and tests.
	StylePlain = "plain"
)

// styleConfig returns the glamour style for name with the document margin
// removed; the modal box supplies its own padding.
func styleConfig(name string) ansi.StyleConfig {
	var cfg ansi.StyleConfig
	switch name {
	case StyleLight:
		cfg = styles.LightStyleConfig
	case StylePlain:
		cfg = styles.NoTTYStyleConfig
	default:
		cfg = styles.DarkStyleConfig
	}
	var margin uint
	cfg.Document.Margin = &margin
	return cfg
}

// renderBody lays out markdown for a viewport width columns wide.
func renderBody(markdown string, width int, style string) ([]string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig(style)),
		glamour.WithWordWrap(max(width, 1)),
	)
	if err != nil {
		return nil, err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
