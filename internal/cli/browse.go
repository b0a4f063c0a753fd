package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rshade/pageturn/internal/config"
	"github.com/rshade/pageturn/internal/tui"
	"github.com/rshade/pageturn/internal/tui/detail"
)

// browseProgramOptions are the Bubble Tea options of the browse command.
// Tests replace them to run the program without a terminal.
//
//nolint:gochecknoglobals // Test seam.
var browseProgramOptions = func(cmd *cobra.Command) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	}
}

// NewBrowseCmd creates the interactive browse command.
//
// The command fetches URL, binds infinite scrolling to the list container and
// the modal loader to the modal shell, and runs the full-screen TUI.
func NewBrowseCmd() *cobra.Command {
	var padding int

	cmd := &cobra.Command{
		Use:   "browse URL",
		Short: "Browse a paginated list interactively",
		Long: `Browse a server-rendered list page with infinite scrolling.

Scrolling near the bottom fetches the next page and appends its items.
Items whose link carries a modal URL and title open their details in a
modal; other links navigate to the linked page.`,
		Args: cobra.ExactArgs(1),
		Annotations: map[string]string{
			annotationOwnsTerminal: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			startURL := strings.TrimSpace(args[0])
			if startURL == "" {
				return ErrNoURL
			}

			cfg := config.GetGlobalConfig()
			if cmd.Flags().Changed("padding") {
				if padding < 0 {
					return fmt.Errorf("padding must be >= 0, got %d", padding)
				}
				cfg.Scroll.Padding = padding
			}

			sel, err := selectorsFrom(cfg)
			if err != nil {
				return err
			}
			client, err := newFetchClient(cfg, startURL, logger)
			if err != nil {
				return err
			}

			logger.Debug().
				Str("url", client.Base().String()).
				Int("padding", cfg.Scroll.Padding).
				Bool("cache", cfg.Cache.Enabled).
				Msg("starting browser")

			bodyStyle := detail.StyleDark
			if !lipgloss.HasDarkBackground() {
				bodyStyle = detail.StyleLight
			}

			model := tui.NewBrowseModel(cmd.Context(), client, client.Base().String(), tui.Options{
				Selectors: sel,
				Padding:   cfg.Scroll.Padding,
				BodyStyle: bodyStyle,
				Logger:    logger,
			})
			p := tea.NewProgram(model, browseProgramOptions(cmd)...)
			if _, err = p.Run(); err != nil {
				return fmt.Errorf("failed to run interactive TUI: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&padding, "padding", config.DefaultPadding,
		"distance from the bottom, in pixels, that triggers the next page load")

	return cmd
}
