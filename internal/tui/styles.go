package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	ColorPrimary = lipgloss.Color("212")
	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")
	ColorInfo    = lipgloss.Color("45")
	ColorMuted   = lipgloss.Color("241")
	ColorBorder  = lipgloss.Color("240")
	ColorModalBg = lipgloss.Color("235")
)

// Text styles.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	InfoStyle     = lipgloss.NewStyle().Foreground(ColorInfo)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

// List styles.
var (
	ListItemNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	ListItemSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	ListCursor = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	PaginationStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ModalMarkerStyle = lipgloss.NewStyle().
				Foreground(ColorInfo)
)

// Box and modal styles.
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	ModalBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Background(ColorModalBg).
			Padding(0, 1)

	ModalTitleStyle = lipgloss.NewStyle().Bold(true)

	CloseButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("238"))

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
