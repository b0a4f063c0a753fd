package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/rshade/pageturn/internal/markup"
	"github.com/rshade/pageturn/internal/tui/scroll"
)

const (
	ellipsis      = "…"
	cursorWidth   = 2
	modalMarker   = " ◆"
	defaultCloser = "×"
)

// View renders the current state (Bubble Tea interface). Mouse zones are
// resolved against the complete frame.
func (m BrowseModel) View() string {
	return m.zones.Scan(m.render())
}

func (m BrowseModel) render() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return m.renderHeader() + "\n" + RenderLoading(m.loading)
	case ViewStateError:
		return m.renderHeader() + "\n" + m.renderError()
	case ViewStateList:
		if m.modal != nil && m.modal.Visible() {
			return m.renderModal()
		}
		return m.renderList()
	}
	return ""
}

func (m BrowseModel) renderHeader() string {
	title := m.title
	if title == "" {
		title = "pageturn"
	}
	return HeaderStyle.Render(truncate(title, m.width)) + "\n" +
		SubtleStyle.Render(truncate(m.url, m.width))
}

func (m BrowseModel) renderError() string {
	msg := "Could not load page"
	if m.err != nil {
		msg = fmt.Sprintf("Could not load page: %v", m.err)
	}
	body := CriticalStyle.Render(msg) + "\n\n" + SubtleStyle.Render("r retry · b back · q quit")
	return BoxStyle.Width(max(m.width-2, 10)).Render(body) //nolint:mnd // Border width and minimum.
}

func (m BrowseModel) renderList() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	rendered := 0
	if rows := m.list.View(); rows != "" {
		for slot, row := range strings.Split(rows, "\n") {
			pad := strings.Repeat(" ", max(m.width-lipgloss.Width(row), 0))
			b.WriteString(m.zones.Mark(rowZone(slot), row+pad))
			b.WriteString("\n")
			rendered++
		}
	}
	for i := rendered; i < m.list.Height(); i++ {
		b.WriteString("\n")
	}

	b.WriteString(m.renderIndicator())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderIndicator is the row below the list: the loader while a page is in
// flight, the last page error, or the end-of-list marker.
func (m BrowseModel) renderIndicator() string {
	switch {
	case m.modal != nil && m.modal.Pending():
		return m.loading.Inline()
	case m.scroll == nil:
		return SubtleStyle.Render(m.status)
	case m.scroll.Loading():
		return m.loading.Inline()
	case m.scroll.Err() != nil:
		return WarningStyle.Render(truncate("Next page failed: "+m.scroll.Err().Error()+" (scroll to retry)", m.width))
	case m.scroll.State() == scroll.StateExhausted:
		return SubtleStyle.Render("end of list")
	}
	return ""
}

func (m BrowseModel) renderStatus() string {
	items := 0
	for _, e := range m.list.Items() {
		if e.Kind == markup.EntryItem {
			items++
		}
	}
	parts := []string{fmt.Sprintf("%d items", items)}
	if m.scroll != nil {
		parts = append(parts,
			fmt.Sprintf("%d %s", m.scroll.Pages(), plural(m.scroll.Pages(), "page", "pages")),
			humanize.Bytes(uint64(max(m.scroll.Bytes(), 0))),
			m.scroll.State().String(),
		)
	}
	if n := m.list.ItemCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", m.list.Selected()+1, n))
	}
	return StatusBarStyle.Render(truncate(strings.Join(parts, " · "), m.width))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// renderModal draws the modal centered on screen with a clickable close label.
func (m BrowseModel) renderModal() string {
	w, _ := m.modalSize()
	inner := w - modalChromeCols

	closer := m.modal.Shell().CloseText
	if closer == "" {
		closer = defaultCloser
	}
	closeLabel := CloseButtonStyle.Render("[" + closer + "]")
	closeW := lipgloss.Width(closeLabel)
	closeLabel = m.zones.Mark(zoneModalClose, closeLabel)

	title := ModalTitleStyle.Render(truncate(m.modal.Title(), max(inner-closeW-1, 1)))
	gap := max(inner-lipgloss.Width(title)-closeW, 1)
	top := title + strings.Repeat(" ", gap) + closeLabel

	var body string
	if err := m.modal.Err(); err != nil {
		body = CriticalStyle.Render(truncate("Could not load details: "+err.Error(), inner)) +
			"\n\n" + SubtleStyle.Render("press r to retry, esc to close")
	} else {
		body = m.modal.BodyView()
	}

	footer := m.help.View(modalHelp{keys: m.keys})
	if pct := m.modal.ScrollPercent(); pct > 0 && pct < 1 {
		footer += SubtleStyle.Render(fmt.Sprintf("  %3.f%%", pct*100)) //nolint:mnd // Percent.
	}

	box := ModalBoxStyle.Width(w - 2).Render(top + "\n\n" + body + "\n" + footer) //nolint:mnd // Border width.
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderEntry renders one list row.
func renderEntry(e markup.Entry, selected bool, width int) string {
	avail := max(width-cursorWidth, 1)

	if e.Kind == markup.EntryPagination {
		text := e.Text
		if text == "" {
			text = "(no more pages)"
		}
		return PaginationStyle.Render("  " + truncate("··· "+text, avail))
	}

	marker := ""
	if _, ok := markup.TryGetLinkTarget(e.Link); ok {
		marker = modalMarker
	}
	text := truncate(e.Text, max(avail-lipgloss.Width(marker), 1))

	if selected {
		return ListCursor.Render("› ") + ListItemSelected.Render(text) + ModalMarkerStyle.Render(marker)
	}
	return "  " + ListItemNormal.Render(text) + ModalMarkerStyle.Render(marker)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, ellipsis)
}
