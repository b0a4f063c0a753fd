package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// wheelStep is the number of rows one mouse wheel notch scrolls.
const wheelStep = 3

// RenderFunc renders one row. width is the viewport width in columns.
type RenderFunc[T any] func(item T, selected bool, width int) string

// VirtualListModel is a one-row-per-item list that only renders the rows
// inside its viewport. Items can be appended while the list is displayed,
// and DistanceFromBottom reports how far the viewport is from the end.
type VirtualListModel[T any] struct {
	items      []T
	renderFunc RenderFunc[T]

	// selected is the highlighted item index.
	selected int

	// visibleFrom and visibleTo bound the viewport, visibleTo exclusive.
	visibleFrom int
	visibleTo   int

	height int
	width  int
}

// NewVirtualListModel creates a list over items with a viewport of
// height rows and width columns.
func NewVirtualListModel[T any](items []T, height, width int, renderFunc RenderFunc[T]) *VirtualListModel[T] {
	m := &VirtualListModel[T]{
		items:      items,
		renderFunc: renderFunc,
		height:     max(height, 0),
		width:      width,
	}
	m.updateVisibleRange()
	return m
}

// Init implements tea.Model.
func (m *VirtualListModel[T]) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys, the mouse wheel and resizes.
func (m *VirtualListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg), nil
	case tea.MouseMsg:
		return m.handleMouseMsg(msg), nil
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	}
	return m, nil
}

//nolint:exhaustive // Only navigation keys are handled.
func (m *VirtualListModel[T]) handleKeyMsg(msg tea.KeyMsg) tea.Model {
	if len(m.items) == 0 {
		return m
	}

	switch msg.Type {
	case tea.KeyUp:
		m.SetSelected(m.selected - 1)
	case tea.KeyDown:
		m.SetSelected(m.selected + 1)
	case tea.KeyPgUp:
		m.SetSelected(m.selected - max(m.height, 1))
	case tea.KeyPgDown:
		m.SetSelected(m.selected + max(m.height, 1))
	case tea.KeyHome:
		m.SetSelected(0)
	case tea.KeyEnd:
		m.SetSelected(len(m.items) - 1)
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			break
		}
		switch msg.Runes[0] {
		case 'j':
			m.SetSelected(m.selected + 1)
		case 'k':
			m.SetSelected(m.selected - 1)
		case 'g':
			m.SetSelected(0)
		case 'G':
			m.SetSelected(len(m.items) - 1)
		}
	}
	return m
}

func (m *VirtualListModel[T]) handleMouseMsg(msg tea.MouseMsg) tea.Model {
	if msg.Action != tea.MouseActionPress {
		return m
	}
	//nolint:exhaustive // Only the wheel scrolls.
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.ScrollBy(-wheelStep)
	case tea.MouseButtonWheelDown:
		m.ScrollBy(wheelStep)
	}
	return m
}

// ScrollBy moves the viewport by delta rows and pulls the selection along
// when it would leave the viewport.
func (m *VirtualListModel[T]) ScrollBy(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.visibleFrom += delta
	m.clampWindow()
	if m.selected < m.visibleFrom {
		m.selected = m.visibleFrom
	}
	if m.selected >= m.visibleTo && m.visibleTo > 0 {
		m.selected = m.visibleTo - 1
	}
}

// updateVisibleRange scrolls the minimum amount needed to keep the
// selection inside the viewport.
func (m *VirtualListModel[T]) updateVisibleRange() {
	if len(m.items) == 0 {
		m.selected = 0
		m.visibleFrom = 0
		m.visibleTo = 0
		return
	}
	if m.selected < m.visibleFrom {
		m.visibleFrom = m.selected
	}
	if m.height > 0 && m.selected >= m.visibleFrom+m.height {
		m.visibleFrom = m.selected - m.height + 1
	}
	m.clampWindow()
}

func (m *VirtualListModel[T]) clampWindow() {
	maxFrom := max(len(m.items)-m.height, 0)
	m.visibleFrom = min(max(m.visibleFrom, 0), maxFrom)
	m.visibleTo = min(m.visibleFrom+m.height, len(m.items))
}

// View renders the rows inside the viewport.
func (m *VirtualListModel[T]) View() string {
	if m.visibleTo <= m.visibleFrom {
		return ""
	}
	var b strings.Builder
	for i := m.visibleFrom; i < m.visibleTo; i++ {
		if i > m.visibleFrom {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderFunc(m.items[i], i == m.selected, m.width))
	}
	return b.String()
}

// Append adds items at the end without moving the viewport.
func (m *VirtualListModel[T]) Append(items ...T) {
	m.items = append(m.items, items...)
	m.updateVisibleRange()
}

// RemoveFunc deletes every item for which drop returns true and reports how
// many were removed. The selection stays on the same item when it survives.
func (m *VirtualListModel[T]) RemoveFunc(drop func(T) bool) int {
	kept := m.items[:0]
	removed := 0
	selected := m.selected
	for i, item := range m.items {
		if drop(item) {
			removed++
			if i < m.selected {
				selected--
			}
			continue
		}
		kept = append(kept, item)
	}
	var zero T
	for i := len(kept); i < len(m.items); i++ {
		m.items[i] = zero
	}
	m.items = kept
	m.selected = min(max(selected, 0), max(len(m.items)-1, 0))
	m.updateVisibleRange()
	return removed
}

// SetItems replaces all items and resets the selection.
func (m *VirtualListModel[T]) SetItems(items []T) {
	m.items = items
	m.selected = 0
	m.visibleFrom = 0
	m.updateVisibleRange()
}

// Items returns the backing slice. Callers must not modify it.
func (m *VirtualListModel[T]) Items() []T {
	return m.items
}

// SetSize resizes the viewport.
func (m *VirtualListModel[T]) SetSize(width, height int) {
	m.width = width
	m.height = max(height, 0)
	m.updateVisibleRange()
}

// DistanceFromBottom is the number of rows between the bottom edge of the
// viewport and the end of the content. Zero means the last row is visible.
func (m *VirtualListModel[T]) DistanceFromBottom() int {
	return len(m.items) - m.visibleTo
}

// IndexAtRow maps a row relative to the top of the list view to an item index.
func (m *VirtualListModel[T]) IndexAtRow(row int) (int, bool) {
	if row < 0 {
		return 0, false
	}
	idx := m.visibleFrom + row
	if idx >= m.visibleTo {
		return 0, false
	}
	return idx, true
}

// ItemCount returns the total number of items in the list.
func (m *VirtualListModel[T]) ItemCount() int {
	return len(m.items)
}

// Selected returns the currently selected item index.
func (m *VirtualListModel[T]) Selected() int {
	return m.selected
}

// SetSelected sets the selected item index, capping to valid bounds.
func (m *VirtualListModel[T]) SetSelected(index int) {
	if len(m.items) == 0 {
		m.selected = 0
		return
	}
	m.selected = min(max(index, 0), len(m.items)-1)
	m.updateVisibleRange()
}

// VisibleFrom returns the first visible item index (inclusive).
func (m *VirtualListModel[T]) VisibleFrom() int {
	return m.visibleFrom
}

// VisibleTo returns the last visible item index (exclusive).
func (m *VirtualListModel[T]) VisibleTo() int {
	return m.visibleTo
}

// Height returns the viewport height.
func (m *VirtualListModel[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *VirtualListModel[T]) Width() int {
	return m.width
}

// GetSelectedItem returns the currently selected item, or nil when the list is empty.
func (m *VirtualListModel[T]) GetSelectedItem() *T {
	if len(m.items) == 0 || m.selected < 0 || m.selected >= len(m.items) {
		return nil
	}
	return &m.items[m.selected]
}
