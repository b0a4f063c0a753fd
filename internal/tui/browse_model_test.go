package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pageturn/internal/fetch"
	"github.com/rshade/pageturn/internal/markup"
	"github.com/rshade/pageturn/internal/tui/detail"
	"github.com/rshade/pageturn/internal/tui/scroll"
)

const testBase = "http://example.test/entities/"

type stubFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	called []string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (*fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &fetch.StatusError{URL: rawURL, StatusCode: 404}
	}
	return &fetch.Response{URL: rawURL, StatusCode: 200, Body: body}, nil
}

func (f *stubFetcher) calls(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.called {
		if c == rawURL {
			n++
		}
	}
	return n
}

// entityPage renders a list page with count items starting at first. Item 1
// carries the modal attributes, the others do not.
func entityPage(first, count int, next string) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Entities</title></head><body><div class="item-list">`)
	for i := first; i < first+count; i++ {
		if i == 1 {
			b.WriteString(`<div class="item"><a href="/entities/1/" data-modal-url="/entities/1/modal/" data-modal-title="Entity 1">Entity 1</a></div>`)
			continue
		}
		fmt.Fprintf(&b, `<div class="item"><a href="/entities/%d/">Entity %d</a></div>`, i, i)
	}
	b.WriteString(`<div class="pagination">`)
	if next != "" {
		fmt.Fprintf(&b, `<a class="next-page" href="%s">next</a>`, next)
	}
	b.WriteString(`</div></div>`)
	b.WriteString(`<script type="text/template" class="loader"><p>Fetching entities...</p></script>`)
	b.WriteString(`<div id="modal"><h4 class="modal-title"></h4><div class="modal-body"></div><a class="close">×</a></div>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

func newStub() *stubFetcher {
	return &stubFetcher{pages: map[string]string{
		testBase:              entityPage(1, 20, "?page=2"),
		testBase + "?page=2":  entityPage(21, 20, ""),
		testBase + "1/modal/": "<p>Details for entity 1</p>",
		testBase + "2/":       entityPage(100, 3, ""),
	}}
}

func update(t *testing.T, m BrowseModel, msg tea.Msg) (BrowseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BrowseModel)
	require.True(t, ok)
	return bm, cmd
}

// drain runs cmd and any batched commands, returning the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func firstOf[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// mounted returns a model that has loaded testBase in a 80x10 terminal.
func mounted(t *testing.T, f *stubFetcher) BrowseModel {
	t.Helper()
	m := NewBrowseModel(context.Background(), f, testBase, Options{
		Selectors: markup.DefaultSelectors(),
		BodyStyle: detail.StylePlain,
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})
	m, cmd := update(t, m, m.Load()())
	require.Equal(t, ViewStateList, m.State())
	assert.Nil(t, cmd, "first screen is far from the end of the list")
	return m
}

func pressKey(t *testing.T, m BrowseModel, k tea.KeyMsg) (BrowseModel, tea.Cmd) {
	t.Helper()
	return update(t, m, k)
}

func TestBrowseModel_Mount(t *testing.T) {
	f := newStub()
	m := mounted(t, f)

	assert.Equal(t, "Entities", m.Title())
	assert.Len(t, m.Entries(), 21)
	require.NotNil(t, m.Scroll())
	require.NotNil(t, m.Modal())
	assert.Equal(t, scroll.StateIdle, m.Scroll().State())
	assert.Equal(t, "Fetching entities...", m.Scroll().LoadingText())

	view := m.View()
	assert.Contains(t, view, "Entity 1")
	assert.Contains(t, view, "20 items")
}

func TestBrowseModel_ScrollLoadsNextPageOnce(t *testing.T) {
	f := newStub()
	m := mounted(t, f)

	var fetches []tea.Cmd
	for range 19 {
		var cmd tea.Cmd
		m, cmd = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
		if cmd != nil {
			fetches = append(fetches, cmd)
		}
	}
	require.Len(t, fetches, 1, "one request while loading")
	assert.True(t, m.Scroll().Loading())
	assert.Contains(t, m.View(), "Fetching entities...")

	loaded, ok := firstOf[scroll.PageLoadedMsg](drain(fetches[0]))
	require.True(t, ok)
	m, _ = update(t, m, loaded)

	entries := m.Entries()
	assert.Len(t, entries, 41)
	pagination := 0
	for _, e := range entries {
		if e.Kind == markup.EntryPagination {
			pagination++
		}
	}
	assert.Equal(t, 1, pagination, "old pagination replaced")
	assert.Equal(t, markup.EntryPagination, entries[len(entries)-1].Kind)
	assert.Equal(t, scroll.StateExhausted, m.Scroll().State())
	assert.Equal(t, 1, f.calls(testBase+"?page=2"))

	for range 30 {
		var cmd tea.Cmd
		m, cmd = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
		assert.Nil(t, cmd)
	}
	assert.Contains(t, m.View(), "end of list")
}

func TestBrowseModel_MountChecksShortLists(t *testing.T) {
	f := newStub()
	f.pages[testBase] = entityPage(1, 3, "?page=2")
	m := NewBrowseModel(context.Background(), f, testBase, Options{Selectors: markup.DefaultSelectors()})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	m, cmd := update(t, m, m.Load()())
	require.NotNil(t, cmd, "a list shorter than the screen asks for more at once")
	assert.True(t, m.Scroll().Loading())
}

func TestBrowseModel_ModalOpensOnInterceptedClick(t *testing.T) {
	f := newStub()
	m := mounted(t, f)

	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "Entity 1", m.Modal().Title())
	assert.False(t, m.Modal().Visible())
	assert.Equal(t, 0, f.calls(testBase+"1/modal/"))

	frag, ok := firstOf[detail.FragmentLoadedMsg](drain(cmd))
	require.True(t, ok)
	m, _ = update(t, m, frag)

	require.True(t, m.Modal().Visible())
	view := m.View()
	assert.Contains(t, view, "Entity 1")
	assert.Contains(t, view, "Details for entity 1")
	assert.Equal(t, ViewStateList, m.State(), "no navigation happened")

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Modal().Visible())
	assert.NotContains(t, m.View(), "Details for entity 1")
}

func TestBrowseModel_DefaultNavigation(t *testing.T) {
	f := newStub()
	m := mounted(t, f)

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	nav, ok := firstOf[NavigateMsg](drain(cmd))
	require.True(t, ok)
	assert.Equal(t, "http://example.test/entities/2/", nav.URL)
	assert.False(t, m.Modal().Visible())

	oldScroll := m.Scroll()
	m, cmd = update(t, m, nav)
	assert.Equal(t, ViewStateLoading, m.State())
	assert.Equal(t, []string{testBase}, m.History())
	assert.Equal(t, scroll.StateExhausted, oldScroll.State(), "previous page detached")

	page, ok := firstOf[PageFetchedMsg](drain(cmd))
	require.True(t, ok)
	m, _ = update(t, m, page)
	assert.Equal(t, ViewStateList, m.State())
	assert.Len(t, m.Entries(), 4)

	m, cmd = pressKey(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	back, ok := firstOf[PageFetchedMsg](drain(cmd))
	require.True(t, ok)
	m, _ = update(t, m, back)
	assert.Equal(t, testBase, m.URL())
	assert.Empty(t, m.History())
}

func TestBrowseModel_StalePageIgnored(t *testing.T) {
	f := newStub()
	m := mounted(t, f)

	stale := m.Load()()
	m, _ = update(t, m, NavigateMsg{URL: "http://example.test/entities/2/"})
	m, _ = update(t, m, stale)

	assert.Equal(t, ViewStateLoading, m.State())
}

func TestBrowseModel_MissingContainers(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		testBase: `<html><head><title>Plain</title></head><body><p>Nothing to list</p></body></html>`,
	}}
	m := NewBrowseModel(context.Background(), f, testBase, Options{Selectors: markup.DefaultSelectors()})
	m, cmd := update(t, m, m.Load()())

	assert.Nil(t, cmd)
	assert.Equal(t, ViewStateList, m.State())
	assert.Nil(t, m.Scroll())
	assert.Nil(t, m.Modal())
	assert.Contains(t, m.View(), "page has no list container")

	m, cmd = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewStateList, m.State())
}

func TestBrowseModel_InitialPageError(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{}}
	m := NewBrowseModel(context.Background(), f, testBase, Options{})
	m, _ = update(t, m, m.Load()())

	assert.Equal(t, ViewStateError, m.State())
	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "Could not load page")

	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Equal(t, ViewStateLoading, m.State())
	assert.NotNil(t, cmd)
	assert.Empty(t, m.History(), "retry does not add history")

	m, cmd = pressKey(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Equal(t, ViewStateQuitting, m.State())
	assert.NotNil(t, cmd)
}

// zoneAt waits for the zone to be registered by the last View call and
// returns a click on its top-left cell.
func zoneAt(t *testing.T, m BrowseModel, id string) tea.MouseMsg {
	t.Helper()
	require.Eventually(t, func() bool {
		return !m.zones.Get(id).IsZero()
	}, time.Second, 5*time.Millisecond, "zone %s never rendered", id)
	z := m.zones.Get(id)
	return tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}

func TestBrowseModel_MouseClicks(t *testing.T) {
	f := newStub()
	m := mounted(t, f)
	_ = m.View()

	m, cmd := update(t, m, zoneAt(t, m, rowZone(0)))
	require.NotNil(t, cmd, "first row carries a modal link")
	assert.Equal(t, 0, m.list.Selected())
	frag, ok := firstOf[detail.FragmentLoadedMsg](drain(cmd))
	require.True(t, ok)
	m, _ = update(t, m, frag)
	require.True(t, m.Modal().Visible())

	_ = m.View()
	outside := tea.MouseMsg{X: 0, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
	m, _ = update(t, m, outside)
	assert.True(t, m.Modal().Visible(), "only the close label closes the modal")

	m, _ = update(t, m, zoneAt(t, m, zoneModalClose))
	assert.False(t, m.Modal().Visible())
}

func TestBrowseModel_MouseWheelScrolls(t *testing.T) {
	f := newStub()
	m := mounted(t, f)

	wheel := tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress}
	var fetches int
	for range 10 {
		var cmd tea.Cmd
		m, cmd = update(t, m, wheel)
		if cmd != nil {
			fetches++
		}
	}
	assert.Equal(t, 1, fetches)
	assert.True(t, m.Scroll().Loading())
}
