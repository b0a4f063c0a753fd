package tui

import (
	"context"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rs/zerolog"

	"github.com/rshade/pageturn/internal/fetch"
	"github.com/rshade/pageturn/internal/logging"
	"github.com/rshade/pageturn/internal/markup"
	"github.com/rshade/pageturn/internal/tui/detail"
	listview "github.com/rshade/pageturn/internal/tui/list"
	"github.com/rshade/pageturn/internal/tui/scroll"
)

// Layout.
const (
	defaultWidth    = 100
	defaultHeight   = 30
	headerHeight    = 2
	footerHeight    = 2
	indicatorHeight = 1
	minListHeight   = 3

	modalWidthPercent  = 80
	modalHeightPercent = 70
	modalChromeRows    = 5
	modalChromeCols    = 4
)

// Mouse zone ids. List rows are marked by their screen slot, not by entry index.
const (
	zoneRowPrefix  = "row-"
	zoneModalClose = "modal-close"
)

// NavigateMsg asks the browse view to load URL in place of the current page.
type NavigateMsg struct {
	URL string
	// Back marks history navigation, which does not push a history entry.
	Back bool
}

// PageFetchedMsg is the result of loading a whole page.
type PageFetchedMsg struct {
	Seq       uint64
	URL       string
	Doc       *markup.Document
	Bytes     int
	FromCache bool
	Err       error
}

// Options configure the browse view.
type Options struct {
	Selectors markup.Selectors
	// Padding is the scroll trigger distance in layout pixels.
	Padding int
	// BodyStyle is the modal body style; see detail.WithRenderStyle.
	BodyStyle string
	Logger    zerolog.Logger
}

// BrowseModel is the Bubble Tea model for browsing one list page at a time.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type BrowseModel struct {
	ctx     context.Context
	fetcher fetch.Fetcher
	opts    Options
	log     zerolog.Logger

	// View state
	state   ViewState
	url     string
	title   string
	err     error
	seq     uint64
	history []string
	status  string

	// Mounted page
	list   *listview.VirtualListModel[markup.Entry]
	scroll *scroll.Binder
	modal  *detail.Binder

	// Chrome
	loading *LoadingState
	keys    KeyMap
	help    help.Model
	zones   *zone.Manager

	width  int
	height int
}

// NewBrowseModel creates a browse view that starts by loading startURL.
func NewBrowseModel(ctx context.Context, fetcher fetch.Fetcher, startURL string, opts Options) BrowseModel {
	if opts.Padding <= 0 {
		opts.Padding = scroll.DefaultPadding
	}
	m := BrowseModel{
		ctx:     ctx,
		fetcher: fetcher,
		opts:    opts,
		log:     logging.ComponentLogger(opts.Logger, "browse"),
		state:   ViewStateLoading,
		url:     startURL,
		loading: NewLoadingState(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		zones:   zone.New(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.list = listview.NewVirtualListModel[markup.Entry](nil, m.listHeight(), m.width, renderEntry)
	m.loading.SetMessage("Loading " + startURL)
	return m
}

// Init starts the spinner and the first page load.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.Load())
}

// Load returns the command that fetches the current URL.
func (m BrowseModel) Load() tea.Cmd {
	ctx, fetcher, seq, rawURL, sel := m.ctx, m.fetcher, m.seq, m.url, m.opts.Selectors
	return func() tea.Msg {
		resp, err := fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return PageFetchedMsg{Seq: seq, URL: rawURL, Err: err}
		}
		doc, err := markup.ParseString(resp.Body, resp.URL, sel)
		if err != nil {
			return PageFetchedMsg{Seq: seq, URL: resp.URL, Err: err}
		}
		return PageFetchedMsg{Seq: seq, URL: resp.URL, Doc: doc, Bytes: resp.Size(), FromCache: resp.FromCache}
	}
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, m.checkScroll()
	case PageFetchedMsg:
		return m.handlePageFetched(msg)
	case NavigateMsg:
		return m.navigate(msg)
	case scroll.PageLoadedMsg:
		return m.handlePageLoaded(msg)
	case detail.FragmentLoadedMsg:
		if m.modal != nil {
			m.modal.Update(msg)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	if m.state == ViewStateLoading || (m.scroll != nil && m.scroll.Loading()) || (m.modal != nil && m.modal.Pending()) {
		return m, m.loading.Update(msg)
	}
	return m, nil
}

func (m BrowseModel) handlePageFetched(msg PageFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.seq {
		return m, nil
	}
	if msg.Err != nil {
		m.state = ViewStateError
		m.err = msg.Err
		m.log.Error().Err(msg.Err).Str("url", msg.URL).Msg("page load failed")
		return m, nil
	}
	m.url = msg.URL
	m.err = nil
	return m, m.mount(msg.Doc)
}

// mount binds both behaviors to the freshly loaded page.
func (m *BrowseModel) mount(doc *markup.Document) tea.Cmd {
	m.title = doc.Title()
	m.status = ""

	// Selectors come from the document, which was parsed with m.opts.Selectors.
	cfg := scroll.Config{
		LoadingHTML: doc.LoaderTemplate(),
		Padding:     m.opts.Padding,
		Logger:      m.opts.Logger,
	}

	var entries []markup.Entry
	if b, ok := scroll.Bind(doc.ListContainer(), cfg, m.fetcher); ok {
		m.scroll = b
		entries = slices.Clone(b.Entries())
	} else {
		m.scroll = nil
		m.status = "page has no list container"
	}

	modalOpts := []detail.Option{detail.WithLogger(m.opts.Logger)}
	if m.opts.BodyStyle != "" {
		modalOpts = append(modalOpts, detail.WithRenderStyle(m.opts.BodyStyle))
	}
	if b, ok := detail.Bind(modalShell(doc), m.fetcher, modalOpts...); ok {
		m.modal = b
		log := m.log
		b.OnceShown(func(d *detail.Binder) {
			log.Debug().Str("title", d.Title()).Msg("first detail shown")
		})
		b.OnHidden(func(d *detail.Binder) {
			log.Debug().Str("title", d.Title()).Msg("detail hidden")
		})
	} else {
		m.modal = nil
	}

	m.list.SetItems(entries)
	m.state = ViewStateList
	m.resize()

	m.log.Info().
		Str("url", doc.URL).
		Int("entries", len(entries)).
		Bool("scroll", m.scroll != nil).
		Bool("modal", m.modal != nil).
		Msg("page mounted")

	return m.checkScroll()
}

func modalShell(doc *markup.Document) markup.ModalShell {
	shell, _ := doc.ModalShell()
	return shell
}

// checkScroll reports the current distance from the bottom to the scroll binder.
func (m *BrowseModel) checkScroll() tea.Cmd {
	if m.scroll == nil || m.state != ViewStateList {
		return nil
	}
	cmd := m.scroll.OnScroll(m.list.DistanceFromBottom())
	if cmd == nil {
		return nil
	}
	m.loading.SetMessage(m.scroll.LoadingText())
	return tea.Batch(cmd, m.loading.Init())
}

func (m BrowseModel) handlePageLoaded(msg scroll.PageLoadedMsg) (tea.Model, tea.Cmd) {
	if m.scroll == nil {
		return m, nil
	}
	res, ok := m.scroll.Update(msg)
	if !ok || res.Err != nil {
		return m, nil
	}
	if res.Removed > 0 {
		m.list.RemoveFunc(func(e markup.Entry) bool { return e.Kind == markup.EntryPagination })
	}
	m.list.Append(res.Appended...)
	return m, m.checkScroll()
}

func (m BrowseModel) navigate(msg NavigateMsg) (tea.Model, tea.Cmd) {
	if msg.URL == "" {
		return m, nil
	}
	if !msg.Back && m.state == ViewStateList {
		m.history = append(m.history, m.url)
	}
	m.unmount()
	m.url = msg.URL
	m.seq++
	m.state = ViewStateLoading
	m.loading.SetMessage("Loading " + msg.URL)
	m.log.Debug().Str("url", msg.URL).Bool("back", msg.Back).Msg("navigating")
	return m, tea.Batch(m.loading.Init(), m.Load())
}

func (m *BrowseModel) unmount() {
	if m.scroll != nil {
		m.scroll.Detach()
		m.scroll = nil
	}
	if m.modal != nil {
		m.modal.Close()
		m.modal = nil
	}
	m.list.SetItems(nil)
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.state = ViewStateQuitting
		return m, tea.Quit
	}

	if m.modal != nil && m.modal.Visible() {
		return m.handleModalKey(msg)
	}

	switch m.state {
	case ViewStateLoading:
		if key.Matches(msg, m.keys.Quit) {
			m.state = ViewStateQuitting
			return m, tea.Quit
		}
		return m, nil
	case ViewStateError:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.state = ViewStateQuitting
			return m, tea.Quit
		case key.Matches(msg, m.keys.Retry), key.Matches(msg, m.keys.Reload):
			return m.navigate(NavigateMsg{URL: m.url, Back: true})
		case key.Matches(msg, m.keys.Back):
			return m.back()
		}
		return m, nil
	case ViewStateList:
		return m.handleListKey(msg)
	case ViewStateQuitting:
		return m, nil
	}
	return m, nil
}

func (m BrowseModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.state = ViewStateQuitting
		return m, tea.Quit
	case key.Matches(msg, m.keys.Open):
		return m, m.activate(m.list.Selected())
	case key.Matches(msg, m.keys.Reload):
		return m.navigate(NavigateMsg{URL: m.url, Back: true})
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Retry):
		// A failed page load is retried by scrolling; r forces the check.
		return m, m.checkScroll()
	}
	m.list.Update(msg)
	return m, m.checkScroll()
}

func (m BrowseModel) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.modal.Close()
		return m, nil
	case key.Matches(msg, m.keys.Retry):
		return m, m.modal.Retry()
	case key.Matches(msg, m.keys.Quit):
		m.state = ViewStateQuitting
		return m, tea.Quit
	}
	return m, m.modal.Update(msg)
}

func (m BrowseModel) back() (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.navigate(NavigateMsg{URL: prev, Back: true})
}

// activate handles a click on the entry at idx. Item links go through the
// modal binder first; anything it does not intercept navigates normally.
func (m *BrowseModel) activate(idx int) tea.Cmd {
	items := m.list.Items()
	if idx < 0 || idx >= len(items) {
		return nil
	}
	entry := items[idx]

	if entry.Kind == markup.EntryPagination {
		if entry.NextHref == "" {
			return nil
		}
		return navigateCmd(markup.ResolveHref(m.url, entry.NextHref))
	}
	if !entry.HasLink {
		return nil
	}

	if m.modal != nil {
		link := entry.Link
		link.URL = markup.ResolveHref(m.url, link.URL)
		if intercepted, cmd := m.modal.OnItemClick(link); intercepted {
			m.loading.SetMessage("Loading " + m.modal.Title())
			return tea.Batch(cmd, m.loading.Init())
		}
	}
	if entry.Link.Href == "" {
		return nil
	}
	return navigateCmd(markup.ResolveHref(m.url, entry.Link.Href))
}

func navigateCmd(rawURL string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{URL: rawURL}
	}
}

func (m BrowseModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.state != ViewStateList {
		return m, nil
	}

	if m.modal != nil && m.modal.Visible() {
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if m.inZone(zoneModalClose, msg) {
				m.modal.Close()
			}
			return m, nil
		}
		return m, m.modal.Update(msg)
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		for slot := range m.list.VisibleTo() - m.list.VisibleFrom() {
			if m.inZone(rowZone(slot), msg) {
				idx := m.list.VisibleFrom() + slot
				m.list.SetSelected(idx)
				return m, m.activate(idx)
			}
		}
		return m, nil
	}

	m.list.Update(msg)
	return m, m.checkScroll()
}

func (m BrowseModel) inZone(id string, msg tea.MouseMsg) bool {
	z := m.zones.Get(id)
	return z != nil && z.InBounds(msg)
}

func rowZone(slot int) string {
	return zoneRowPrefix + strconv.Itoa(slot)
}

func (m *BrowseModel) listHeight() int {
	return max(m.height-headerHeight-footerHeight-indicatorHeight, minListHeight)
}

func (m *BrowseModel) resize() {
	m.list.SetSize(m.width, m.listHeight())
	if m.modal != nil {
		w, h := m.modalSize()
		m.modal.SetSize(w-modalChromeCols, h-modalChromeRows)
	}
}

func (m *BrowseModel) modalSize() (int, int) {
	return max(m.width*modalWidthPercent/100, 20), max(m.height*modalHeightPercent/100, 8) //nolint:mnd // Minimum modal size.
}

// State returns the current view state.
func (m BrowseModel) State() ViewState { return m.state }

// URL returns the URL of the current page.
func (m BrowseModel) URL() string { return m.url }

// Title returns the title of the current page.
func (m BrowseModel) Title() string { return m.title }

// Err returns the error of the last failed page load.
func (m BrowseModel) Err() error { return m.err }

// Entries returns the entries currently in the list.
func (m BrowseModel) Entries() []markup.Entry { return m.list.Items() }

// Scroll returns the infinite scroll binder of the mounted page, or nil.
func (m BrowseModel) Scroll() *scroll.Binder { return m.scroll }

// Modal returns the modal binder of the mounted page, or nil.
func (m BrowseModel) Modal() *detail.Binder { return m.modal }

// History returns the URLs that Back would return to, oldest first.
func (m BrowseModel) History() []string { return m.history }
