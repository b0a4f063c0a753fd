package scroll

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/rshade/pageturn/internal/fetch"
	"github.com/rshade/pageturn/internal/logging"
	"github.com/rshade/pageturn/internal/markup"
)

// Layout constants.
const (
	// DefaultPadding is the trigger distance in layout pixels.
	DefaultPadding = 100
	// PixelsPerRow converts pixel distances to terminal rows.
	PixelsPerRow = 16
	// DefaultLoadingText is shown when the page has no loader template.
	DefaultLoadingText = "Loading..."
)

// State is the binder's pagination state.
type State int

const (
	// StateIdle waits for the viewport to approach the end of the list.
	StateIdle State = iota
	// StateLoading has one page request in flight.
	StateLoading
	// StateExhausted has no next page. It is terminal.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Config tunes a binder. Empty selectors fall back to the container's.
type Config struct {
	LoadingHTML     string
	Padding         int
	PagingSelector  string
	ContentSelector string
	Logger          zerolog.Logger
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Padding:         DefaultPadding,
		PagingSelector:  markup.DefaultSelectors().Paging,
		ContentSelector: markup.DefaultSelectors().Content,
		Logger:          zerolog.Nop(),
	}
}

// ThresholdRows converts a pixel padding to rows, rounding up.
func ThresholdRows(padding int) int {
	if padding <= 0 {
		return 0
	}
	return (padding + PixelsPerRow - 1) / PixelsPerRow
}

// PageLoadedMsg carries the result of a page request back to its binder.
type PageLoadedMsg struct {
	BinderID  uint64
	URL       string
	Page      markup.Page
	Bytes     int
	FromCache bool
	Err       error
}

// Result describes how the list changed after a PageLoadedMsg.
type Result struct {
	// Removed is the number of pagination entries dropped before appending.
	Removed  int
	Appended []markup.Entry
	Err      error
}

var nextBinderID atomic.Uint64

// Binder appends further pages to a list as the viewport nears its end.
type Binder struct {
	id        uint64
	sel       markup.Selectors
	fetcher   fetch.Fetcher
	threshold int
	loading   string
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state   State
	next    string
	entries []markup.Entry
	pages   int
	bytes   int
	err     error
}

// Bind attaches a binder to container. It returns false, and no binder, when
// the container is empty. The container's own content becomes the first page.
func Bind(container markup.Selection, cfg Config, fetcher fetch.Fetcher) (*Binder, bool) {
	if container.Empty() || fetcher == nil {
		return nil, false
	}

	sel := container.Selectors()
	if cfg.PagingSelector != "" {
		sel.Paging = cfg.PagingSelector
	}
	if cfg.ContentSelector != "" {
		sel.Content = cfg.ContentSelector
	}
	container = container.WithSelectors(sel)

	ctx, cancel := context.WithCancel(context.Background())
	b := &Binder{
		id:        nextBinderID.Add(1),
		sel:       container.Selectors(),
		fetcher:   fetcher,
		threshold: ThresholdRows(cfg.Padding),
		loading:   loadingText(cfg.LoadingHTML),
		log:       logging.ComponentLogger(cfg.Logger, "scroll"),
		ctx:       ctx,
		cancel:    cancel,
		entries:   container.Entries(),
		pages:     1,
	}

	if href, ok := container.NextLink(); ok {
		b.next = markup.ResolveHref(container.BaseURL(), href)
		b.state = StateIdle
	} else {
		b.state = StateExhausted
	}

	b.log.Debug().
		Int("entries", len(b.entries)).
		Int("threshold_rows", b.threshold).
		Str("next", b.next).
		Stringer("state", b.state).
		Msg("infinite scroll bound")
	return b, true
}

func loadingText(tpl string) string {
	if tpl == "" {
		return DefaultLoadingText
	}
	if text := markup.InlineText(tpl); text != "" {
		return text
	}
	return DefaultLoadingText
}

// OnScroll is called after every viewport move with the number of rows
// left below the viewport. It returns a fetch command only when the binder
// is idle, has a next link, and the distance is within the threshold.
func (b *Binder) OnScroll(distanceFromBottomRows int) tea.Cmd {
	if b.state != StateIdle || b.next == "" {
		return nil
	}
	if distanceFromBottomRows > b.threshold {
		return nil
	}

	b.state = StateLoading
	b.err = nil
	b.log.Debug().Str("url", b.next).Int("distance", distanceFromBottomRows).Msg("loading next page")
	return b.fetchCmd(b.next)
}

func (b *Binder) fetchCmd(rawURL string) tea.Cmd {
	id, ctx, fetcher, sel := b.id, b.ctx, b.fetcher, b.sel
	return func() tea.Msg {
		resp, err := fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return PageLoadedMsg{BinderID: id, URL: rawURL, Err: err}
		}
		doc, err := markup.ParseString(resp.Body, resp.URL, sel)
		if err != nil {
			return PageLoadedMsg{BinderID: id, URL: rawURL, Err: err}
		}
		page := markup.ExtractPage(doc)
		page.NextHref = markup.ResolveHref(resp.URL, page.NextHref)
		return PageLoadedMsg{
			BinderID:  id,
			URL:       resp.URL,
			Page:      page,
			Bytes:     resp.Size(),
			FromCache: resp.FromCache,
		}
	}
}

// Update applies a PageLoadedMsg addressed to this binder. ok is false for
// any other message.
func (b *Binder) Update(msg tea.Msg) (Result, bool) {
	loaded, isPage := msg.(PageLoadedMsg)
	if !isPage || loaded.BinderID != b.id || b.state != StateLoading {
		return Result{}, false
	}

	if loaded.Err != nil {
		b.err = loaded.Err
		b.state = StateIdle
		b.log.Warn().Err(loaded.Err).Str("url", loaded.URL).Msg("page load failed, will retry on next scroll")
		return Result{Err: loaded.Err}, true
	}

	kept := make([]markup.Entry, 0, len(b.entries)+len(loaded.Page.Entries))
	for _, e := range b.entries {
		if e.Kind != markup.EntryPagination {
			kept = append(kept, e)
		}
	}
	removed := len(b.entries) - len(kept)
	b.entries = append(kept, loaded.Page.Entries...)
	b.pages++
	b.bytes += loaded.Bytes

	b.next = loaded.Page.NextHref
	if b.next != "" {
		b.state = StateIdle
	} else {
		b.state = StateExhausted
	}

	b.log.Info().
		Str("url", loaded.URL).
		Int("appended", len(loaded.Page.Entries)).
		Int("pages", b.pages).
		Bool("from_cache", loaded.FromCache).
		Stringer("state", b.state).
		Msg("page appended")

	return Result{Removed: removed, Appended: loaded.Page.Entries}, true
}

// Detach cancels any in-flight request. Late responses are ignored.
func (b *Binder) Detach() {
	b.cancel()
	b.state = StateExhausted
}

// ID identifies the binder in the messages it produces.
func (b *Binder) ID() uint64 { return b.id }

// State returns the pagination state.
func (b *Binder) State() State { return b.state }

// Entries returns the accumulated list content. Later pages never modify
// a slice returned earlier.
func (b *Binder) Entries() []markup.Entry { return b.entries }

// NextURL returns the absolute URL of the next page, or "" when exhausted.
func (b *Binder) NextURL() string { return b.next }

// Loading reports whether the loading indicator should be shown.
func (b *Binder) Loading() bool { return b.state == StateLoading }

// LoadingText is the loader template rendered to a single line.
func (b *Binder) LoadingText() string { return b.loading }

// Err returns the error of the last failed page load, cleared on the next attempt.
func (b *Binder) Err() error { return b.err }

// Pages returns the number of pages shown, including the first.
func (b *Binder) Pages() int { return b.pages }

// Bytes returns the total size of appended pages.
func (b *Binder) Bytes() int { return b.bytes }

// ThresholdRows returns the trigger distance in rows.
func (b *Binder) ThresholdRows() int { return b.threshold }
