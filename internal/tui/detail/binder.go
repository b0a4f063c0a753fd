package detail

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/rshade/pageturn/internal/fetch"
	"github.com/rshade/pageturn/internal/logging"
	"github.com/rshade/pageturn/internal/markup"
)

// Viewport defaults used until SetSize is called.
const (
	defaultWidth  = 60
	defaultHeight = 12
)

// State is the modal's visibility state.
type State int

const (
	// StateClosed means the modal is hidden.
	StateClosed State = iota
	// StateLoading means a fragment request is in flight and the modal is still hidden.
	StateLoading
	// StateOpen means the modal is visible with its body filled.
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FragmentLoadedMsg carries a fetched detail fragment back to its binder.
type FragmentLoadedMsg struct {
	BinderID  uint64
	Seq       uint64
	Target    markup.LinkTarget
	URL       string
	HTML      string
	Bytes     int
	FromCache bool
	Err       error
}

// Hook is called with the binder when the modal is shown or hidden.
type Hook func(*Binder)

var nextBinderID atomic.Uint64

// Binder opens item details in a modal instead of navigating away.
type Binder struct {
	id      uint64
	shell   markup.ModalShell
	fetcher fetch.Fetcher
	log     zerolog.Logger

	state  State
	target markup.LinkTarget
	title    string
	body     string
	markdown string
	lines    []string
	err      error
	bytes    int
	style    string

	seq    uint64
	cancel context.CancelFunc

	viewport viewport.Model

	onceShown []Hook
	onHidden  []Hook
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the binder's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Binder) {
		b.log = logging.ComponentLogger(l, "modal")
	}
}

// WithRenderStyle selects the body style: StyleDark, StyleLight or StylePlain.
func WithRenderStyle(style string) Option {
	return func(b *Binder) {
		b.style = style
	}
}

// Bind attaches a binder to the modal shell of a page. It returns false,
// and no binder, when the page has no modal container.
func Bind(shell markup.ModalShell, fetcher fetch.Fetcher, opts ...Option) (*Binder, bool) {
	if !shell.Found || fetcher == nil {
		return nil, false
	}
	b := &Binder{
		id:       nextBinderID.Add(1),
		shell:    shell,
		fetcher:  fetcher,
		log:      zerolog.Nop(),
		style:    StyleDark,
		title:    shell.Title,
		body:     shell.Body,
		viewport: viewport.New(defaultWidth, defaultHeight),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log.Debug().Bool("has_close", shell.HasClose).Msg("modal bound")
	return b, true
}

// OnItemClick intercepts clicks on links that carry both modal attributes.
// When intercepted is false the caller performs its default navigation.
func (b *Binder) OnItemClick(link markup.Link) (bool, tea.Cmd) {
	target, ok := markup.TryGetLinkTarget(link)
	if !ok {
		b.log.Debug().Str("href", link.Href).Msg("link has no modal target, not intercepted")
		return false, nil
	}
	return true, b.Open(target)
}

// Open sets the title, supersedes any pending request and starts loading the
// fragment. The modal becomes visible when the fragment arrives.
func (b *Binder) Open(target markup.LinkTarget) tea.Cmd {
	if b.cancel != nil {
		b.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.seq++

	b.target = target
	b.title = target.Title
	b.err = nil
	if b.state == StateClosed {
		b.state = StateLoading
	}

	b.log.Debug().Str("url", target.URL).Uint64("seq", b.seq).Msg("loading modal fragment")

	id, seq, fetcher := b.id, b.seq, b.fetcher
	return func() tea.Msg {
		resp, err := fetcher.Fetch(ctx, target.URL)
		if err != nil {
			return FragmentLoadedMsg{BinderID: id, Seq: seq, Target: target, URL: target.URL, Err: err}
		}
		return FragmentLoadedMsg{
			BinderID:  id,
			Seq:       seq,
			Target:    target,
			URL:       resp.URL,
			HTML:      resp.Body,
			Bytes:     resp.Size(),
			FromCache: resp.FromCache,
		}
	}
}

// Retry reloads the current target after a failed request.
func (b *Binder) Retry() tea.Cmd {
	if b.err == nil || b.target.URL == "" {
		return nil
	}
	return b.Open(b.target)
}

// Update handles FragmentLoadedMsg and, while open, forwards input to the
// body viewport.
func (b *Binder) Update(msg tea.Msg) tea.Cmd {
	if loaded, ok := msg.(FragmentLoadedMsg); ok {
		b.apply(loaded)
		return nil
	}
	if b.state != StateOpen {
		return nil
	}
	var cmd tea.Cmd
	b.viewport, cmd = b.viewport.Update(msg)
	return cmd
}

func (b *Binder) apply(msg FragmentLoadedMsg) {
	if msg.BinderID != b.id {
		return
	}
	if msg.Seq != b.seq {
		b.log.Debug().Uint64("seq", msg.Seq).Uint64("latest", b.seq).Msg("stale fragment ignored")
		return
	}
	if b.state == StateClosed {
		return
	}

	b.body, b.markdown = "", ""
	b.err = msg.Err
	if b.err == nil {
		b.body = msg.HTML
		b.bytes = msg.Bytes
		b.markdown, b.err = markup.ToMarkdown(msg.HTML)
	}
	if b.err != nil {
		b.log.Warn().Err(b.err).Str("url", msg.URL).Msg("modal fragment failed")
	}
	b.refreshViewport()

	wasOpen := b.state == StateOpen
	b.state = StateOpen
	if !wasOpen {
		b.runShown()
	}
}

func (b *Binder) runShown() {
	hooks := b.onceShown
	b.onceShown = nil
	for _, h := range hooks {
		h(b)
	}
}

// Close hides the modal and cancels a pending request. Closing a closed
// modal does nothing.
func (b *Binder) Close() {
	if b.state == StateClosed {
		return
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.state = StateClosed
	b.log.Debug().Str("url", b.target.URL).Msg("modal closed")
	for _, h := range b.onHidden {
		h(b)
	}
}

// OnceShown registers fn to run the next time the modal is shown.
func (b *Binder) OnceShown(fn Hook) {
	b.onceShown = append(b.onceShown, fn)
}

// OnHidden registers fn to run every time the modal is hidden.
func (b *Binder) OnHidden(fn Hook) {
	b.onHidden = append(b.onHidden, fn)
}

// SetSize sets the body viewport dimensions.
func (b *Binder) SetSize(width, height int) {
	b.viewport.Width = max(width, 1)
	b.viewport.Height = max(height, 1)
	b.refreshViewport()
}

func (b *Binder) refreshViewport() {
	b.lines = nil
	if b.markdown != "" {
		lines, err := renderBody(b.markdown, b.viewport.Width, b.style)
		if err != nil {
			b.log.Warn().Err(err).Msg("rendering modal body as markdown failed, showing source")
			lines = strings.Split(b.markdown, "\n")
		}
		b.lines = lines
	}
	b.viewport.SetContent(strings.Join(b.lines, "\n"))
	b.viewport.GotoTop()
}

// ID identifies the binder in the messages it produces.
func (b *Binder) ID() uint64 { return b.id }

// State returns the visibility state.
func (b *Binder) State() State { return b.state }

// Visible reports whether the modal is shown.
func (b *Binder) Visible() bool { return b.state == StateOpen }

// Pending reports whether a fragment request is in flight while hidden.
func (b *Binder) Pending() bool { return b.state == StateLoading }

// Title returns the title slot text.
func (b *Binder) Title() string { return b.title }

// Body returns the body slot HTML.
func (b *Binder) Body() string { return b.body }

// Markdown returns the sanitized body converted to Markdown.
func (b *Binder) Markdown() string { return b.markdown }

// Lines returns the body as rendered for the terminal.
func (b *Binder) Lines() []string { return b.lines }

// Target returns the most recently requested target.
func (b *Binder) Target() markup.LinkTarget { return b.target }

// Err returns the error of the last fragment request.
func (b *Binder) Err() error { return b.err }

// Bytes returns the size of the last loaded fragment.
func (b *Binder) Bytes() int { return b.bytes }

// Shell returns the modal skeleton the binder was attached to.
func (b *Binder) Shell() markup.ModalShell { return b.shell }

// BodyView renders the visible part of the body.
func (b *Binder) BodyView() string { return b.viewport.View() }

// ScrollPercent returns how far the body has been scrolled.
func (b *Binder) ScrollPercent() float64 { return b.viewport.ScrollPercent() }
