package markup

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed HTML page together with the URL it was loaded from.
type Document struct {
	URL string

	doc *goquery.Document
	sel Selectors
}

// Parse reads an HTML page. pageURL is kept for resolving links later.
func Parse(r io.Reader, pageURL string, sel Selectors) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return &Document{URL: pageURL, doc: doc, sel: sel.Normalize()}, nil
}

// ParseString is Parse over an in-memory body.
func ParseString(body, pageURL string, sel Selectors) (*Document, error) {
	return Parse(strings.NewReader(body), pageURL, sel)
}

// Selectors returns the selectors the document was parsed with.
func (d *Document) Selectors() Selectors {
	return d.sel
}

// Title returns the text of the page's <title>.
func (d *Document) Title() string {
	return collapseSpace(d.doc.Find("title").First().Text())
}

// Root returns the whole document as a Selection.
func (d *Document) Root() Selection {
	return Selection{s: d.doc.Selection, sel: d.sel, base: d.URL}
}

// ListContainer returns the first element matching the list selector.
// The returned Selection is empty when the page has no list.
func (d *Document) ListContainer() Selection {
	return Selection{s: d.doc.Find(d.sel.List).First(), sel: d.sel, base: d.URL}
}

// LoaderTemplate returns the raw inner markup of the loader template, or ""
// when the page carries none.
func (d *Document) LoaderTemplate() string {
	tpl := d.doc.Find(d.sel.Loader).First()
	if tpl.Length() == 0 {
		return ""
	}
	// Script content is a raw text node; Text returns it unescaped.
	return strings.TrimSpace(tpl.Text())
}

// ModalShell returns the modal container with its slots. ok is false when the
// page has no modal container.
func (d *Document) ModalShell() (ModalShell, bool) {
	modal := d.doc.Find(d.sel.Modal).First()
	if modal.Length() == 0 {
		return ModalShell{}, false
	}
	shell := ModalShell{
		Found:     true,
		Title:     collapseSpace(modal.Find(d.sel.ModalTitle).First().Text()),
		HasTitle:  modal.Find(d.sel.ModalTitle).Length() > 0,
		HasBody:   modal.Find(d.sel.ModalBody).Length() > 0,
		HasClose:  modal.Find(d.sel.ModalClose).Length() > 0,
		CloseText: collapseSpace(modal.Find(d.sel.ModalClose).First().Text()),
	}
	if html, err := modal.Find(d.sel.ModalBody).First().Html(); err == nil {
		shell.Body = strings.TrimSpace(html)
	}
	return shell, true
}

// ModalShell is the modal dialog skeleton found on a list page. The title and
// body slots are filled at runtime.
type ModalShell struct {
	Found     bool
	Title     string
	Body      string
	HasTitle  bool
	HasBody   bool
	HasClose  bool
	CloseText string
}

// Selection is a set of elements within a Document, carrying the selectors
// needed to interpret list content.
type Selection struct {
	s    *goquery.Selection
	sel  Selectors
	base string
}

// Empty reports whether the selection matched nothing.
func (s Selection) Empty() bool {
	return s.s == nil || s.s.Length() == 0
}

// Selectors returns the selectors bound to s.
func (s Selection) Selectors() Selectors {
	return s.sel
}

// WithSelectors returns s interpreted with sel.
func (s Selection) WithSelectors(sel Selectors) Selection {
	s.sel = sel.Normalize()
	return s
}

// BaseURL is the URL of the page the selection came from.
func (s Selection) BaseURL() string {
	return s.base
}

// HTML returns the outer markup of the selection.
func (s Selection) HTML() string {
	if s.Empty() {
		return ""
	}
	out, err := goquery.OuterHtml(s.s)
	if err != nil {
		return ""
	}
	return out
}

// Entries returns the content nodes inside the selection in document order.
func (s Selection) Entries() []Entry {
	if s.Empty() {
		return nil
	}
	return extractEntries(s.s.Find(s.sel.Content), s.sel)
}

// NextLink returns the href of the last paging link inside the selection.
func (s Selection) NextLink() (string, bool) {
	if s.Empty() {
		return "", false
	}
	return lastHref(s.s.Find(s.sel.Paging))
}

// ResolveHref resolves href against base. Unparseable input is returned as is.
func ResolveHref(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == "" {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
