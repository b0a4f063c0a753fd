package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// EntryKind distinguishes list items from pagination controls.
type EntryKind int

const (
	// EntryItem is a regular list item.
	EntryItem EntryKind = iota
	// EntryPagination is a pagination control; it is replaced on every page load.
	EntryPagination
)

func (k EntryKind) String() string {
	switch k {
	case EntryItem:
		return "item"
	case EntryPagination:
		return "pagination"
	default:
		return "unknown"
	}
}

// Entry is one content node of a list page.
type Entry struct {
	Kind EntryKind
	Text string
	HTML string
	// Link is the first anchor of an item. HasLink is false when there is none.
	Link    Link
	HasLink bool
	// NextHref is the last paging link inside the node, if any.
	NextHref string
}

// Page is the content extracted from a fetched list page.
type Page struct {
	Entries []Entry
	// NextHref is the last paging link among Entries; empty when exhausted.
	NextHref string
}

// HasNext reports whether another page can be requested.
func (p Page) HasNext() bool {
	return p.NextHref != ""
}

// Items returns the entries of kind EntryItem.
func (p Page) Items() []Entry {
	items := make([]Entry, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.Kind == EntryItem {
			items = append(items, e)
		}
	}
	return items
}

// ExtractPage collects the content nodes of a fetched page. Everything outside
// the content selector is dropped, and the next link is only searched for in
// the kept nodes.
func ExtractPage(doc *Document) Page {
	entries := extractEntries(doc.doc.Find(doc.sel.Content), doc.sel)
	page := Page{Entries: entries}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].NextHref != "" {
			page.NextHref = entries[i].NextHref
			break
		}
	}
	return page
}

// extractEntries converts matched nodes to entries, skipping nodes nested in
// another match so each piece of content appears once.
func extractEntries(matches *goquery.Selection, sel Selectors) []Entry {
	if matches.Length() == 0 {
		return nil
	}
	matched := make(map[*html.Node]struct{}, matches.Length())
	for _, n := range matches.Nodes {
		matched[n] = struct{}{}
	}

	entries := make([]Entry, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		if hasMatchedAncestor(s.Nodes[0], matched) {
			return
		}
		entries = append(entries, newEntry(s, sel))
	})
	return entries
}

func newEntry(s *goquery.Selection, sel Selectors) Entry {
	e := Entry{
		Kind: EntryItem,
		Text: collapseSpace(s.Text()),
	}
	if out, err := goquery.OuterHtml(s); err == nil {
		e.HTML = out
	}
	if sel.Pagination != "" && s.Is(sel.Pagination) {
		e.Kind = EntryPagination
	}

	paging := s.Find(sel.Paging)
	if s.Is(sel.Paging) {
		paging = s
	}
	e.NextHref, _ = lastHref(paging)

	if e.Kind == EntryItem {
		if a := firstAnchor(s); a.Length() > 0 {
			e.Link = linkFrom(a, sel.URLAttr, sel.TitleAttr)
			e.HasLink = true
		}
	}
	return e
}

func hasMatchedAncestor(n *html.Node, matched map[*html.Node]struct{}) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if _, ok := matched[p]; ok {
			return true
		}
	}
	return false
}

// lastHref returns the non-empty href of the last element in s.
func lastHref(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	href := strings.TrimSpace(s.Last().AttrOr("href", ""))
	return href, href != ""
}
