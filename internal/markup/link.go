package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor found inside a list entry.
type Link struct {
	Href string
	Text string
	// URL and Title hold the modal data attributes, empty when absent.
	URL   string
	Title string
}

// LinkTarget is the modal request carried by a qualifying link.
type LinkTarget struct {
	URL   string
	Title string
}

// TryGetLinkTarget returns the modal target of l when both the URL and the
// title attribute are present and non-blank. Otherwise the click is not
// intercepted and default navigation applies.
func TryGetLinkTarget(l Link) (LinkTarget, bool) {
	u := strings.TrimSpace(l.URL)
	t := strings.TrimSpace(l.Title)
	if u == "" || t == "" {
		return LinkTarget{}, false
	}
	return LinkTarget{URL: u, Title: t}, true
}

// linkFrom reads an anchor element. urlAttr and titleAttr name the data attributes.
func linkFrom(a *goquery.Selection, urlAttr, titleAttr string) Link {
	return Link{
		Href:  strings.TrimSpace(a.AttrOr("href", "")),
		Text:  collapseSpace(a.Text()),
		URL:   a.AttrOr(urlAttr, ""),
		Title: a.AttrOr(titleAttr, ""),
	}
}

// firstAnchor returns s itself when it is an anchor, else its first descendant anchor.
func firstAnchor(s *goquery.Selection) *goquery.Selection {
	if s.Is("a") {
		return s.First()
	}
	return s.Find("a").First()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
