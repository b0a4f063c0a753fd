package markup

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// lastSuffix is the jQuery positional pseudo-class that list templates often
// carry on the paging selector. Matching always takes the last link, so the
// suffix is accepted and dropped.
const lastSuffix = ":last"

// Selectors describes the markup contract of list pages and the modal shell.
// Field names and order match config.SelectorsConfig so the two convert directly.
type Selectors struct {
	List       string
	Loader     string
	Paging     string
	Content    string
	Pagination string
	Modal      string
	ModalTitle string
	ModalBody  string
	ModalClose string
	URLAttr    string
	TitleAttr  string
}

// DefaultSelectors returns the selectors used by the stock list templates.
func DefaultSelectors() Selectors {
	return Selectors{
		List:       ".item-list",
		Loader:     `script[type="text/template"].loader`,
		Paging:     "a.next-page",
		Content:    ".item,.pagination",
		Pagination: ".pagination",
		Modal:      "#modal",
		ModalTitle: ".modal-title",
		ModalBody:  ".modal-body",
		ModalClose: ".close",
		URLAttr:    "data-modal-url",
		TitleAttr:  "data-modal-title",
	}
}

// Normalize strips the jQuery ":last" suffix from the paging selector.
func (s Selectors) Normalize() Selectors {
	s.Paging = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s.Paging), lastSuffix))
	return s
}

// Validate compiles every non-empty selector.
func (s Selectors) Validate() error {
	n := s.Normalize()
	fields := []struct {
		name, value string
	}{
		{"list", n.List},
		{"loader", n.Loader},
		{"paging", n.Paging},
		{"content", n.Content},
		{"pagination", n.Pagination},
		{"modal", n.Modal},
		{"modal_title", n.ModalTitle},
		{"modal_body", n.ModalBody},
		{"modal_close", n.ModalClose},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := cascadia.Compile(f.value); err != nil {
			return fmt.Errorf("selector %s %q: %w", f.name, f.value, err)
		}
	}
	return nil
}
