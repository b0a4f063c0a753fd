package pagination

import (
	"sort"
	"strings"

	"github.com/rshade/pageturn/internal/markup"
)

// Sorter defines the interface for sorting list entries.
type Sorter interface {
	// Sort sorts entries by the specified field and order.
	Sort(entries []markup.Entry, field, order string) []markup.Entry
	// IsValidField checks if the given field name is valid for sorting.
	IsValidField(field string) bool
	// GetValidFields returns a list of valid field names for sorting.
	GetValidFields() []string
}

// EntrySorter implements Sorter for markup.Entry.
type EntrySorter struct {
	validFields map[string]bool
}

// NewEntrySorter creates an EntrySorter with the supported fields.
func NewEntrySorter() *EntrySorter {
	return &EntrySorter{
		validFields: map[string]bool{
			"text":  true,
			"href":  true,
			"title": true,
			"modal": true,
		},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *EntrySorter) IsValidField(field string) bool {
	return s.validFields[field]
}

// GetValidFields returns all valid sort fields.
func (s *EntrySorter) GetValidFields() []string {
	fields := make([]string, 0, len(s.validFields))
	for field := range s.validFields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Sort returns a stably sorted copy of entries. An invalid field returns
// entries unchanged.
func (s *EntrySorter) Sort(entries []markup.Entry, field, order string) []markup.Entry {
	if !s.IsValidField(field) {
		return entries
	}

	return SortBy(entries, func(e markup.Entry) markup.Entry { return e }, field, order)
}

// SortBy returns a stably sorted copy of items, ordered by the field of the
// entry each item carries. The field is assumed valid; unknown fields sort by text.
func SortBy[T any](items []T, entryOf func(T) markup.Entry, field, order string) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	key := sortKey(field)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := key(entryOf(sorted[i])), key(entryOf(sorted[j]))
		if order == SortOrderDesc {
			return a > b
		}
		return a < b
	})
	return sorted
}

func sortKey(field string) func(markup.Entry) string {
	switch field {
	case "href":
		return func(e markup.Entry) string { return e.Link.Href }
	case "title":
		return func(e markup.Entry) string { return strings.ToLower(e.Link.Title) }
	case "modal":
		// Entries opening a modal sort before plain links in ascending order.
		return func(e markup.Entry) string {
			if _, ok := markup.TryGetLinkTarget(e.Link); ok {
				return "0"
			}
			return "1"
		}
	default:
		return func(e markup.Entry) string { return strings.ToLower(e.Text) }
	}
}
