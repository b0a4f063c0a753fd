package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pageturn/internal/markup"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{name: "valid default", params: *NewParams()},
		{name: "valid limit and offset", params: Params{MaxPages: 3, Limit: 10, Offset: 5, SortOrder: SortOrderDesc}},
		{name: "zero max pages", params: Params{MaxPages: 0, SortOrder: SortOrderAsc}, wantErr: ErrInvalidMaxPages},
		{name: "too many pages", params: Params{MaxPages: MaxMaxPages + 1, SortOrder: SortOrderAsc}, wantErr: ErrInvalidMaxPages},
		{name: "negative limit", params: Params{MaxPages: 1, Limit: -1, SortOrder: SortOrderAsc}, wantErr: ErrInvalidLimit},
		{name: "negative offset", params: Params{MaxPages: 1, Offset: -1, SortOrder: SortOrderAsc}, wantErr: ErrInvalidOffset},
		{name: "bad order", params: Params{MaxPages: 1, SortOrder: "up"}, wantErr: ErrInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		input     string
		wantField string
		wantOrder string
		wantErr   error
	}{
		{input: "", wantField: "", wantOrder: "asc"},
		{input: "text", wantField: "text", wantOrder: "asc"},
		{input: "title:DESC", wantField: "title", wantOrder: "desc"},
		{input: " href : asc ", wantField: "href", wantOrder: "asc"},
		{input: "a:b:c", wantErr: ErrInvalidSortFormat},
		{input: ":desc", wantErr: ErrEmptySortField},
		{input: "text:sideways", wantErr: ErrInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			field, order, err := ParseSort(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestParams_ShouldStop(t *testing.T) {
	p := Params{MaxPages: 3, Limit: 5, Offset: 2, SortOrder: SortOrderAsc}

	stop, reason := p.ShouldStop(1, 4, true)
	assert.False(t, stop)
	assert.Empty(t, reason)

	stop, reason = p.ShouldStop(1, 7, true)
	assert.True(t, stop)
	assert.Equal(t, StopLimit, reason)

	stop, reason = p.ShouldStop(3, 6, true)
	assert.True(t, stop)
	assert.Equal(t, StopMaxPages, reason)

	stop, reason = p.ShouldStop(2, 1, false)
	assert.True(t, stop)
	assert.Equal(t, StopExhausted, reason)
}

func TestParams_WantedIgnoresLimitWhenSorting(t *testing.T) {
	p := Params{MaxPages: 3, Limit: 5, SortField: "text", SortOrder: SortOrderAsc}
	assert.Equal(t, 0, p.Wanted())

	stop, _ := p.ShouldStop(1, 50, true)
	assert.False(t, stop)
}

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name   string
		params Params
		want   []int
	}{
		{name: "no limit", params: Params{}, want: items},
		{name: "limit", params: Params{Limit: 3}, want: []int{1, 2, 3}},
		{name: "offset and limit", params: Params{Offset: 2, Limit: 2}, want: []int{3, 4}},
		{name: "limit past end", params: Params{Offset: 5, Limit: 10}, want: []int{6, 7}},
		{name: "offset past end", params: Params{Offset: 10}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.params, items))
		})
	}
}

func TestApply_DoesNotAlias(t *testing.T) {
	items := []int{1, 2, 3}
	out := Apply(Params{Limit: 2}, items)
	out[0] = 99
	assert.Equal(t, 1, items[0])
}

func TestNewMeta(t *testing.T) {
	p := Params{MaxPages: 2, Limit: 10, Offset: 0, SortOrder: SortOrderAsc}
	m := NewMeta(p, 2, 20, 10, "http://example.test/?page=3", 4096, StopMaxPages)

	assert.Equal(t, 2, m.PagesFetched)
	assert.Equal(t, 20, m.TotalItems)
	assert.Equal(t, 10, m.Returned)
	assert.True(t, m.HasNext)
	assert.Equal(t, StopMaxPages, m.StopReason)

	m = NewMeta(p, 1, 3, 3, "", 100, StopExhausted)
	assert.False(t, m.HasNext)
}

func entry(text, href, modalURL, modalTitle string) markup.Entry {
	return markup.Entry{
		Kind:    markup.EntryItem,
		Text:    text,
		Link:    markup.Link{Href: href, Text: text, URL: modalURL, Title: modalTitle},
		HasLink: href != "",
	}
}

func TestEntrySorter(t *testing.T) {
	entries := []markup.Entry{
		entry("banana", "/b", "", ""),
		entry("Apple", "/c", "/c/modal/", "Apple"),
		entry("cherry", "/a", "", ""),
	}
	s := NewEntrySorter()

	assert.Equal(t, []string{"href", "modal", "text", "title"}, s.GetValidFields())
	assert.False(t, s.IsValidField("price"))

	texts := func(es []markup.Entry) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.Text
		}
		return out
	}

	assert.Equal(t, []string{"Apple", "banana", "cherry"}, texts(s.Sort(entries, "text", SortOrderAsc)))
	assert.Equal(t, []string{"cherry", "banana", "Apple"}, texts(s.Sort(entries, "text", SortOrderDesc)))
	assert.Equal(t, []string{"cherry", "banana", "Apple"}, texts(s.Sort(entries, "href", SortOrderAsc)))
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, texts(s.Sort(entries, "modal", SortOrderAsc)))

	// Invalid field keeps document order.
	assert.Equal(t, []string{"banana", "Apple", "cherry"}, texts(s.Sort(entries, "price", SortOrderAsc)))
	// Input untouched.
	assert.Equal(t, "banana", entries[0].Text)
}
