package pagination

// Meta summarizes a dump run.
type Meta struct {
	PagesFetched int        `json:"pages_fetched"`
	TotalItems   int        `json:"total_items"`
	Returned     int        `json:"returned"`
	Offset       int        `json:"offset"`
	Limit        int        `json:"limit,omitempty"`
	HasNext      bool       `json:"has_next"`
	NextURL      string     `json:"next_url,omitempty"`
	Bytes        int        `json:"bytes"`
	StopReason   StopReason `json:"stop_reason"`
}

// NewMeta creates run metadata. nextURL is the link that was not followed,
// empty when the list was exhausted.
func NewMeta(params Params, pages, total, returned int, nextURL string, bytes int, reason StopReason) Meta {
	return Meta{
		PagesFetched: pages,
		TotalItems:   total,
		Returned:     returned,
		Offset:       params.Offset,
		Limit:        params.Limit,
		HasNext:      nextURL != "",
		NextURL:      nextURL,
		Bytes:        bytes,
		StopReason:   reason,
	}
}
