package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/rshade/pageturn/internal/cli/pagination"
	"github.com/rshade/pageturn/internal/config"
	"github.com/rshade/pageturn/internal/fetch"
	"github.com/rshade/pageturn/internal/markup"
)

// Output formats of the dump command.
const (
	outputAuto     = ""
	outputTable    = "table"
	outputJSON     = "json"
	outputNDJSON   = "ndjson"
	outputMarkdown = "markdown"
)

// tabPadding is the minimum column padding for tabwriter output.
const tabPadding = 2

// maxCellWidth bounds the text columns of the table output.
const maxCellWidth = 60

// ErrNoListContainer is returned when the start page has no list container.
var ErrNoListContainer = errors.New("no list container on page")

// dumpItem is one item of the dump output.
type dumpItem struct {
	Index      int    `json:"index"`
	Page       int    `json:"page"`
	Text       string `json:"text"`
	Href       string `json:"href,omitempty"`
	ModalURL   string `json:"modal_url,omitempty"`
	ModalTitle string `json:"modal_title,omitempty"`

	entry markup.Entry
}

// dumpResult is the complete outcome of a dump run.
type dumpResult struct {
	Items []dumpItem      `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

type dumpParams struct {
	output string
	sort   string
	pages  *pagination.Params
}

// NewDumpCmd creates the headless dump command.
func NewDumpCmd() *cobra.Command {
	params := dumpParams{pages: pagination.NewParams()}

	cmd := &cobra.Command{
		Use:   "dump URL",
		Short: "Print the items of a paginated list",
		Long: `Fetch a list page and follow its next-page links without a terminal UI.

Only nodes matching the content selector are collected, exactly as the
interactive browser appends them. Use it to check that a site honors the
list markup contract or to export a list.`,
		Example: `  # All items of the first ten pages as a table
  pageturn dump https://example.com/locations/

  # Items 20-29 sorted by text as JSON
  pageturn dump https://example.com/locations/ --offset 20 --limit 10 --sort text --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, strings.TrimSpace(args[0]), params)
		},
	}

	cmd.Flags().IntVar(&params.pages.MaxPages, "max-pages", pagination.DefaultMaxPages,
		"maximum number of pages to fetch, the first page included")
	cmd.Flags().IntVar(&params.pages.Limit, "limit", pagination.DefaultLimit,
		"maximum number of items to print (0 = no limit)")
	cmd.Flags().IntVar(&params.pages.Offset, "offset", pagination.DefaultOffset,
		"number of items to skip")
	cmd.Flags().StringVar(&params.sort, "sort", "",
		"sort items by field[:order]; fields: href, modal, text, title")
	cmd.Flags().StringVar(&params.output, "output", outputAuto,
		"Output format: table, json, ndjson, or markdown (default table on a terminal, ndjson otherwise)")

	return cmd
}

func runDump(cmd *cobra.Command, startURL string, params dumpParams) error {
	if startURL == "" {
		return ErrNoURL
	}

	field, order, err := pagination.ParseSort(params.sort)
	if err != nil {
		return err
	}
	sorter := pagination.NewEntrySorter()
	if field != "" && !sorter.IsValidField(field) {
		return fmt.Errorf("%w: %q (valid: %s)", pagination.ErrInvalidSortField, field,
			strings.Join(sorter.GetValidFields(), ", "))
	}
	params.pages.SortField, params.pages.SortOrder = field, order
	if err = params.pages.Validate(); err != nil {
		return err
	}

	format, err := resolveOutputFormat(params.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cfg := config.GetGlobalConfig()
	sel, err := selectorsFrom(cfg)
	if err != nil {
		return err
	}
	client, err := newFetchClient(cfg, startURL, logger)
	if err != nil {
		return err
	}

	result, err := collectItems(cmd.Context(), client, client.Base().String(), sel, *params.pages)
	if err != nil {
		return err
	}
	return renderDump(cmd.OutOrStdout(), format, result)
}

// resolveOutputFormat picks the table on a terminal and NDJSON for pipes
// when no format was requested.
func resolveOutputFormat(requested string, w io.Writer) (string, error) {
	switch strings.ToLower(requested) {
	case outputAuto:
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			return outputTable, nil
		}
		return outputNDJSON, nil
	case outputTable:
		return outputTable, nil
	case outputJSON:
		return outputJSON, nil
	case outputNDJSON:
		return outputNDJSON, nil
	case outputMarkdown, "md":
		return outputMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", requested)
	}
}

// collectItems walks the list starting at startURL. The first page is read
// through its list container; later pages are fragments whose content nodes
// are collected wherever they appear, the same way the scroll binder appends them.
func collectItems(
	ctx context.Context,
	fetcher fetch.Fetcher,
	startURL string,
	sel markup.Selectors,
	params pagination.Params,
) (*dumpResult, error) {
	resp, err := fetcher.Fetch(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", startURL, err)
	}
	doc, err := markup.ParseString(resp.Body, resp.URL, sel)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", resp.URL, err)
	}
	container := doc.ListContainer()
	if container.Empty() {
		return nil, fmt.Errorf("%w: %q did not match on %s", ErrNoListContainer, sel.List, resp.URL)
	}

	var items []dumpItem
	add := func(entries []markup.Entry, base string, page int) {
		for _, e := range entries {
			if e.Kind != markup.EntryItem {
				continue
			}
			e.Link.Href = markup.ResolveHref(base, e.Link.Href)
			item := dumpItem{
				Index: len(items) + 1,
				Page:  page,
				Text:  e.Text,
				Href:  e.Link.Href,
				entry: e,
			}
			if target, ok := markup.TryGetLinkTarget(e.Link); ok {
				item.ModalURL = markup.ResolveHref(base, target.URL)
				item.ModalTitle = target.Title
			}
			items = append(items, item)
		}
	}

	add(container.Entries(), resp.URL, 1)
	next, _ := container.NextLink()
	next = markup.ResolveHref(resp.URL, next)
	pages, bytes := 1, resp.Size()
	visited := map[string]bool{resp.URL: true}

	var reason pagination.StopReason
	for {
		var stop bool
		if stop, reason = params.ShouldStop(pages, len(items), next != ""); stop {
			break
		}
		if visited[next] {
			logger.Warn().Ctx(ctx).Str("url", next).Msg("next-page link points to a page already read")
			reason = pagination.StopCycle
			break
		}
		visited[next] = true

		resp, err = fetcher.Fetch(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d (%s): %w", pages+1, next, err)
		}
		doc, err = markup.ParseString(resp.Body, resp.URL, sel)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", resp.URL, err)
		}
		page := markup.ExtractPage(doc)
		pages++
		bytes += resp.Size()
		add(page.Entries, resp.URL, pages)
		next = markup.ResolveHref(resp.URL, page.NextHref)

		logger.Debug().Ctx(ctx).
			Str("url", resp.URL).
			Int("page", pages).
			Int("items", len(items)).
			Bool("from_cache", resp.FromCache).
			Msg("page collected")
	}

	total := len(items)
	if params.SortField != "" {
		items = pagination.SortBy(items, func(i dumpItem) markup.Entry { return i.entry },
			params.SortField, params.SortOrder)
	}
	items = pagination.Apply(params, items)

	if reason == pagination.StopExhausted || reason == pagination.StopCycle {
		next = ""
	}
	return &dumpResult{
		Items: items,
		Meta:  pagination.NewMeta(params, pages, total, len(items), next, bytes, reason),
	}, nil
}

func renderDump(w io.Writer, format string, result *dumpResult) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case outputNDJSON:
		enc := json.NewEncoder(w)
		for _, item := range result.Items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	case outputMarkdown:
		return renderDumpMarkdown(w, result)
	default:
		return renderDumpTable(w, result)
	}
}

func renderDumpTable(w io.Writer, result *dumpResult) error {
	if len(result.Items) == 0 {
		fmt.Fprintln(w, "No items")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
		fmt.Fprintln(tw, "#\tPAGE\tITEM\tLINK\tMODAL")
		fmt.Fprintln(tw, "-\t----\t----\t----\t-----")
		for _, item := range result.Items {
			modal := "-"
			if item.ModalURL != "" {
				modal = cell(item.ModalTitle)
			}
			link := item.Href
			if link == "" {
				link = "-"
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", item.Index, item.Page, cell(item.Text), cell(link), modal)
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("flushing table writer: %w", err)
		}
	}

	m := result.Meta
	fmt.Fprintf(w, "\n%d of %d items from %d page(s), %s read, stopped: %s\n",
		m.Returned, m.TotalItems, m.PagesFetched, humanize.Bytes(uint64(max(m.Bytes, 0))), m.StopReason)
	if m.HasNext {
		fmt.Fprintf(w, "next page: %s\n", m.NextURL)
	}
	return nil
}

func renderDumpMarkdown(w io.Writer, result *dumpResult) error {
	md := markdown.NewMarkdown(w)
	md.H1("List items")
	md.PlainText("")

	m := result.Meta
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Items", fmt.Sprintf("%d of %d", m.Returned, m.TotalItems)},
			{"Pages", strconv.Itoa(m.PagesFetched)},
			{"Read", humanize.Bytes(uint64(max(m.Bytes, 0)))},
			{"Stopped", string(m.StopReason)},
		},
	})
	md.PlainText("")

	if len(result.Items) == 0 {
		md.PlainText("No items.")
		return md.Build()
	}

	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		text := mdEscape(item.Text)
		if item.Href != "" {
			text = mdLink(text, item.Href)
		}
		modal := ""
		if item.ModalURL != "" {
			modal = mdLink(mdEscape(item.ModalTitle), item.ModalURL)
		}
		rows = append(rows, []string{strconv.Itoa(item.Index), strconv.Itoa(item.Page), text, modal})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Page", "Item", "Modal"},
		Rows:   rows,
	})
	if m.HasNext {
		md.PlainText("")
		md.PlainText("Next page: " + m.NextURL)
	}
	return md.Build()
}

func mdLink(text, href string) string {
	return "[" + text + "](" + href + ")"
}

// mdEscape keeps cell text from breaking the table layout.
func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

func cell(s string) string {
	return ansi.Truncate(strings.ReplaceAll(s, "\t", " "), maxCellWidth, "…")
}
