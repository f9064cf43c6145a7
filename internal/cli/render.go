package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	resultgrid "github.com/kailas-cloud/resultgrid/pkg/sdk"
)

// pixelsPerChar maps grid column widths to terminal characters.
const pixelsPerChar = 8

type renderOptions struct {
	root     *rootOptions
	entities []string
	columns  []string
	expand   []string
	format   string
	width    int
	visible  int
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	opts := &renderOptions{root: root}
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a result envelope as a grid",
		Long: `Render flattens a search result envelope (a file, or - for stdin) into
grid rows. Without --entity the fixed all-entities columns are shown;
with one or more --entity flags the columns are derived from the first
record of the selected entity types.`,
		Example: `  gridctl render results.json
  gridctl render results.json --entity Customer --columns 0-0,0-2
  cat results.json | gridctl render - --entity Order --expand 10 -f md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.entities, "entity", "e", nil, "Selected entity type (repeatable)")
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "Column keys to show (default: first columns)")
	cmd.Flags().StringArrayVar(&opts.expand, "expand", nil, "Primary key value of a record to expand (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatTable, "Output format: table, json, md")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Initial column width in pixels (default 150)")
	cmd.Flags().IntVar(&opts.visible, "visible", 0, "Initially visible top-level columns (default 5)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatTable, FormatJSON, FormatMarkdown}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runRender(cmd *cobra.Command, path string, opts *renderOptions) error {
	log, err := opts.root.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	client, err := resultgrid.New(
		resultgrid.WithColumnWidth(opts.width),
		resultgrid.WithVisibleColumns(opts.visible),
		resultgrid.WithSessionTTL(0, 0),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	sess, err := client.NewSession(ctx)
	if err != nil {
		return err
	}

	v, err := sess.Ingest(ctx, data, opts.entities...)
	if err != nil {
		return err
	}
	if v.Malformed > 0 {
		log.Warn("Some records could not be read and are shown partially", zap.Int("count", v.Malformed))
	}
	if len(opts.columns) > 0 {
		if v, err = sess.Select(ctx, opts.columns...); err != nil {
			return err
		}
	}
	for _, pk := range opts.expand {
		if v, _, err = sess.ToggleExpand(ctx, pk); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.format == FormatJSON {
		return writeJSON(out, v)
	}

	t := gridTable(v)
	if err := render(out, t, opts.format); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "(%d rows, %d records)\n", len(v.Rows), v.Records)

	for _, r := range v.Rows {
		if !r.ShowExpand || !r.Expanded {
			continue
		}
		items, err := sess.Detail(ctx, r.PrimaryKey.Value)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "\n%s = %s\n", r.PrimaryKey.Name, r.PrimaryKey.Value)
		if err := render(out, detailTable(items), opts.format); err != nil {
			return err
		}
	}
	return nil
}

func render(w io.Writer, t table.Writer, format string) error {
	switch format {
	case FormatTable:
		_, _ = fmt.Fprintln(w, t.Render())
	case FormatMarkdown, "markdown":
		_, _ = fmt.Fprintln(w, t.RenderMarkdown())
	default:
		return fmt.Errorf("unknown format %q (want table, json or md)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// newTable returns a writer that prints header titles as given.
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

// gridTable lays out rendered columns with a two-line header when groups are
// present; group titles merge across their children. Rows hidden under an
// anchor (span 0) render empty, and each record starts after a separator.
func gridTable(v resultgrid.View) table.Writer {
	t := newTable()

	leaves := leafColumns(v.Columns)
	nested := false
	for _, c := range v.Columns {
		nested = nested || c.IsGroup()
	}

	top := table.Row{""}
	sub := table.Row{""}
	for _, c := range v.Columns {
		if !c.IsGroup() {
			top = append(top, c.Title)
			sub = append(sub, "")
			continue
		}
		for _, ch := range c.Children {
			top = append(top, c.Title)
			sub = append(sub, ch.Title)
		}
	}
	if nested {
		t.AppendHeader(top, table.RowConfig{AutoMerge: true})
		t.AppendHeader(sub)
	} else {
		t.AppendHeader(top)
	}

	configs := make([]table.ColumnConfig, len(leaves))
	for i, c := range leaves {
		configs[i] = table.ColumnConfig{Number: i + 2, WidthMax: max(8, c.Width/pixelsPerChar)}
	}
	t.SetColumnConfigs(configs)

	prevGroup := -1
	for i, r := range v.Rows {
		if i > 0 && (r.GroupID < 0 || r.GroupID != prevGroup) {
			t.AppendSeparator()
		}
		prevGroup = r.GroupID

		line := make(table.Row, 0, len(leaves)+1)
		line = append(line, expandMarker(r))
		for _, c := range leaves {
			if r.Span(c.DataKey) == 0 {
				line = append(line, "")
				continue
			}
			line = append(line, r.Cells[c.DataKey].Text)
		}
		t.AppendRow(line)
	}
	return t
}

func expandMarker(r resultgrid.Row) string {
	switch {
	case !r.ShowExpand:
		return ""
	case r.Expanded:
		return "-"
	default:
		return "+"
	}
}

func leafColumns(cols []resultgrid.Column) []resultgrid.Column {
	var out []resultgrid.Column
	for _, c := range cols {
		if c.IsGroup() {
			out = append(out, c.Children...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// detailTable lists record properties with nesting shown by indentation.
func detailTable(items []resultgrid.DetailItem) table.Writer {
	t := newTable()
	t.AppendHeader(table.Row{"Property", "Value", "View"})
	appendItems(t, items)
	return t
}

func appendItems(t table.Writer, items []resultgrid.DetailItem) {
	for _, it := range items {
		link := ""
		if it.Link != nil {
			link = it.Link.Path
		}
		t.AppendRow(table.Row{strings.Repeat("  ", it.Depth) + it.Property, it.Value, link})
		appendItems(t, it.Children)
	}
}
