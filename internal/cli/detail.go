package cli

import (
	"github.com/spf13/cobra"

	resultgrid "github.com/kailas-cloud/resultgrid/pkg/sdk"
)

type detailOptions struct {
	root     *rootOptions
	entities []string
	format   string
}

func newDetailCommand(root *rootOptions) *cobra.Command {
	opts := &detailOptions{root: root}
	cmd := &cobra.Command{
		Use:   "detail FILE PK",
		Short: "Show every property of one record",
		Long: `Detail lists the properties of the record whose primary key value is PK,
nested objects and arrays indented under their parent. Records without a
modelled primary key are addressed by their URI.`,
		Example: `  gridctl detail results.json 10 --entity Order
  gridctl detail results.json /customers/1.json -f json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetail(cmd, args[0], args[1], opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.entities, "entity", "e", nil, "Selected entity type (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatTable, "Output format: table, json, md")
	return cmd
}

func runDetail(cmd *cobra.Command, path, pk string, opts *detailOptions) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	client, err := resultgrid.New(resultgrid.WithSessionTTL(0, 0))
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	sess, err := client.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sess.Ingest(ctx, data, opts.entities...); err != nil {
		return err
	}
	items, err := sess.Detail(ctx, pk)
	if err != nil {
		return err
	}

	if opts.format == FormatJSON {
		return writeJSON(cmd.OutOrStdout(), items)
	}
	return render(cmd.OutOrStdout(), detailTable(items), opts.format)
}
