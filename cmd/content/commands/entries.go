package commands

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewEntryCommand creates the entry command.
func NewEntryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "entry HANDLE",
		Short: "Get an entry",
		Long:  "Display the entry stored under handle. An entry holds a single record or a list of records.",
		Example: `  content entry footer
  content entry team-members --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			entry, err := client.GetEntry(ctx, args[0])
			if err != nil {
				return err
			}

			if record, ok := entry.Single(); ok {
				return writeOutput(cmd.OutOrStdout(), record, nil)
			}

			records, _ := entry.Many()

			return writeOutput(cmd.OutOrStdout(), records, func(table *tablewriter.Table) {
				table.Header("#", "Record")

				for i, record := range records {
					_ = table.Append(strconv.Itoa(i), formatCell(map[string]any(record)))
				}
			})
		},
	}
}
