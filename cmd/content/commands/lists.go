package commands

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list NAME",
		Aliases: []string{"options"},
		Short:   "Get an option list",
		Long:    "Display the label/value pairs of the option list stored under name",
		Example: "  content list colors",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			options, err := client.GetList(ctx, args[0])
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), options, func(table *tablewriter.Table) {
				table.Header("Label", "Value")

				for _, option := range options {
					_ = table.Append(option.Label, formatCell(option.Value))
				}
			})
		},
	}
}

// NewSiteConfigCommand creates the site-config command.
func NewSiteConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "site-config",
		Short: "Get the site configuration",
		Long:  "Display the site-wide configuration record of the content document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			config, err := client.GetConfig(ctx)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), config, nil)
		},
	}
}
