package commands

import (
	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "get [query]",
		Short: "Get the content document",
		Long: `Get the full content document, or the result of a JMESPath query over it.

By default the whole document is fetched once and the query is evaluated
locally. With --remote the query is sent to the content API, which returns
only the matching data.`,
		Example: `  content get
  content get "pages[?published].title"
  content get --remote "config.title"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			expression := argOrEmpty(args)

			var (
				result any
				err    error
			)

			if remote {
				client, done, clientErr := newAsyncClient(ctx)
				if clientErr != nil {
					return clientErr
				}
				defer done()

				result, err = client.GetContent(ctx, expression)
			} else {
				client, done, clientErr := newSyncClient(ctx)
				if clientErr != nil {
					return clientErr
				}
				defer done()

				result, err = client.GetContent(expression)
			}

			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), result, nil)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "evaluate the query on the content API")

	return cmd
}
