package commands

import (
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewImageCommand creates the image command.
func NewImageCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "image NAME",
		Short:   "Get an image",
		Long:    "Display the image record stored under name",
		Example: "  content image hero",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			image, err := client.GetImage(ctx, args[0])
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), image, nil)
		},
	}
}

// NewImagesCommand creates the images command.
func NewImagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List images",
		Long:  "List every image of the content document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			images, err := client.GetImages(ctx)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(images))
			for name := range images {
				names = append(names, name)
			}

			sort.Strings(names)

			return writeOutput(cmd.OutOrStdout(), images, func(table *tablewriter.Table) {
				table.Header("Name", "URL")

				for _, name := range names {
					url := images[name].URL
					if url == "" {
						url = NotAvailable
					}

					_ = table.Append(name, url)
				}
			})
		},
	}
}
