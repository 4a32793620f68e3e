package commands

import (
	"fmt"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewPagesCommand creates the pages command.
func NewPagesCommand() *cobra.Command {
	var find string

	cmd := &cobra.Command{
		Use:   "pages [prefix]",
		Short: "List pages",
		Long:  "List the pages whose path starts with prefix, optionally filtered by a JMESPath query",
		Example: `  content pages
  content pages /blog
  content pages /blog --query "[?published]._path"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			prefix := argOrEmpty(args)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			if find != "" {
				result, err := client.FindPages(ctx, prefix, find)
				if err != nil {
					return err
				}

				return writeOutput(cmd.OutOrStdout(), result, nil)
			}

			pages, err := client.GetPages(ctx, prefix)
			if err != nil {
				return err
			}

			if len(pages) == 0 && outputFormat() == constants.FormatTable {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No pages found")

				return nil
			}

			return writeOutput(cmd.OutOrStdout(), pages, func(table *tablewriter.Table) {
				table.Header("Path", "Slug", "Title")

				for _, page := range pages {
					_ = table.Append(page.Path, slugCell(page), titleCell(page.Fields))
				}
			})
		},
	}

	cmd.Flags().StringVarP(&find, "query", "q", "", "JMESPath query evaluated over the matching pages")

	return cmd
}

// NewPageCommand creates the page command.
func NewPageCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "page PATH",
		Short:   "Get a page",
		Long:    "Display the page whose path matches exactly",
		Example: "  content page /blog/hello-world",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			page, err := client.GetPage(ctx, args[0])
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), page, nil)
		},
	}
}

// NewSlugsCommand creates the slugs command.
func NewSlugsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "slugs [prefix]",
		Short:   "List page slugs",
		Long:    "List the slugs of the pages whose path starts with prefix",
		Example: "  content slugs /blog",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, done, err := newAsyncClient(ctx)
			if err != nil {
				return err
			}
			defer done()

			slugs, err := client.GetSlugs(ctx, argOrEmpty(args))
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), slugs, func(table *tablewriter.Table) {
				table.Header("Slug")

				for _, slug := range slugs {
					_ = table.Append(slug)
				}
			})
		},
	}
}

func slugCell(page content.Page) string {
	if !page.HasSlug() {
		return NotAvailable
	}

	return page.Slug
}

func titleCell(fields content.Record) string {
	for _, field := range []string{"title", "name", "label"} {
		if value, ok := fields.StringField(field); ok {
			return value
		}
	}

	return NotAvailable
}
