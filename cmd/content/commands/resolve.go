package commands

import (
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/fivetwenty-io/sitecontent/pkg/contentclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type resolution struct {
	Alias string `json:"alias" yaml:"alias"`
	Tag   string `json:"tag"   yaml:"tag"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [alias]",
		Short: "Resolve an environment alias",
		Long: `Resolve an environment alias to the immutable tag it currently points to.

Without an argument the configured environment is resolved. When resolution
fails the alias itself is printed.`,
		Example: `  content resolve
  content resolve preview`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			config, logger, err := buildConfig(ctx)
			defer func() { _ = logger.Sync() }()

			if err != nil {
				return err
			}

			credential, err := content.ParseCredential(config.Token)
			if err != nil {
				return err
			}

			alias := argOrEmpty(args)
			if alias == "" {
				alias = config.EnvironmentOrDefault()
			}

			resolver := contentclient.NewResolver(config)
			result := resolution{Alias: alias, Tag: resolver.Resolve(ctx, credential, alias)}

			return writeOutput(cmd.OutOrStdout(), result, func(table *tablewriter.Table) {
				table.Header("Alias", "Tag")
				_ = table.Append(result.Alias, result.Tag)
			})
		},
	}
}
