package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/sitecontent/cmd/content/commands"
	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "content",
	Short: "Hosted site content CLI",
	Long: `A command-line interface for reading hosted site content.

Pages, entries, images, option lists and site configuration can be listed
individually, or the whole document can be fetched and queried with JMESPath.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringP("config", "c", "", "config file (default is $HOME/.sitecontent/config.yml)")
	flags.StringP("token", "t", "", "site token (<routing>_<site-id>_<secret>)")
	flags.StringP("env", "e", constants.DefaultEnvironment, "environment alias or tag")
	flags.StringP("lang", "l", "", "content language")
	flags.String("mode", "", "routing mode (production, staging, local)")
	flags.String("base-url", "", "override the content API base URL")
	flags.StringP("output", "o", "", "output format (table, json, yaml); defaults to table on a terminal")
	flags.String("cache", "memory", "cache backend (memory, redis, nats, none)")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis cache")
	flags.String("nats-url", "nats://127.0.0.1:4222", "NATS URL for the nats cache")
	flags.Int("expiration", 0, "cache freshness window in minutes (0 disables expiration)")
	flags.Bool("resolve", false, "resolve the environment alias to a tag before fetching")
	flags.Bool("mock", false, "request simulated data (test tokens only)")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "HTTP request timeout")
	flags.BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	for _, name := range append([]string{"config", "verbose"}, commands.ConfigKeys...) {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewPagesCommand())
	rootCmd.AddCommand(commands.NewPageCommand())
	rootCmd.AddCommand(commands.NewSlugsCommand())
	rootCmd.AddCommand(commands.NewEntryCommand())
	rootCmd.AddCommand(commands.NewImageCommand())
	rootCmd.AddCommand(commands.NewImagesCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewSiteConfigCommand())
	rootCmd.AddCommand(commands.NewResolveCommand())
}

func initConfig() {
	// A .env file in the working directory is optional
	_ = godotenv.Load()

	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := commands.ConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.sitecontent/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, e.g. SITECONTENT_BASE_URL
	viper.SetEnvPrefix("SITECONTENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
