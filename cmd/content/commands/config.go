package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".sitecontent"
	configFileName = "config.yml"
	masked         = "***"

	// routing, site id and secret
	credentialParts = 3
)

// ConfigKeys lists the settings that can be persisted in the config file.
var ConfigKeys = []string{
	"token",
	"env",
	"lang",
	"mode",
	"base-url",
	"output",
	"cache",
	"redis-addr",
	"nats-url",
	"expiration",
	"resolve",
	"mock",
	"timeout",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in ~/.sitecontent/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(ConfigKeys))
			for _, key := range ConfigKeys {
				values[key] = viper.GetString(key)
			}

			if values["token"] != "" {
				values["token"] = maskToken(values["token"])
			}

			return writeOutput(cmd.OutOrStdout(), values, func(table *tablewriter.Table) {
				table.Header("Property", "Value")

				for _, key := range ConfigKeys {
					value := values[key]
					if value == "" {
						value = NotAvailable
					}

					_ = table.Append(key, value)
				}
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Set a configuration value",
		Long:    "Persist a configuration value. Valid keys: " + strings.Join(ConfigKeys, ", "),
		Example: "  content config set token eu_site42_secret",
		Args:    cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !slices.Contains(ConfigKeys, key) {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			return updateConfigFile(func(values map[string]any) {
				values[key] = value
			})
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a configuration value",
		Long:  "Remove a persisted configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(ConfigKeys, key) {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			return updateConfigFile(func(values map[string]any) {
				delete(values, key)
			})
		},
	}
}

// ConfigDir returns the directory holding the CLI config file.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

func configFilePath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

func updateConfigFile(update func(map[string]any)) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	values := make(map[string]any)

	// path is derived from the user's home directory or the --config flag
	// #nosec G304
	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}

		if values == nil {
			values = make(map[string]any)
		}
	}

	update(values)

	data, err = yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// maskToken hides the secret part of a site token.
func maskToken(token string) string {
	parts := strings.SplitN(token, constants.CredentialDelimiter, credentialParts)
	if len(parts) != credentialParts {
		return masked
	}

	return parts[0] + constants.CredentialDelimiter + parts[1] + constants.CredentialDelimiter + masked
}
