package commands_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fivetwenty-io/sitecontent/cmd/content/commands"
	"github.com/fivetwenty-io/sitecontent/internal/devserver"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const siteDocument = `{
	"pages": [
		{"_path": "/", "title": "Home"},
		{"_path": "/blog/a", "_slug": "a", "title": "A", "published": true},
		{"_path": "/blog/b", "_slug": "b", "title": "B"}
	],
	"entries": {"footer": {"text": "bye"}},
	"images": {"hero": {"url": "https://cdn.example.com/hero.png"}},
	"lists": {"colors": [{"label": "Red", "value": "red"}]},
	"config": {"title": "Site"}
}`

func TestNewConfigCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)
	assert.Equal(t, "Manage CLI configuration", cmd.Short)

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, 3)

	for _, name := range []string{"show", "set", "unset"} {
		assert.NotNil(t, findSubcommand(cmd, name), name)
	}

	set := findSubcommand(cmd, "set")
	assert.Equal(t, "set KEY VALUE", set.Use)
	assert.NotNil(t, set.RunE)
}

func TestContentCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  *cobra.Command
		use  string
		args []string
		ok   bool
	}{
		{commands.NewGetCommand(), "get [query]", []string{"a", "b"}, false},
		{commands.NewPagesCommand(), "pages [prefix]", []string{"/blog"}, true},
		{commands.NewPageCommand(), "page PATH", nil, false},
		{commands.NewSlugsCommand(), "slugs [prefix]", nil, true},
		{commands.NewEntryCommand(), "entry HANDLE", []string{"footer"}, true},
		{commands.NewImageCommand(), "image NAME", []string{"hero", "logo"}, false},
		{commands.NewImagesCommand(), "images", []string{"hero"}, false},
		{commands.NewListCommand(), "list NAME", []string{"colors"}, true},
		{commands.NewSiteConfigCommand(), "site-config", nil, true},
		{commands.NewResolveCommand(), "resolve [alias]", []string{"latest"}, true},
		{commands.NewVersionCommand("1.0.0", "abc", "today"), "version", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			assert.NotNil(t, tt.cmd.RunE)

			err := tt.cmd.Args(tt.cmd, tt.args)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	assert.Equal(t, []string{"options"}, commands.NewListCommand().Aliases)
	assert.NotNil(t, commands.NewGetCommand().Flags().Lookup("remote"))
	assert.Equal(t, "q", commands.NewPagesCommand().Flags().Lookup("query").Shorthand)
}

// The commands read global viper state, so these run sequentially.
func TestCommands_AgainstDevServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dev := devserver.New()
	_, err := dev.AddSite("site42", []byte(siteDocument))
	require.NoError(t, err)

	server := httptest.NewServer(dev.Handler())
	t.Cleanup(server.Close)

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("token", "eu_site42_s3cr3t")
	viper.Set("base-url", server.URL)
	viper.Set("output", "json")
	viper.Set("cache", "memory")

	run := func(t *testing.T, cmd *cobra.Command, args ...string) string {
		t.Helper()

		var out bytes.Buffer

		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())

		return out.String()
	}

	t.Run("get with query", func(t *testing.T) {
		out := run(t, commands.NewGetCommand(), "pages[?published].title")
		assert.JSONEq(t, `["A"]`, out)

		out = run(t, commands.NewGetCommand(), "--remote", "config.title")
		assert.JSONEq(t, `"Site"`, out)
	})

	t.Run("pages", func(t *testing.T) {
		var pages []map[string]any

		require.NoError(t, json.Unmarshal([]byte(run(t, commands.NewPagesCommand(), "/blog")), &pages))
		assert.Len(t, pages, 2)

		out := run(t, commands.NewPagesCommand(), "/blog", "-q", "[].title")
		assert.JSONEq(t, `["A","B"]`, out)
	})

	t.Run("slugs", func(t *testing.T) {
		assert.JSONEq(t, `["a","b"]`, run(t, commands.NewSlugsCommand(), "/blog"))
	})

	t.Run("entry", func(t *testing.T) {
		assert.JSONEq(t, `{"text":"bye"}`, run(t, commands.NewEntryCommand(), "footer"))
	})

	t.Run("list", func(t *testing.T) {
		assert.JSONEq(t, `[{"label":"Red","value":"red"}]`, run(t, commands.NewListCommand(), "colors"))
	})

	t.Run("missing page", func(t *testing.T) {
		cmd := commands.NewPageCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"/nope"})
		require.Error(t, cmd.Execute())
	})

	t.Run("yaml output", func(t *testing.T) {
		viper.Set("output", "yaml")
		defer viper.Set("output", "json")

		var config map[string]any

		require.NoError(t, yaml.Unmarshal([]byte(run(t, commands.NewSiteConfigCommand())), &config))
		assert.Equal(t, "Site", config["title"])
	})

	t.Run("table output", func(t *testing.T) {
		viper.Set("output", "table")
		defer viper.Set("output", "json")

		out := run(t, commands.NewImagesCommand())
		assert.Contains(t, out, "hero")
	})

	t.Run("unknown output", func(t *testing.T) {
		viper.Set("output", "xml")
		defer viper.Set("output", "json")

		cmd := commands.NewSiteConfigCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(nil)
		require.ErrorIs(t, cmd.Execute(), commands.ErrUnknownOutputFormat)
	})

	t.Run("invalid token", func(t *testing.T) {
		viper.Set("token", "bad")
		defer viper.Set("token", "eu_site42_s3cr3t")

		cmd := commands.NewImagesCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(nil)
		require.Error(t, cmd.Execute())
	})

	t.Run("config set and unset", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		viper.SetConfigFile(path)

		cmd := commands.NewConfigCommand()
		cmd.SetArgs([]string{"set", "lang", "de"})
		require.NoError(t, cmd.Execute())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "lang: de")

		cmd = commands.NewConfigCommand()
		cmd.SetArgs([]string{"unset", "lang"})
		require.NoError(t, cmd.Execute())

		data, err = os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "lang")

		cmd = commands.NewConfigCommand()
		cmd.SetArgs([]string{"set", "color", "blue"})
		require.ErrorIs(t, cmd.Execute(), commands.ErrUnknownConfigKey)
	})

	t.Run("config show masks the token", func(t *testing.T) {
		var values map[string]string

		out := run(t, commands.NewConfigCommand(), "show")
		require.NoError(t, json.Unmarshal([]byte(out), &values))
		assert.Equal(t, "eu_site42_***", values["token"])
	})
}
