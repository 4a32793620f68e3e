package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/internal/query"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/fivetwenty-io/sitecontent/pkg/contentclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	// NotAvailable is printed for absent table cells.
	NotAvailable = "N/A"

	defaultJSONIndent = 2
	valueColumnWidth  = 60
)

// Static errors reported by the commands.
var (
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
)

// settings collects the values every content command reads from flags,
// environment and the config file.
type settings struct {
	Token       string
	Environment string
	Language    string
	Mode        string
	BaseURL     string
	Cache       string
	RedisAddr   string
	NATSURL     string
	Expiration  int
	Resolve     bool
	Mock        bool
	Verbose     bool
	Timeout     time.Duration
}

func loadSettings() settings {
	return settings{
		Token:       viper.GetString("token"),
		Environment: viper.GetString("env"),
		Language:    viper.GetString("lang"),
		Mode:        viper.GetString("mode"),
		BaseURL:     viper.GetString("base-url"),
		Cache:       viper.GetString("cache"),
		RedisAddr:   viper.GetString("redis-addr"),
		NATSURL:     viper.GetString("nats-url"),
		Expiration:  viper.GetInt("expiration"),
		Resolve:     viper.GetBool("resolve"),
		Mock:        viper.GetBool("mock"),
		Verbose:     viper.GetBool("verbose"),
		Timeout:     viper.GetDuration("timeout"),
	}
}

// newLogger returns a development logger on stderr in verbose mode and a
// no-op logger otherwise.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

func newCache(ctx context.Context, s settings) (content.Cache, error) {
	cacheConfig := &content.CacheConfig{Type: content.CacheType(s.Cache)}

	switch cacheConfig.Type {
	case content.CacheTypeRedis:
		cacheConfig.Redis = &content.RedisCacheConfig{Address: s.RedisAddr}
	case content.CacheTypeNATS:
		cacheConfig.NATS = &content.NATSKVConfig{URL: s.NATSURL}
	case content.CacheTypeMemory, content.CacheTypeNone, "":
	}

	cache, err := content.NewCacheFromConfig(ctx, cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", s.Cache, err)
	}

	return cache, nil
}

// buildConfig turns the current settings into a client configuration.
func buildConfig(ctx context.Context) (*content.Config, *zap.Logger, error) {
	s := loadSettings()
	logger := newLogger(s.Verbose)

	cache, err := newCache(ctx, s)
	if err != nil {
		return nil, logger, err
	}

	config := &content.Config{
		Token:             s.Token,
		Environment:       s.Environment,
		Language:          s.Language,
		Mode:              content.Mode(s.Mode),
		BaseURL:           s.BaseURL,
		MockData:          s.Mock,
		Cache:             cache,
		ExpirationMinutes: s.Expiration,
		ResolveTags:       s.Resolve,
		HTTPTimeout:       s.Timeout,
		Logger:            content.NewZapLogger(logger),
	}

	if s.Verbose {
		config.Interceptors = content.NewInterceptorChain().
			OnRequest(content.RequestLogger(config.Logger)).
			OnResponse(content.ResponseLogger(config.Logger))
	}

	if _, err := config.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, logger, nil
}

func newAsyncClient(ctx context.Context) (content.AsyncClient, func(), error) {
	config, logger, err := buildConfig(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	client, err := contentclient.NewAsync(config)
	if err != nil {
		return nil, func() {}, err
	}

	return client, func() { _ = logger.Sync() }, nil
}

func newSyncClient(ctx context.Context) (content.SyncClient, func(), error) {
	config, logger, err := buildConfig(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	client, err := contentclient.NewSync(ctx, config)
	if err != nil {
		return nil, func() {}, err
	}

	return client, func() { _ = logger.Sync() }, nil
}

// outputFormat returns the configured format. Without one, tables are used
// on a terminal and JSON everywhere else.
func outputFormat() string {
	if format := viper.GetString("output"); format != "" {
		return format
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return constants.FormatTable
	}

	return constants.FormatJSON
}

// writeOutput encodes value in the configured format. table renders the
// tabular form; when nil, the value is printed as a property table.
func writeOutput(w io.Writer, value any, table func(*tablewriter.Table)) error {
	switch format := outputFormat(); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(value)
	case constants.FormatYAML:
		plain, err := query.Normalize(value)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(plain)
	case constants.FormatTable:
		writer := tablewriter.NewWriter(w)
		if table != nil {
			table(writer)
		} else if err := propertyTable(writer, value); err != nil {
			return err
		}

		if err := writer.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}

// propertyTable lists the top-level fields of value, one per row.
func propertyTable(table *tablewriter.Table, value any) error {
	plain, err := query.Normalize(value)
	if err != nil {
		return err
	}

	table.Header("Property", "Value")

	object, ok := plain.(map[string]any)
	if !ok {
		_ = table.Append("value", formatCell(plain))

		return nil
	}

	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		_ = table.Append(key, formatCell(object[key]))
	}

	return nil
}

// formatCell renders a value for a table cell. Composite values are shown
// as compact JSON.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return NotAvailable
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		text := string(data)
		if len(text) > valueColumnWidth {
			text = text[:valueColumnWidth-3] + "..."
		}

		return text
	default:
		return fmt.Sprintf("%v", v)
	}
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
