package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/internal/devserver"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type options struct {
	port         int
	siteID       string
	file         string
	aliases      []string
	translations map[string]string
	noAuth       bool
	verbose      bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "content-devserver",
		Short: "Serve a content document locally",
		Long: `Serve a content document from a JSON file on http://localhost:4321.

Clients configured with the local mode read from this server. Queries sent
as the search parameter are evaluated with the same JMESPath engine the
clients use locally.`,
		Example: `  content-devserver --site site42 --file content.json
  content-devserver --site site42 --file content.json --alias preview --translation de=content.de.json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", constants.DefaultLocalPort, "port to listen on")
	cmd.Flags().StringVarP(&opts.siteID, "site", "s", "", "site id served by this server")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "path of the JSON content document")
	cmd.Flags().StringSliceVar(&opts.aliases, "alias", nil, "additional environment aliases (latest is always served)")
	cmd.Flags().StringToStringVar(&opts.translations, "translation", nil, "translated documents as lang=path")
	cmd.Flags().BoolVar(&opts.noAuth, "no-auth", false, "accept requests without a valid token")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every request")

	_ = cmd.MarkFlagRequired("site")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func run(ctx context.Context, opts *options) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = logger.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	serverOpts := []devserver.Option{devserver.WithLogger(content.NewZapLogger(logger))}
	if opts.noAuth {
		serverOpts = append(serverOpts, devserver.WithoutAuth())
	}

	dev := devserver.New(serverOpts...)

	document, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read content document: %w", err)
	}

	tag, err := dev.AddSite(opts.siteID, document, opts.aliases...)
	if err != nil {
		return fmt.Errorf("failed to load content document: %w", err)
	}

	for lang, path := range opts.translations {
		translated, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s translation: %w", lang, err)
		}

		if err := dev.AddTranslation(opts.siteID, lang, translated); err != nil {
			return fmt.Errorf("failed to load %s translation: %w", lang, err)
		}
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(opts.port)),
		Handler:           dev.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("content devserver listening",
			zap.String("addr", server.Addr),
			zap.String("site", opts.siteID),
			zap.String("tag", tag),
		)

		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
