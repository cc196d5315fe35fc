package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront.GO/app"
	"storefront.GO/core/logging"
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Multi-vendor storefront: catalog browsing, cart and checkout",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute applies the registered commands and runs the CLI.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp builds the application for a command. migrate brings the schema up first.
func openApp(ctx context.Context, migrate bool) (*app.App, error) {
	logger, err := logging.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a, err := app.New(ctx, app.Options{Logger: logger, Migrate: migrate})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}
