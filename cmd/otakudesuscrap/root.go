package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for otakudesuscrap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otakudesuscrap",
		Short: "Crawl an anime catalog site into JSON records",
		Long: `otakudesuscrap crawls an anime catalog site and persists one JSON record
per page: listings first, then every discovered anime detail page, then every
discovered episode page. Records already on disk are never re-fetched, so an
interrupted crawl resumes where it left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: built-in defaults)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewPageCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
