package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iyapetai69/Otakudesuscrap/internal/config"
	"github.com/Iyapetai69/Otakudesuscrap/internal/crawler"
	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run the full staged crawl",
		Long: `Crawl runs the full pipeline: the front page, the genre index, the release
schedule, and the paginated ongoing listing are fetched first; the anime
detail pages they link to come second; the episode pages those link to come
last.

Per-page failures are logged and counted but never abort the run. Re-running
the command skips every record that is already on disk and only fetches the
gaps, which is how an interrupted crawl is resumed.

Examples:
  # Crawl with built-in defaults into ./outputs
  otakudesuscrap crawl

  # Crawl with a config file and a different output directory
  otakudesuscrap crawl -c crawl.yaml --output /data/otakudesu`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output directory for JSON records (overrides config)")
	cmd.Flags().IntP("concurrency", "n", 0, "Concurrent workers per stage (overrides config)")
	cmd.Flags().Int("max-pages", 0, "Safety cap on ongoing listing pages (overrides config)")
	cmd.Flags().Bool("no-render", false, "Disable the browser fallback for anti-bot challenges")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	eng, err := crawler.NewEngine(*cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := eng.Run(ctx)
	printSummary(cmd, sum)
	if err != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return nil
}

// loadConfig reads the config file named by the persistent --config flag, or
// falls back to built-in defaults when the flag is unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return nil, err
		}
	}
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

// applyCrawlFlags lets command line flags override the loaded configuration.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output.Dir = output
	}

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Worker.Concurrency = concurrency
	}

	maxPages, err := cmd.Flags().GetInt("max-pages")
	if err != nil {
		return err
	}
	if maxPages > 0 {
		cfg.Crawl.MaxOngoingPages = maxPages
	}

	noRender, err := cmd.Flags().GetBool("no-render")
	if err != nil {
		return err
	}
	if noRender {
		cfg.Rendering.Enabled = false
	}

	return nil
}

// printSummary writes the per-kind outcome table for one run.
func printSummary(cmd *cobra.Command, sum crawler.Summary) {
	kinds := make([]types.Kind, 0, len(sum.Kinds))
	for kind := range sum.Kinds {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Stage() != kinds[j].Stage() {
			return kinds[i].Stage() < kinds[j].Stage()
		}
		return kinds[i] < kinds[j]
	})

	out := cmd.OutOrStdout()
	for _, kind := range kinds {
		c := sum.Counts(kind)
		fmt.Fprintf(out, "%-10s fetched=%-6d skipped=%-6d failed=%d\n",
			kind, c.Fetched, c.Skipped, c.Failed)
	}
	total := sum.Total()
	fmt.Fprintf(out, "%-10s fetched=%-6d skipped=%-6d failed=%d\n",
		"total", total.Fetched, total.Skipped, total.Failed)
}
