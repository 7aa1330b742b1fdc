package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iyapetai69/Otakudesuscrap/internal/crawler"
	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// NewPageCmd creates the page command.
func NewPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page <kind> [id]",
		Short: "Fetch and persist a single page",
		Long: `Page fetches exactly one page and persists its record without cascading
into the pages it links to. Useful for refreshing a single stale record or
inspecting what the extractor produces for one URL.

Kinds: ` + kindList() + `. Singleton kinds (home, genres, schedule) need no
id; ongoing pages use p<N>; anime and episode pages use their URL slug.

Examples:
  otakudesuscrap page home
  otakudesuscrap page ongoing p2
  otakudesuscrap page anime tokyo-revengers-sub-indo --force`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPageCmd,
	}

	cmd.Flags().BoolP("force", "f", false, "Replace the record if it already exists")

	return cmd
}

// runPageCmd executes the page command.
func runPageCmd(cmd *cobra.Command, args []string) error {
	item, err := parseWorkItem(args)
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
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

	sum, err := eng.RunSingle(ctx, item, force)
	if err != nil {
		return err
	}
	c := sum.Counts(item.Kind)
	switch {
	case c.Failed > 0:
		return fmt.Errorf("page %s could not be processed, see log for the reason", item)
	case c.Skipped > 0:
		fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, use --force to replace it\n", item)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s saved\n", item)
	}
	return nil
}

// parseWorkItem maps the positional arguments to a work item. Singleton kinds
// default their id; the rest require one.
func parseWorkItem(args []string) (types.WorkItem, error) {
	kind, err := types.ParseKind(args[0])
	if err != nil {
		return types.WorkItem{}, err
	}

	var id string
	if len(args) == 2 {
		id = strings.TrimSpace(args[1])
	}
	if id == "" {
		switch kind {
		case types.KindHome:
			id = "home"
		case types.KindGenres:
			id = "genrelist"
		case types.KindSchedule:
			id = "jadwal"
		default:
			return types.WorkItem{}, fmt.Errorf("kind %q requires an id", kind)
		}
	}

	// Ongoing pages are keyed p<N>; accept a bare page number and normalize
	// so single-page runs share the full crawl's key space.
	if kind == types.KindOngoing {
		page, err := strconv.Atoi(strings.TrimPrefix(id, "p"))
		if err != nil || page < 1 {
			return types.WorkItem{}, fmt.Errorf("ongoing id must be a page number like p2, got %q", id)
		}
		id = fmt.Sprintf("p%d", page)
	}
	return types.WorkItem{Kind: kind, ID: id}, nil
}

func kindList() string {
	kinds := types.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
