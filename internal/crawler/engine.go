// Package crawler drives the staged crawl: listing pages first, anime detail
// pages discovered from the listings second, episode detail pages discovered
// from the anime records last. Stage boundaries are hard: no worker starts
// the next stage while the current stage's queue still has items.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Iyapetai69/Otakudesuscrap/internal/config"
	"github.com/Iyapetai69/Otakudesuscrap/internal/extract"
	"github.com/Iyapetai69/Otakudesuscrap/internal/fetcher"
	"github.com/Iyapetai69/Otakudesuscrap/internal/frontier"
	"github.com/Iyapetai69/Otakudesuscrap/internal/ledger"
	"github.com/Iyapetai69/Otakudesuscrap/internal/store"
	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// Engine orchestrates fetching, extraction, and persistence for one site.
type Engine struct {
	cfg       config.Config
	fetch     fetcher.Fetcher
	extractor extract.Extractor
	urls      extract.URLBuilder
	store     *store.PageStore
	front     *frontier.Frontier
	ledger    *ledger.Ledger
	logger    *slog.Logger

	mu      sync.Mutex
	summary Summary
	runID   int64
}

// Deps are the collaborators an engine runs with. Store, Fetcher, Extractor,
// and URLs are required; Ledger and Logger are optional.
type Deps struct {
	Fetcher   fetcher.Fetcher
	Extractor extract.Extractor
	URLs      extract.URLBuilder
	Store     *store.PageStore
	Ledger    *ledger.Ledger
	Logger    *slog.Logger
}

// New assembles an engine from explicit collaborators.
func New(cfg config.Config, deps Deps) (*Engine, error) {
	if deps.Fetcher == nil || deps.Extractor == nil || deps.URLs == nil || deps.Store == nil {
		return nil, errors.New("crawler: fetcher, extractor, url builder, and store are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		fetch:     deps.Fetcher,
		extractor: deps.Extractor,
		urls:      deps.URLs,
		store:     deps.Store,
		ledger:    deps.Ledger,
		logger:    logger,
		front:     frontier.New(),
		summary:   NewSummary(),
	}, nil
}

// NewEngine builds an engine with the production collaborators derived from
// configuration. Failures here are fatal setup errors: the caller should
// abort the run.
func NewEngine(cfg config.Config) (*Engine, error) {
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	pageStore, err := store.New(cfg.Output.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("page store: %w", err)
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.Site.UserAgent,
		Headers:      cfg.Site.Headers,
		Timeout:      cfg.Crawl.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Crawl.MaxBodyBytes,
	})

	var renderer fetcher.Renderer
	if cfg.Rendering.Enabled {
		switch strings.ToLower(cfg.Rendering.Engine) {
		case "chromedp", "chrome":
			renderer = fetcher.NewChromedpRenderer(fetcher.RenderOptions{
				Timeout:            cfg.Rendering.Timeout.Duration,
				WaitForSelector:    cfg.Rendering.WaitForSelector,
				UserAgent:          cfg.Site.UserAgent,
				MaxBodyBytes:       cfg.Crawl.MaxBodyBytes,
				DisableHeadless:    cfg.Rendering.DisableHeadless,
				ConcurrentSessions: cfg.Rendering.ConcurrentSessions,
			})
		case "none":
			// Explicit opt-out even with the enabled flag set.
		}
	}

	client := fetcher.NewClient(httpFetcher, renderer, fetcher.Policy{
		Retries:  cfg.Crawl.Retries,
		Backoff:  cfg.Crawl.RetryBackoff.Duration,
		MinDelay: cfg.Crawl.MinRequestDelay.Duration,
	}, logger)

	site := extract.NewOtakudesu(cfg.Site.BaseURL)

	var led *ledger.Ledger
	if cfg.Ledger.Enabled {
		led, err = ledger.Open(cfg.Ledger.Dir)
		if err != nil {
			return nil, fmt.Errorf("run ledger: %w", err)
		}
	}

	return New(cfg, Deps{
		Fetcher:   client,
		Extractor: site,
		URLs:      site,
		Store:     pageStore,
		Ledger:    led,
		Logger:    logger,
	})
}

// Logger exposes the engine's logger for callers sharing its output.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Close releases resources owned by the engine.
func (e *Engine) Close() error {
	return e.ledger.Close()
}

// Run executes the full staged crawl. Per-item failures are logged and
// counted but never abort the run; the returned error is non-nil only for
// cancellation.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	e.reset()

	runID, err := e.ledger.StartRun(ctx)
	if err != nil {
		e.logger.Warn("ledger unavailable for this run", "error", err)
	}
	e.runID = runID

	e.front.Seed(
		types.WorkItem{Kind: types.KindHome, ID: "home"},
		types.WorkItem{Kind: types.KindGenres, ID: "genrelist"},
		types.WorkItem{Kind: types.KindSchedule, ID: "jadwal"},
	)

	if err := e.drainStage(ctx, 0); err != nil {
		return e.snapshot(), err
	}
	if err := e.crawlOngoing(ctx); err != nil {
		return e.snapshot(), err
	}
	if err := e.drainStage(ctx, 1); err != nil {
		return e.snapshot(), err
	}
	if err := e.drainStage(ctx, 2); err != nil {
		return e.snapshot(), err
	}

	sum := e.snapshot()
	total := sum.Total()
	if err := e.ledger.FinishRun(ctx, e.runID, total.Fetched, total.Skipped, total.Failed); err != nil {
		e.logger.Warn("failed to finalise ledger run", "error", err)
	}
	e.logger.Info("crawl finished",
		"fetched", total.Fetched,
		"skipped", total.Skipped,
		"failed", total.Failed,
		"discovered", e.front.Visited(),
	)
	return sum, nil
}

// RunSingle processes exactly one work item without cascading into
// discovered children. With force set, an existing record is removed first.
func (e *Engine) RunSingle(ctx context.Context, item types.WorkItem, force bool) (Summary, error) {
	e.reset()

	if force {
		if err := e.store.Delete(item.Kind, item.ID); err != nil {
			return e.snapshot(), err
		}
	}
	e.front.Claim(item)
	o := e.processItem(ctx, item)
	e.finish(ctx, item, o)
	return e.snapshot(), ctx.Err()
}

func (e *Engine) reset() {
	e.front = frontier.New()
	e.mu.Lock()
	e.summary = NewSummary()
	e.mu.Unlock()
}

// drainStage processes one stage's queue with bounded concurrency until it
// is empty, including items discovered while the stage is running.
func (e *Engine) drainStage(ctx context.Context, stage int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := e.front.NextBatch(stage, e.batchSize())
		if len(batch) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Worker.Concurrency)
		for _, item := range batch {
			item := item
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				o := e.processItem(gctx, item)
				e.finish(gctx, item, o)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
}

// crawlOngoing probes the paginated ongoing listing sequentially. The first
// page yielding zero items (or failing) terminates pagination and is not
// persisted; pages beyond it are never fetched.
func (e *Engine) crawlOngoing(ctx context.Context) error {
	for page := 1; page <= e.cfg.Crawl.MaxOngoingPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := types.WorkItem{Kind: types.KindOngoing, ID: fmt.Sprintf("p%d", page)}
		if !e.front.Claim(item) {
			continue
		}
		n, o := e.processOngoingPage(ctx, item)
		e.finish(ctx, item, o)
		if o.status == ledger.OutcomeFailed || n == 0 {
			return nil
		}
	}
	e.logger.Warn("ongoing pagination stopped at safety cap", "max_pages", e.cfg.Crawl.MaxOngoingPages)
	return nil
}

type itemOutcome struct {
	status   string
	attempts int
	reason   string
}

func (e *Engine) processOngoingPage(ctx context.Context, item types.WorkItem) (int, itemOutcome) {
	if e.store.Exists(item.Kind, item.ID) {
		var items []types.ListItem
		if err := e.store.Load(item.Kind, item.ID, &items); err == nil {
			e.front.Discover(animeChildren(items)...)
			return len(items), itemOutcome{status: ledger.OutcomeSkipped}
		}
		// Corrupt record: remove it so the re-fetched one can be saved.
		if err := e.store.Delete(item.Kind, item.ID); err != nil {
			return 0, itemOutcome{status: ledger.OutcomeFailed, reason: err.Error()}
		}
	}

	url, err := e.urls.URLFor(item)
	if err != nil {
		return 0, itemOutcome{status: ledger.OutcomeFailed, reason: err.Error()}
	}
	page, err := e.fetch.Fetch(ctx, url)
	if err != nil {
		return 0, itemOutcome{status: ledger.OutcomeFailed, reason: err.Error()}
	}
	items, err := e.extractor.Ongoing(page.Body)
	if err != nil {
		return 0, itemOutcome{status: ledger.OutcomeFailed, attempts: page.Attempts, reason: err.Error()}
	}
	if len(items) == 0 {
		return 0, itemOutcome{status: ledger.OutcomeFetched, attempts: page.Attempts}
	}
	if err := e.store.Save(item.Kind, item.ID, items); err != nil {
		return 0, itemOutcome{status: ledger.OutcomeFailed, attempts: page.Attempts, reason: err.Error()}
	}
	e.front.Discover(animeChildren(items)...)
	return len(items), itemOutcome{status: ledger.OutcomeFetched, attempts: page.Attempts}
}

// processItem runs the fetch → extract → persist → mine pipeline for one
// work item. Existing records are loaded and mined instead of fetched, which
// keeps resumed runs cheap but still lets them discover unfinished children.
func (e *Engine) processItem(ctx context.Context, item types.WorkItem) itemOutcome {
	if e.store.Exists(item.Kind, item.ID) {
		if children, err := e.mineStored(item); err == nil {
			e.front.Discover(children...)
			return itemOutcome{status: ledger.OutcomeSkipped}
		}
		// Corrupt record: remove it so the re-fetched one can be saved.
		if err := e.store.Delete(item.Kind, item.ID); err != nil {
			return itemOutcome{status: ledger.OutcomeFailed, reason: err.Error()}
		}
	}

	url, err := e.urls.URLFor(item)
	if err != nil {
		return itemOutcome{status: ledger.OutcomeFailed, reason: err.Error()}
	}
	page, err := e.fetch.Fetch(ctx, url)
	if err != nil {
		return itemOutcome{status: ledger.OutcomeFailed, reason: err.Error()}
	}

	record, children, err := e.extractPage(item, page.Body)
	if err != nil {
		return itemOutcome{status: ledger.OutcomeFailed, attempts: page.Attempts, reason: err.Error()}
	}
	if err := e.store.Save(item.Kind, item.ID, record); err != nil {
		return itemOutcome{status: ledger.OutcomeFailed, attempts: page.Attempts, reason: err.Error()}
	}
	e.front.Discover(children...)
	return itemOutcome{status: ledger.OutcomeFetched, attempts: page.Attempts}
}

func (e *Engine) extractPage(item types.WorkItem, body []byte) (record any, children []types.WorkItem, err error) {
	switch item.Kind {
	case types.KindHome:
		items, err := e.extractor.Home(body)
		if err != nil {
			return nil, nil, err
		}
		return items, animeChildren(items), nil
	case types.KindOngoing:
		items, err := e.extractor.Ongoing(body)
		if err != nil {
			return nil, nil, err
		}
		return items, animeChildren(items), nil
	case types.KindGenres:
		genres, err := e.extractor.GenreList(body)
		if err != nil {
			return nil, nil, err
		}
		return genres, nil, nil
	case types.KindSchedule:
		days, err := e.extractor.Schedule(body)
		if err != nil {
			return nil, nil, err
		}
		return days, nil, nil
	case types.KindAnime:
		detail, err := e.extractor.AnimeDetail(body, item.ID)
		if err != nil {
			return nil, nil, err
		}
		return detail, episodeChildren(detail), nil
	case types.KindEpisode:
		detail, err := e.extractor.EpisodeDetail(body, item.ID)
		if err != nil {
			return nil, nil, err
		}
		return detail, nil, nil
	}
	return nil, nil, fmt.Errorf("no extractor for kind %q", item.Kind)
}

// mineStored re-derives child work items from an already persisted record.
func (e *Engine) mineStored(item types.WorkItem) ([]types.WorkItem, error) {
	switch item.Kind {
	case types.KindHome, types.KindOngoing:
		var items []types.ListItem
		if err := e.store.Load(item.Kind, item.ID, &items); err != nil {
			return nil, err
		}
		return animeChildren(items), nil
	case types.KindAnime:
		var detail types.AnimeDetail
		if err := e.store.Load(item.Kind, item.ID, &detail); err != nil {
			return nil, err
		}
		return episodeChildren(&detail), nil
	default:
		var ignored any
		if err := e.store.Load(item.Kind, item.ID, &ignored); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func (e *Engine) finish(ctx context.Context, item types.WorkItem, o itemOutcome) {
	e.front.MarkDone(item)

	e.mu.Lock()
	e.summary.add(item.Kind, o.status)
	e.mu.Unlock()

	if err := e.ledger.RecordItem(ctx, e.runID, item, o.status, o.attempts, o.reason); err != nil {
		e.logger.Warn("ledger write failed", "item", item.String(), "error", err)
	}

	if o.status == ledger.OutcomeFailed {
		e.logger.Warn("item failed",
			"kind", item.Kind.String(), "id", item.ID,
			"attempts", o.attempts, "reason", o.reason,
		)
		return
	}
	e.logger.Info("item processed",
		"kind", item.Kind.String(), "id", item.ID,
		"outcome", o.status, "attempts", o.attempts,
	)
}

func (e *Engine) snapshot() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary.clone()
}

func (e *Engine) batchSize() int {
	n := e.cfg.Worker.Concurrency * 4
	if n < 16 {
		n = 16
	}
	return n
}

func animeChildren(items []types.ListItem) []types.WorkItem {
	children := make([]types.WorkItem, 0, len(items))
	for _, it := range items {
		if it.Slug == "" {
			continue
		}
		children = append(children, types.WorkItem{Kind: types.KindAnime, ID: it.Slug})
	}
	return children
}

func episodeChildren(detail *types.AnimeDetail) []types.WorkItem {
	children := make([]types.WorkItem, 0, len(detail.Episodes))
	for _, ep := range detail.Episodes {
		slug := ep.Slug
		if slug == "" {
			slug = types.SlugFromURL(ep.Link)
		}
		if slug == "" {
			continue
		}
		children = append(children, types.WorkItem{Kind: types.KindEpisode, ID: slug})
	}
	return children
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}
