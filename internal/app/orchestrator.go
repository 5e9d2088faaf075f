package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ccr-registry-scraper/internal/checkpoint"
	"ccr-registry-scraper/internal/config"
	"ccr-registry-scraper/internal/observability"
	"ccr-registry-scraper/internal/scraper"
)

// Page is the registry search UI as rendered in the browser.
type Page interface {
	Open(ctx context.Context) error
	Search(ctx context.Context) error
	TableHTML(ctx context.Context) (string, error)
	PageText(ctx context.Context) (string, error)
	NextStrategies() []scraper.NextStrategy
}

type Orchestrator struct {
	cfg     *config.Config
	logger  *observability.Logger
	page    Page
	scraper *scraper.Scraper
	writer  *checkpoint.Writer
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	page Page,
	s *scraper.Scraper,
	w *checkpoint.Writer,
) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		logger:  logger,
		page:    page,
		scraper: s,
		writer:  w,
	}
}

type PaginationStats struct {
	PagesVisited             int
	EmptyPages               int
	TotalRecords             int
	PeakConsecutiveFailures  int
	Checkpoints              []string
	StoppedReason            string
	Final                    *checkpoint.Report
	TotalPagesReported       int
	NavigationStrategiesUsed map[string]int
}

// Execute runs the whole scrape and always ends with one terminal save:
// final on normal completion, interrupted when ctx was cancelled, error on
// any other failure.
func (o *Orchestrator) Execute(ctx context.Context, state *RunState) (*PaginationStats, error) {
	stats, runErr := o.Run(ctx, state)

	kind := checkpoint.KindFinal
	switch {
	case ctx.Err() != nil:
		kind = checkpoint.KindInterrupted
	case runErr != nil:
		kind = checkpoint.KindError
		o.logger.Error("Scrape failed, saving collected data",
			"page", state.Page,
			"error", runErr,
		)
	}

	report, saveErr := o.writer.Save(ctx, kind, state.Snapshot())
	stats.Final = report
	if saveErr != nil {
		o.logger.Error("Failed to save data", "kind", string(kind), "error", saveErr)
	}

	o.logger.Info("Scrape finished",
		"run_id", state.ID,
		"kind", string(kind),
		"pages_visited", stats.PagesVisited,
		"records", stats.TotalRecords,
		"reason", stats.StoppedReason,
		"elapsed", time.Since(state.Started).Round(time.Second),
	)

	if kind == checkpoint.KindInterrupted {
		runErr = ctx.Err()
	}
	return stats, errors.Join(runErr, saveErr)
}

// Run opens the registry, submits the empty search and pages through the
// results until the budget is spent, no next control works, or too many
// consecutive pages come back empty. Panics are returned as errors.
func (o *Orchestrator) Run(ctx context.Context, state *RunState) (stats *PaginationStats, err error) {
	stats = &PaginationStats{NavigationStrategiesUsed: map[string]int{}}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic at page %d: %v", state.Page, r)
			stats.StoppedReason = "panic"
		}
		stats.TotalRecords = len(state.Records)
	}()

	if err := o.start(ctx, stats); err != nil {
		stats.StoppedReason = "search failed"
		return stats, err
	}

	budget := o.cfg.PageBudget()
	threshold := o.cfg.Pagination.MaxConsecutiveFailures
	interval := o.cfg.Pagination.CheckpointInterval

	o.logger.Info("Starting pagination",
		"run_id", state.ID,
		"max_pages", budget,
		"checkpoint_interval", interval,
		"failure_threshold", threshold,
	)

	for {
		if err := ctx.Err(); err != nil {
			stats.StoppedReason = "interrupted"
			return stats, err
		}

		o.logger.Info("Processing page", "page", state.Page, "max_pages", budget)

		if err := sleep(ctx, o.cfg.GetSettleDelay()); err != nil {
			stats.StoppedReason = "interrupted"
			return stats, err
		}

		records := o.extract(ctx, state.Page)
		if err := ctx.Err(); err != nil {
			stats.StoppedReason = "interrupted"
			return stats, err
		}
		stats.PagesVisited = state.Page

		if len(records) == 0 {
			state.ConsecutiveFailures++
			stats.EmptyPages++
			if state.ConsecutiveFailures > stats.PeakConsecutiveFailures {
				stats.PeakConsecutiveFailures = state.ConsecutiveFailures
			}
			o.logger.Warn("No data on this page",
				"page", state.Page,
				"consecutive_failures", state.ConsecutiveFailures,
				"threshold", threshold,
			)

			if state.ConsecutiveFailures >= threshold {
				stats.StoppedReason = fmt.Sprintf("%d consecutive empty pages at page %d", threshold, state.Page)
				break
			}
		} else {
			state.ConsecutiveFailures = 0
			state.Records = append(state.Records, records...)
			o.logger.Info("Page extracted",
				"page", state.Page,
				"records", len(records),
				"total_records", len(state.Records),
			)
		}

		if interval > 0 && state.Page%interval == 0 {
			o.checkpoint(ctx, state, stats)
		}

		if state.Page >= budget {
			stats.StoppedReason = fmt.Sprintf("reached max pages (%d)", budget)
			break
		}

		name, ok := o.advance(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				stats.StoppedReason = "interrupted"
				return stats, err
			}
			stats.StoppedReason = fmt.Sprintf("no next page control at page %d", state.Page)
			break
		}
		stats.NavigationStrategiesUsed[name]++

		if err := sleep(ctx, o.cfg.GetPageLoadDelay()); err != nil {
			stats.StoppedReason = "interrupted"
			return stats, err
		}
		state.Page++
	}

	o.logger.Info("Pagination completed",
		"pages_visited", stats.PagesVisited,
		"empty_pages", stats.EmptyPages,
		"total_records", len(state.Records),
		"reason", stats.StoppedReason,
	)

	return stats, nil
}

// start loads the home page, runs the empty search and logs the result-set
// size reported by the pagination banner.
func (o *Orchestrator) start(ctx context.Context, stats *PaginationStats) error {
	if err := o.page.Open(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, o.cfg.GetPageLoadDelay()); err != nil {
		return err
	}

	if err := o.page.Search(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, o.cfg.GetPageLoadDelay()); err != nil {
		return err
	}

	text, err := o.page.PageText(ctx)
	if err != nil {
		o.logger.Debug("Pagination banner unavailable", "error", err)
		return nil
	}

	info, ok := scraper.ParsePageInfo(text)
	if !ok {
		return nil
	}
	stats.TotalPagesReported = info.Total

	budget := o.cfg.PageBudget()
	o.logger.Info("Total pages detected", "total_pages", info.Total, "max_pages", budget)
	if budget < info.Total {
		o.logger.Warn("Page budget is below the result set size, only the first pages will be scraped",
			"max_pages", budget,
			"total_pages", info.Total,
		)
	}
	return nil
}

// extract reads the current results table. Failures yield no records.
func (o *Orchestrator) extract(ctx context.Context, page int) []scraper.Record {
	html, err := o.page.TableHTML(ctx)
	if err != nil {
		o.logger.Warn("Failed to read results table", "page", page, "error", err)
		return nil
	}

	records, tableStats, err := o.scraper.ParseTable(html)
	if err != nil {
		o.logger.Warn("Failed to parse results table", "page", page, "error", err)
		return nil
	}

	o.logger.Debug("Results table parsed",
		"page", page,
		"rows", tableStats.TotalRows,
		"valid", tableStats.Valid,
		"invalid", tableStats.Invalid,
		"malformed", tableStats.Malformed,
	)
	return records
}

// advance tries the next-page strategies in order and stops at the first
// that clicks. Strategy errors are logged and never abort the chain.
func (o *Orchestrator) advance(ctx context.Context) (string, bool) {
	for _, strategy := range o.page.NextStrategies() {
		ok, err := strategy.Attempt(ctx)
		switch {
		case err != nil:
			o.logger.Debug("Next page strategy failed", "strategy", strategy.Name, "error", err)
		case ok:
			o.logger.Debug("Navigated to next page", "strategy", strategy.Name)
			return strategy.Name, true
		default:
			o.logger.Debug("Next page strategy found no control", "strategy", strategy.Name)
		}
		if ctx.Err() != nil {
			return "", false
		}
	}
	return "", false
}

func (o *Orchestrator) checkpoint(ctx context.Context, state *RunState, stats *PaginationStats) {
	report, err := o.writer.Save(ctx, checkpoint.KindCheckpoint, state.Snapshot())
	if err != nil {
		o.logger.Error("Checkpoint failed", "page", state.Page, "error", err)
		return
	}
	if report != nil {
		stats.Checkpoints = append(stats.Checkpoints, report.File)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
