package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccr-registry-scraper/internal/checkpoint"
	"ccr-registry-scraper/internal/config"
	"ccr-registry-scraper/internal/observability"
	"ccr-registry-scraper/internal/scraper"
	"ccr-registry-scraper/internal/storage/sheet"
)

// fakePage serves one results table per page. Advancing past the last page
// fails the way a disabled next control does.
type fakePage struct {
	pages     [][]string
	current   int
	banner    string
	searchErr error
	onTable   func(page int)
}

func (p *fakePage) Open(context.Context) error { return nil }

func (p *fakePage) Search(context.Context) error { return p.searchErr }

func (p *fakePage) PageText(context.Context) (string, error) { return p.banner, nil }

func (p *fakePage) TableHTML(context.Context) (string, error) {
	if p.onTable != nil {
		p.onTable(p.current + 1)
	}

	var b strings.Builder
	b.WriteString("<table><tr><td><input/></td></tr><tr><th>رقم التسجيل</th></tr>")
	for _, key := range p.pages[p.current] {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>عمان</td><td>01/01/2020</td></tr>", key)
	}
	b.WriteString("</table>")
	return b.String(), nil
}

func (p *fakePage) NextStrategies() []scraper.NextStrategy {
	return []scraper.NextStrategy{
		{Name: "direct", Attempt: func(context.Context) (bool, error) {
			return false, errors.New("element not found")
		}},
		{Name: "label", Attempt: func(context.Context) (bool, error) {
			return false, nil
		}},
		{Name: "script", Attempt: func(context.Context) (bool, error) {
			if p.current+1 >= len(p.pages) {
				return false, nil
			}
			p.current++
			return true, nil
		}},
	}
}

func rows(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PageLoadDelayMS = 0
	cfg.SettleDelayMS = 0
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Format = "csv"
	return cfg
}

func newTestOrchestrator(cfg *config.Config, page Page) *Orchestrator {
	logger := observability.NewNop()
	return NewOrchestrator(
		cfg,
		logger,
		page,
		scraper.NewScraper(scraper.DefaultSelectors(), nil),
		checkpoint.NewWriter(cfg, logger, nil),
	)
}

func savedFiles(t *testing.T, cfg *config.Config, pattern string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(cfg.Output.Dir, pattern))
	require.NoError(t, err)
	return files
}

func TestExecuteWalksAllPages(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{pages: [][]string{rows("a", 5), rows("b", 5), rows("c", 5)}}
	state := NewRunState()

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.PagesVisited)
	assert.Equal(t, 15, stats.TotalRecords)
	assert.Equal(t, 2, stats.NavigationStrategiesUsed["script"])
	assert.Zero(t, stats.NavigationStrategiesUsed["direct"])
	assert.Contains(t, stats.StoppedReason, "no next page")

	require.NotNil(t, stats.Final)
	assert.Equal(t, checkpoint.KindFinal, stats.Final.Kind)
	assert.Equal(t, 15, stats.Final.Rows)
	assert.Len(t, savedFiles(t, cfg, "ccr_final_*.csv"), 1)
}

func TestExecuteRecoversFromSingleEmptyPage(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{pages: [][]string{rows("a", 2), nil, rows("c", 2)}}
	state := NewRunState()

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.PagesVisited)
	assert.Equal(t, 1, stats.EmptyPages)
	assert.Equal(t, 1, stats.PeakConsecutiveFailures)
	assert.Zero(t, state.ConsecutiveFailures)
	assert.Equal(t, 4, stats.TotalRecords)
}

func TestExecuteStopsAfterConsecutiveEmptyPages(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{pages: [][]string{rows("a", 1), nil, nil, nil, rows("e", 1)}}
	state := NewRunState()

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.PagesVisited)
	assert.Equal(t, 3, stats.PeakConsecutiveFailures)
	assert.Contains(t, stats.StoppedReason, "3 consecutive empty pages")
	assert.Equal(t, 1, stats.TotalRecords)
	assert.Len(t, savedFiles(t, cfg, "ccr_final_*.csv"), 1)
}

func TestExecuteStopsWhenNoStrategyWorks(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{
		pages:  [][]string{rows("a", 3)},
		banner: "الصفحة 1 من (المجموع) 5",
	}

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), NewRunState())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalPagesReported)
	assert.Equal(t, 1, stats.PagesVisited)
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Contains(t, stats.StoppedReason, "no next page control at page 1")
}

func TestExecuteHonorsPageBudget(t *testing.T) {
	tests := []struct {
		name     string
		all      bool
		maxPages int
		want     int
	}{
		{"max pages", true, 2, 2},
		{"first page only", false, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Pagination.ScrapeAllPages = tt.all
			cfg.Pagination.MaxPages = tt.maxPages
			page := &fakePage{pages: [][]string{rows("a", 1), rows("b", 1), rows("c", 1)}}

			stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), NewRunState())
			require.NoError(t, err)

			assert.Equal(t, tt.want, stats.PagesVisited)
			assert.Equal(t, tt.want, stats.TotalRecords)
			assert.Contains(t, stats.StoppedReason, "reached max pages")
		})
	}
}

func TestExecuteWritesPeriodicCheckpoints(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pagination.CheckpointInterval = 10

	pages := make([][]string, 25)
	for i := range pages {
		pages[i] = []string{fmt.Sprintf("%d", 1000+i)}
	}
	page := &fakePage{pages: pages}

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), NewRunState())
	require.NoError(t, err)

	assert.Equal(t, 25, stats.PagesVisited)
	require.Len(t, stats.Checkpoints, 2)
	assert.Len(t, savedFiles(t, cfg, "ccr_checkpoint_page10_*.csv"), 1)
	assert.Len(t, savedFiles(t, cfg, "ccr_checkpoint_page20_*.csv"), 1)
	assert.Len(t, savedFiles(t, cfg, "ccr_final_*.csv"), 1)

	checkpointRows, err := sheet.Read(savedFiles(t, cfg, "ccr_checkpoint_page10_*.csv")[0])
	require.NoError(t, err)
	assert.Len(t, checkpointRows, 11)
}

func TestExecuteSavesInterruptedRun(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	page := &fakePage{pages: [][]string{rows("a", 2), rows("b", 2), rows("c", 2)}}
	page.onTable = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	stats, err := newTestOrchestrator(cfg, page).Execute(ctx, NewRunState())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, stats.Final)
	assert.Equal(t, checkpoint.KindInterrupted, stats.Final.Kind)
	assert.Equal(t, 2, stats.Final.Rows)

	files := savedFiles(t, cfg, "ccr_interrupted_page2_*.csv")
	require.Len(t, files, 1)
	assert.Empty(t, savedFiles(t, cfg, "ccr_final_*.csv"))
}

func TestExecuteSavesOnPanic(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{pages: [][]string{rows("a", 2), rows("b", 2), rows("c", 2)}}
	page.onTable = func(n int) {
		if n == 3 {
			panic("target crashed")
		}
	}

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), NewRunState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic at page 3")

	require.NotNil(t, stats.Final)
	assert.Equal(t, checkpoint.KindError, stats.Final.Kind)
	assert.Equal(t, 4, stats.Final.Rows)
	assert.Len(t, savedFiles(t, cfg, "ccr_error_page3_*.csv"), 1)
}

func TestExecuteSearchFailureSavesNothing(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{pages: [][]string{rows("a", 1)}, searchErr: errors.New("search button not clickable")}

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), NewRunState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search button")
	assert.Equal(t, "search failed", stats.StoppedReason)
	assert.Nil(t, stats.Final)
	assert.Empty(t, savedFiles(t, cfg, "*.csv"))
}

func TestExecuteDeduplicatesAcrossPages(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{pages: [][]string{{"1", "2"}, {"2", "3"}}}

	stats, err := newTestOrchestrator(cfg, page).Execute(context.Background(), NewRunState())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalRecords)
	require.NotNil(t, stats.Final)
	assert.Equal(t, 3, stats.Final.Rows)

	saved, err := sheet.Read(stats.Final.File)
	require.NoError(t, err)
	require.Len(t, saved, 4)
	assert.Equal(t, "1", saved[1][0])
	assert.Equal(t, "2", saved[2][0])
	assert.Equal(t, "3", saved[3][0])
}

func TestSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), 0))
}
