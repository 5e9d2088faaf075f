package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"ccr-registry-scraper/internal/config"
	"ccr-registry-scraper/internal/observability"
	"ccr-registry-scraper/internal/scraper"
)

// Session owns the browser process and the single registry tab for the
// lifetime of a run. Close must be called on every exit path.
type Session struct {
	cfg       *config.Config
	selectors *scraper.Selectors
	logger    *observability.Logger
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
}

// Launch starts Chromium and opens a blank tab.
func Launch(cfg *config.Config, selectors *scraper.Selectors, logger *observability.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Rod.Headless).
		NoSandbox(cfg.Rod.NoSandbox)

	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	// hide the automation banner and navigator.webdriver
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("start-maximized"))
	l.Set(flags.Flag("disable-dev-shm-usage"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	logger.Info("Browser launched", "control_url", controlURL, "headless", cfg.Rod.Headless)

	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		selectors: selectors,
		logger:    logger,
		launcher:  l,
		browser:   browser,
	}

	if cfg.Rod.Stealth {
		s.page, err = stealth.Page(browser)
	} else {
		s.page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return s, nil
}

// Open navigates to the registry home page and waits for it to load.
func (s *Session) Open(ctx context.Context) error {
	p := s.page.Context(ctx).Timeout(s.cfg.GetWaitTimeout())

	if err := p.Navigate(s.cfg.URL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", s.cfg.URL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}

	s.logger.Info("Page loaded", "url", s.cfg.URL)
	return nil
}

// Search clicks the search control with empty criteria, which lists every
// registered company.
func (s *Session) Search(ctx context.Context) error {
	p := s.page.Context(ctx).Timeout(s.cfg.GetWaitTimeout())

	btn, err := p.Element(idSelector(s.selectors.SearchButtonID))
	if err != nil {
		return fmt.Errorf("search button %q not found: %w", s.selectors.SearchButtonID, err)
	}
	if err := btn.WaitEnabled(); err != nil {
		return fmt.Errorf("search button not clickable: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click search button: %w", err)
	}

	s.logger.Info("Search button clicked")
	return nil
}

// TableHTML returns the outer HTML of the results table.
func (s *Session) TableHTML(ctx context.Context) (string, error) {
	els, err := s.page.Context(ctx).Elements(idSelector(s.selectors.ResultsTableID))
	if err != nil {
		return "", fmt.Errorf("failed to query results table: %w", err)
	}
	if len(els) == 0 {
		return "", fmt.Errorf("results table %q: %w", s.selectors.ResultsTableID, errNotFound)
	}

	html, err := els.First().HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read results table: %w", err)
	}
	return html, nil
}

// PageText returns the pagination banner line, or the rendered text of the
// whole page when no line carries the banner marker.
func (s *Session) PageText(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return bannerLine(res.Value.String(), s.selectors.PaginationMarker), nil
}

func bannerLine(text, marker string) string {
	if marker == "" {
		return text
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, marker) {
			return strings.TrimSpace(line)
		}
	}
	return text
}

// NextStrategies returns the ordered next-page fallback chain for this tab.
func (s *Session) NextStrategies() []scraper.NextStrategy {
	return nextStrategies(&rodDOM{page: s.page}, s.selectors)
}

// Close releases the tab, the browser and its user-data directory.
func (s *Session) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.logger.Debug("Failed to close page", "error", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("Failed to close browser", "error", err)
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.logger.Info("Browser closed")
}

// idSelector matches an element by ID. ADF IDs contain ':' and cannot be
// used with a plain '#' selector.
func idSelector(id string) string {
	return fmt.Sprintf(`[id=%q]`, id)
}

// rodDOM adapts a rod page to dom. Lookups do not wait: the caller has
// already let the page settle.
type rodDOM struct {
	page *rod.Page
}

func (d *rodDOM) ElementByID(ctx context.Context, id string) (element, error) {
	els, err := d.page.Context(ctx).Elements(idSelector(id))
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, errNotFound
	}
	return els.First(), nil
}

func (d *rodDOM) Elements(ctx context.Context, selector string) ([]element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (d *rodDOM) EvalBool(ctx context.Context, js string, args ...interface{}) (bool, error) {
	res, err := d.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
