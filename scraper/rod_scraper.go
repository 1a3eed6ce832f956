package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hn-order-checker/parser"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodOptions controls how the browser is launched
type RodOptions struct {
	Headless    bool
	Bin         string // Browser binary, looked up on the system when empty
	PageTimeout time.Duration
}

// browserProcess is the launched browser binary, *launcher.Launcher in practice
type browserProcess interface {
	Kill()
	Cleanup()
}

// RodScraper implements the Scraper interface using rod (headless browser)
type RodScraper struct {
	browser *rod.Browser
	process browserProcess
	pages   []*rod.Page
	timeout time.Duration
	logger  *slog.Logger
}

// NewRodScraper launches a browser and connects to it
func NewRodScraper(opts RodOptions, logger *slog.Logger) (*RodScraper, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("mute-audio")

	// Prefer an installed Chrome/Chromium, otherwise rod downloads one
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, &Error{Op: "launch browser", Err: err}
	}

	browser := rod.New().ControlURL(browserURL)
	if err := connectOrKill(browser.Connect, l); err != nil {
		return nil, err
	}

	logger.Debug("browser started", "control_url", browserURL, "headless", opts.Headless)

	return &RodScraper{
		browser: browser,
		process: l,
		timeout: opts.PageTimeout,
		logger:  logger,
	}, nil
}

// connectOrKill connects to a freshly launched browser. Leakless is off, so
// a browser we cannot talk to has to be killed here or it outlives us.
func connectOrKill(connect func() error, process browserProcess) error {
	if err := connect(); err != nil {
		process.Kill()
		process.Cleanup()
		return &Error{Op: "connect to browser", Err: err}
	}
	return nil
}

// Load implements the Scraper interface
func (rs *RodScraper) Load(ctx context.Context, url string) (string, error) {
	page, err := rs.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", &Error{Op: "open page", URL: url, Err: err}
	}
	// Kept open until Close so every visited page can be inspected
	rs.pages = append(rs.pages, page)

	p := page.Context(ctx).Timeout(rs.timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return "", &Error{Op: "navigate", URL: url, Err: err}
	}

	if _, err := p.Element(parser.ArticleSelector); err != nil {
		return "", &Error{Op: "wait for articles", URL: url, Err: err}
	}

	html, err := p.HTML()
	if err != nil {
		return "", &Error{Op: "read HTML", URL: url, Err: err}
	}

	rs.logger.Debug("page loaded", "url", url, "open_pages", len(rs.pages), "html_bytes", len(html))

	return html, nil
}

// Close closes every opened page and the browser, then removes the
// browser's user data directory
func (rs *RodScraper) Close() error {
	var errs []error
	for _, page := range rs.pages {
		if err := page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rs.pages = nil

	if rs.browser != nil {
		if err := rs.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			// Cleanup waits for the process to exit
			if rs.process != nil {
				rs.process.Kill()
			}
		}
		rs.browser = nil
	}

	if rs.process != nil {
		rs.process.Cleanup()
		rs.process = nil
	}

	return errors.Join(errs...)
}
