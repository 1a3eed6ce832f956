package scraper

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyScraper implements the Scraper interface with plain HTTP requests.
// It serves environments without a browser; the listing is server rendered
// so the HTML matches what the browser sees.
type CollyScraper struct {
	collector *colly.Collector
	transport *contextTransport
}

// NewCollyScraper creates a new CollyScraper instance
func NewCollyScraper(timeout, delay time.Duration) *CollyScraper {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	transport := &contextTransport{base: http.DefaultTransport}
	c.WithTransport(transport)

	// One request at a time, spaced out to stay under the site's rate limit
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	})

	return &CollyScraper{
		collector: c,
		transport: transport,
	}
}

// Load implements the Scraper interface. Canceling ctx aborts the request
// in flight.
func (cs *CollyScraper) Load(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: "navigate", URL: url, Err: err}
	}

	cs.transport.setContext(ctx)
	defer cs.transport.setContext(nil)

	// Clone shares the HTTP backend and limits but not the callbacks
	c := cs.collector.Clone()

	var body string
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	if err := c.Visit(url); err != nil {
		return "", &Error{Op: "navigate", URL: url, Err: err}
	}

	return body, nil
}

// Close implements the Scraper interface; there is nothing to release
func (cs *CollyScraper) Close() error {
	return nil
}

// contextTransport ties every request to the context of the Load in flight.
// colly builds its requests without one.
type contextTransport struct {
	base http.RoundTripper
	mu   sync.Mutex
	ctx  context.Context
}

func (t *contextTransport) setContext(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx = ctx
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	if ctx == nil {
		return t.base.RoundTrip(req)
	}

	// Keep the client's own deadline and add ours on top
	reqCtx, cancel := context.WithCancel(req.Context())
	stop := context.AfterFunc(ctx, cancel)
	release := func() {
		stop()
		cancel()
	}

	resp, err := t.base.RoundTrip(req.WithContext(reqCtx))
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releaseOnClose{ReadCloser: resp.Body, release: release}
	return resp, nil
}

type releaseOnClose struct {
	io.ReadCloser
	release func()
}

func (r *releaseOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.release()
	return err
}
