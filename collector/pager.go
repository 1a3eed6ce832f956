package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"hn-order-checker/models"
	"hn-order-checker/parser"
	"hn-order-checker/scraper"
)

// ErrNoMorePages is returned when the listing ends before enough articles
// were collected
var ErrNoMorePages = errors.New("could not find more articles")

// Pager walks the listing one page at a time by following the "more" link
type Pager struct {
	scraper  scraper.Scraper
	parser   *parser.Parser
	base     *url.URL
	start    string
	moreHref string // Raw "more" link of the last page, resolved only when needed
	started  bool
	pageNum  int
	articles int
}

// NewPager creates a Pager starting at startURL. Pagination links are
// resolved against baseURL.
func NewPager(s scraper.Scraper, baseURL, startURL string) (*Pager, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &Pager{
		scraper: s,
		parser:  parser.NewParser(),
		base:    base,
		start:   startURL,
	}, nil
}

// PageNum returns the number of pages loaded so far
func (p *Pager) PageNum() int {
	return p.pageNum
}

// Next loads the next page and returns its articles, indexed after every
// article returned before
func (p *Pager) Next(ctx context.Context) ([]models.Article, error) {
	pageURL, err := p.nextURL()
	if err != nil {
		return nil, err
	}
	p.started = true

	html, err := p.scraper.Load(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page, err := p.parser.ParseHTML(html, p.articles)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %d (%s): %w", p.pageNum+1, pageURL, err)
	}

	p.moreHref = page.MoreHref
	p.pageNum++
	p.articles += len(page.Articles)

	return page.Articles, nil
}

func (p *Pager) nextURL() (string, error) {
	if !p.started {
		return p.start, nil
	}
	if p.moreHref == "" {
		return "", ErrNoMorePages
	}

	ref, err := url.Parse(p.moreHref)
	if err != nil {
		return "", fmt.Errorf("invalid more link %q: %w", p.moreHref, err)
	}
	return p.base.ResolveReference(ref).String(), nil
}
