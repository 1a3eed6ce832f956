// Package hntest renders synthetic Hacker News listing pages and serves them
// through an in-memory scraper for tests.
package hntest

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"
	"time"

	"hn-order-checker/config"
)

// Row describes one article row of a rendered listing
type Row struct {
	ID           string
	Title        string
	Timestamp    string
	RelativeTime string
	NoTitle      bool // Omit the title link
	NoAge        bool // Omit the age indicator
}

// FormatTimestamp renders t the way the age indicator's title attribute does
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s %d", t.Format("2006-01-02T15:04:05"), t.Unix())
}

// Rows builds count rows whose timestamps start at base and move by step per row
func Rows(count int, base time.Time, step time.Duration) []Row {
	rows := make([]Row, count)
	for i := range rows {
		rows[i] = Row{
			ID:           fmt.Sprintf("%d", 40000000-i),
			Title:        fmt.Sprintf("Article %d", i),
			Timestamp:    FormatTimestamp(base.Add(time.Duration(i) * step)),
			RelativeTime: fmt.Sprintf("%d minutes ago", i),
		}
	}
	return rows
}

// RenderPage renders rows as a listing page. An empty moreHref omits the
// "more" link.
func RenderPage(rows []Row, moreHref string) string {
	var b strings.Builder
	b.WriteString("<html><body><table class=\"itemlist\">\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr class=\"athing submission\" id=\"%s\"><td class=\"title\"><span class=\"titleline\">", html.EscapeString(r.ID))
		if !r.NoTitle {
			fmt.Fprintf(&b, "<a href=\"https://example.com/%s\">%s</a>", html.EscapeString(r.ID), html.EscapeString(r.Title))
		}
		b.WriteString("</span></td></tr>\n<tr><td class=\"subtext\"><span class=\"subline\">")
		if !r.NoAge {
			fmt.Fprintf(&b, "<span class=\"age\" title=\"%s\"><a href=\"item?id=%s\">%s</a></span>",
				html.EscapeString(r.Timestamp), html.EscapeString(r.ID), html.EscapeString(r.RelativeTime))
		}
		b.WriteString("</span></td></tr>\n<tr class=\"spacer\"></tr>\n")
	}
	if moreHref != "" {
		fmt.Fprintf(&b, "<tr><td class=\"title\"><a href=\"%s\" class=\"morelink\" rel=\"next\">More</a></td></tr>\n", html.EscapeString(moreHref))
	}
	b.WriteString("</table></body></html>\n")
	return b.String()
}

// Site is an in-memory listing keyed by absolute URL
type Site struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	loaded []string
	closed bool
}

// NewSite splits rows into pages of the given sizes. The first page is served
// at config.NewestURL and each page links to the next one; the last page has
// no "more" link unless moreOnLast is set.
func NewSite(rows []Row, sizes []int, moreOnLast bool) *Site {
	s := &Site{pages: map[string]string{}, errs: map[string]error{}}
	pageURL := config.NewestURL
	offset := 0
	for i, size := range sizes {
		chunk := rows[offset : offset+size]
		offset += size

		moreHref := ""
		if i < len(sizes)-1 || moreOnLast {
			moreHref = fmt.Sprintf("newest?next=%s&n=%d", chunk[len(chunk)-1].ID, offset+1)
		}
		s.pages[pageURL] = RenderPage(chunk, moreHref)

		if moreHref != "" {
			pageURL = resolve(moreHref)
		}
	}
	return s
}

// SetPage serves body at rawURL
func (s *Site) SetPage(rawURL, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[rawURL] = body
}

// FailOn makes loading rawURL return err
func (s *Site) FailOn(rawURL string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[rawURL] = err
}

// Load implements scraper.Scraper
func (s *Site) Load(ctx context.Context, rawURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.loaded = append(s.loaded, rawURL)
	if err, ok := s.errs[rawURL]; ok {
		return "", err
	}
	page, ok := s.pages[rawURL]
	if !ok {
		return "", fmt.Errorf("404: %s", rawURL)
	}
	return page, nil
}

// Close implements scraper.Scraper
func (s *Site) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Loaded returns the URLs requested so far, in order
func (s *Site) Loaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.loaded...)
}

// Closed reports whether Close was called
func (s *Site) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func resolve(href string) string {
	base, _ := url.Parse(config.BaseURL)
	ref, _ := url.Parse(href)
	return base.ResolveReference(ref).String()
}
