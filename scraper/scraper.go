package scraper

import (
	"context"
	"fmt"
)

// Scraper is the browser automation layer. Every Load opens a fresh page in
// the same session; pages stay alive until Close.
type Scraper interface {
	// Load navigates a new page to url, waits for the article rows and
	// returns the rendered HTML
	Load(ctx context.Context, url string) (string, error)
	// Close releases every page and the session itself
	Close() error
}

// Error reports a failed automation step
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
