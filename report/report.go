package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"hn-order-checker/models"
	"hn-order-checker/validator"
)

// Print writes the validation summary. On a violation both offending
// articles are listed with their titles and raw timestamps.
func Print(w io.Writer, articles []models.Article, res validator.Result) {
	fmt.Fprintf(w, "\nValidation Results:\n")
	fmt.Fprintf(w, "Total articles checked: %d\n", res.Total)
	fmt.Fprintf(w, "Articles in chronological order (newest to oldest): %t\n", res.Ordered)

	if res.Ordered || res.ViolationIndex < 1 || res.ViolationIndex >= len(articles) {
		return
	}

	prev := articles[res.ViolationIndex-1]
	cur := articles[res.ViolationIndex]
	fmt.Fprintf(w, "\nFirst ordering violation at index %d:\n", res.ViolationIndex)
	fmt.Fprintf(w, "Article %d: \"%s\"\n", res.ViolationIndex-1, prev.Title)
	fmt.Fprintf(w, "Posted: %s\n", prev.Timestamp)
	fmt.Fprintf(w, "Article %d: \"%s\"\n", res.ViolationIndex, cur.Title)
	fmt.Fprintf(w, "Posted: %s\n", cur.Timestamp)
}

// Save writes articles to path as indented JSON, replacing any existing file
func Save(path string, articles []models.Article) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("failed to encode articles: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
