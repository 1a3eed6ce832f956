package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"hn-order-checker/collector"
	"hn-order-checker/models"
	"hn-order-checker/parser"
	"hn-order-checker/report"
	"hn-order-checker/scraper"
	"hn-order-checker/validator"
)

// Options configures a single run
type Options struct {
	BaseURL     string
	StartURL    string
	Target      int
	ResultsPath string
	Policy      validator.Policy
	KeepOpen    bool // Leave the scraper open after a successful run
	Out         io.Writer
	Logger      *slog.Logger
}

// Outcome describes a successful run
type Outcome struct {
	Articles    []models.Article
	Result      validator.Result
	ResultsPath string
	LeftOpen    bool
}

// FailureKind classifies why a run failed
type FailureKind string

const (
	FailurePaginationExhausted  FailureKind = "pagination_exhausted"
	FailureAutomation           FailureKind = "automation"
	FailureUnparseableTimestamp FailureKind = "unparseable_timestamp"
	FailureIO                   FailureKind = "io"
	FailureCanceled             FailureKind = "canceled"
	FailureUnknown              FailureKind = "unknown"
)

// Classify maps an error returned by Run to its kind
func Classify(err error) FailureKind {
	var scrapeErr *scraper.Error
	var tsErr *validator.TimestampError
	var pathErr *fs.PathError

	// A page wait that times out is an automation failure, an interrupted
	// run is not
	switch {
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.As(err, &scrapeErr), errors.Is(err, parser.ErrNoArticles):
		return FailureAutomation
	case errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case errors.Is(err, collector.ErrNoMorePages):
		return FailurePaginationExhausted
	case errors.As(err, &tsErr):
		return FailureUnparseableTimestamp
	case errors.As(err, &pathErr):
		return FailureIO
	default:
		return FailureUnknown
	}
}

// Run collects opts.Target articles through s, checks their order, prints the
// report and saves the articles to opts.ResultsPath. Nothing is saved unless
// collection and validation both succeed. s is always closed on failure.
func Run(ctx context.Context, opts Options, s scraper.Scraper) (out *Outcome, err error) {
	logger := opts.Logger

	defer func() {
		if err == nil && opts.KeepOpen {
			return
		}
		if closeErr := s.Close(); closeErr != nil {
			logger.Warn("Failed to close scraper", "error", closeErr)
		}
	}()

	pager, err := collector.NewPager(s, opts.BaseURL, opts.StartURL)
	if err != nil {
		return nil, err
	}

	logger.Info("Collecting articles", "url", opts.StartURL, "target", opts.Target)

	articles, err := collector.Collect(ctx, pager, opts.Target, logger)
	if err != nil {
		return nil, fmt.Errorf("collection failed: %w", err)
	}

	res, err := validator.CheckOrder(articles, opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	report.Print(opts.Out, articles, res)

	if err := report.Save(opts.ResultsPath, articles); err != nil {
		return nil, err
	}

	logger.Info("Saved results", "path", opts.ResultsPath, "articles", len(articles), "pages", pager.PageNum())

	return &Outcome{
		Articles:    articles,
		Result:      res,
		ResultsPath: opts.ResultsPath,
		LeftOpen:    opts.KeepOpen,
	}, nil
}
