package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hn-order-checker/collector"
	"hn-order-checker/config"
	"hn-order-checker/hntest"
	"hn-order-checker/models"
	"hn-order-checker/parser"
	"hn-order-checker/scraper"
	"hn-order-checker/validator"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions(t *testing.T, out *bytes.Buffer) Options {
	t.Helper()
	return Options{
		BaseURL:     config.BaseURL,
		StartURL:    config.NewestURL,
		Target:      config.TargetCount,
		ResultsPath: filepath.Join(t.TempDir(), config.ResultsPath),
		Policy:      validator.PolicyError,
		Out:         out,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func readResults(t *testing.T, path string) []models.Article {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var articles []models.Article
	require.NoError(t, json.Unmarshal(data, &articles))
	return articles
}

func TestRunOrdered(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	site := hntest.NewSite(hntest.Rows(120, base, -time.Hour), []int{30, 30, 30, 30}, false)

	outcome, err := Run(context.Background(), opts, site)
	require.NoError(t, err)
	require.True(t, outcome.Result.Ordered)
	require.Equal(t, -1, outcome.Result.ViolationIndex)
	require.Equal(t, 100, outcome.Result.Total)
	require.True(t, site.Closed())
	require.False(t, outcome.LeftOpen)

	require.Contains(t, out.String(), "Total articles checked: 100\n")
	require.Contains(t, out.String(), "(newest to oldest): true\n")
	require.NotContains(t, out.String(), "violation")

	saved := readResults(t, opts.ResultsPath)
	require.Len(t, saved, 100)
	for i, a := range saved {
		require.Equal(t, i, a.Index)
	}
}

func TestRunReportsFirstViolation(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	rows := hntest.Rows(100, base, -time.Hour)
	rows[57].Timestamp = hntest.FormatTimestamp(base.Add(time.Hour))
	site := hntest.NewSite(rows, []int{30, 30, 30, 10}, false)

	outcome, err := Run(context.Background(), opts, site)
	require.NoError(t, err)
	require.False(t, outcome.Result.Ordered)
	require.Equal(t, 57, outcome.Result.ViolationIndex)

	require.Contains(t, out.String(), "First ordering violation at index 57:\n")
	require.Contains(t, out.String(), fmt.Sprintf("Article 56: \"Article 56\"\nPosted: %s\n", rows[56].Timestamp))
	require.Contains(t, out.String(), fmt.Sprintf("Article 57: \"Article 57\"\nPosted: %s\n", rows[57].Timestamp))

	require.Len(t, readResults(t, opts.ResultsPath), 100)
}

func TestRunPaginationExhausted(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	site := hntest.NewSite(hntest.Rows(40, base, -time.Hour), []int{30, 10}, false)

	outcome, err := Run(context.Background(), opts, site)
	require.Nil(t, outcome)
	require.ErrorIs(t, err, collector.ErrNoMorePages)
	require.Equal(t, FailurePaginationExhausted, Classify(err))
	require.True(t, site.Closed())
	require.Empty(t, out.String())

	_, statErr := os.Stat(opts.ResultsPath)
	require.True(t, errors.Is(statErr, os.ErrNotExist), "no results file on failure")
}

func TestRunTwoPagesExactFit(t *testing.T) {
	var out bytes.Buffer
	site := hntest.NewSite(hntest.Rows(100, base, -time.Hour), []int{60, 40}, false)

	outcome, err := Run(context.Background(), testOptions(t, &out), site)
	require.NoError(t, err)
	require.Len(t, outcome.Articles, 100)
	require.Len(t, site.Loaded(), 2)
}

func TestRunSinglePageOverflow(t *testing.T) {
	var out bytes.Buffer
	rows := hntest.Rows(150, base, -time.Hour)
	site := hntest.NewSite(rows, []int{150}, true)

	outcome, err := Run(context.Background(), testOptions(t, &out), site)
	require.NoError(t, err)
	require.Len(t, outcome.Articles, 100)
	require.Equal(t, rows[99].ID, outcome.Articles[99].ID)
	require.Equal(t, []string{config.NewestURL}, site.Loaded())
}

func TestRunIsIdempotent(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	rows := hntest.Rows(100, base, -time.Minute)

	_, err := Run(context.Background(), opts, hntest.NewSite(rows, []int{30, 30, 30, 10}, false))
	require.NoError(t, err)
	first, err := os.ReadFile(opts.ResultsPath)
	require.NoError(t, err)

	_, err = Run(context.Background(), opts, hntest.NewSite(rows, []int{30, 30, 30, 10}, false))
	require.NoError(t, err)
	second, err := os.ReadFile(opts.ResultsPath)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRunKeepOpen(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	opts.KeepOpen = true

	site := hntest.NewSite(hntest.Rows(100, base, -time.Hour), []int{100}, false)
	outcome, err := Run(context.Background(), opts, site)
	require.NoError(t, err)
	require.True(t, outcome.LeftOpen)
	require.False(t, site.Closed(), "left open for inspection")

	failing := hntest.NewSite(hntest.Rows(10, base, -time.Hour), []int{10}, false)
	_, err = Run(context.Background(), opts, failing)
	require.Error(t, err)
	require.True(t, failing.Closed(), "always released on failure")
}

func TestRunUnparseableTimestamp(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	rows := hntest.Rows(100, base, -time.Hour)
	rows[12].NoAge = true

	_, err := Run(context.Background(), opts, hntest.NewSite(rows, []int{100}, false))
	var tsErr *validator.TimestampError
	require.ErrorAs(t, err, &tsErr)
	require.Equal(t, 12, tsErr.Index)
	require.Equal(t, FailureUnparseableTimestamp, Classify(err))

	_, statErr := os.Stat(opts.ResultsPath)
	require.True(t, errors.Is(statErr, os.ErrNotExist))

	opts.Policy = validator.PolicySkip
	outcome, err := Run(context.Background(), opts, hntest.NewSite(rows, []int{100}, false))
	require.NoError(t, err)
	require.True(t, outcome.Result.Ordered)
}

func TestRunAutomationFailure(t *testing.T) {
	var out bytes.Buffer
	site := hntest.NewSite(hntest.Rows(100, base, -time.Hour), []int{100}, false)
	site.FailOn(config.NewestURL, &scraper.Error{Op: "navigate", URL: config.NewestURL, Err: errors.New("net::ERR_NAME_NOT_RESOLVED")})

	_, err := Run(context.Background(), testOptions(t, &out), site)
	require.Equal(t, FailureAutomation, Classify(err))
	require.True(t, site.Closed())
}

func TestRunSaveFailure(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, &out)
	opts.ResultsPath = filepath.Join(t.TempDir(), "missing", "results.json")

	_, err := Run(context.Background(), opts, hntest.NewSite(hntest.Rows(100, base, -time.Hour), []int{100}, false))
	require.Equal(t, FailureIO, Classify(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"pagination", fmt.Errorf("collection failed: %w", collector.ErrNoMorePages), FailurePaginationExhausted},
		{"page timeout", &scraper.Error{Op: "wait for articles", Err: context.DeadlineExceeded}, FailureAutomation},
		{"empty page", fmt.Errorf("page 1: %w", parser.ErrNoArticles), FailureAutomation},
		{"timestamp", &validator.TimestampError{Index: 3}, FailureUnparseableTimestamp},
		{"io", &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, FailureIO},
		{"interrupted", fmt.Errorf("collected 0 of 100 articles: %w", context.Canceled), FailureCanceled},
		{"interrupted navigation", &scraper.Error{Op: "navigate", Err: context.Canceled}, FailureCanceled},
		{"other", errors.New("boom"), FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
