package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hn-order-checker/models"

	"github.com/araddon/dateparse"
)

// ErrUnparseableTimestamp is returned for empty or malformed timestamps
var ErrUnparseableTimestamp = errors.New("unparseable timestamp")

// Policy decides how articles without a usable timestamp take part in the
// ordering check
type Policy string

const (
	// PolicyError aborts the check at the first unparseable timestamp
	PolicyError Policy = "error"
	// PolicySkip treats any pair with an unparseable timestamp as ordered
	PolicySkip Policy = "skip"
	// PolicyOldest treats an unparseable timestamp as older than any other
	PolicyOldest Policy = "oldest"
)

// ParsePolicy validates a policy name
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyError, PolicySkip, PolicyOldest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown missing timestamp policy %q", s)
	}
}

// TimestampError reports the article whose timestamp could not be parsed
type TimestampError struct {
	Index int
	Value string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("unparseable timestamp at index %d: %q", e.Index, e.Value)
}

func (e *TimestampError) Unwrap() error {
	return ErrUnparseableTimestamp
}

// Result is the outcome of an ordering check
type Result struct {
	Total          int
	Ordered        bool
	ViolationIndex int // First index newer than its predecessor, -1 when ordered
}

// CheckOrder verifies that articles run from newest to oldest. Equal
// timestamps are allowed. The scan stops at the first violation.
func CheckOrder(articles []models.Article, policy Policy) (Result, error) {
	res := Result{Total: len(articles), Ordered: true, ViolationIndex: -1}
	if len(articles) == 0 {
		return res, nil
	}

	prev, prevOK, err := instant(articles[0], policy)
	if err != nil {
		return Result{}, err
	}

	for i := 1; i < len(articles); i++ {
		cur, curOK, err := instant(articles[i], policy)
		if err != nil {
			return Result{}, err
		}

		if newer(cur, curOK, prev, prevOK, policy) {
			res.Ordered = false
			res.ViolationIndex = i
			return res, nil
		}

		prev, prevOK = cur, curOK
	}

	return res, nil
}

func instant(a models.Article, policy Policy) (time.Time, bool, error) {
	t, err := ParseTimestamp(a.Timestamp)
	if err == nil {
		return t, true, nil
	}
	if policy == PolicyError {
		return time.Time{}, false, &TimestampError{Index: a.Index, Value: a.Timestamp}
	}
	return time.Time{}, false, nil
}

// newer reports whether cur is strictly later than prev
func newer(cur time.Time, curOK bool, prev time.Time, prevOK bool, policy Policy) bool {
	switch {
	case curOK && prevOK:
		return cur.After(prev)
	case policy == PolicyOldest:
		// Only a valid timestamp following a missing one is out of order
		return curOK && !prevOK
	default:
		return false
	}
}

const isoLayout = "2006-01-02T15:04:05"

// Free-form values must spell out at least a full calendar date and fall
// within these bounds
var (
	minFreeFormLen = len("2006-01-02")
	earliest       = time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)
	latest         = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ParseTimestamp parses the age indicator's title attribute. The current
// format is "2006-01-02T15:04:05 <unix seconds>" and both parts must agree.
// Values without the ISO prefix go through a free-form date parser, in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrUnparseableTimestamp
	}
	unparseable := fmt.Errorf("%w: %q", ErrUnparseableTimestamp, raw)

	fields := strings.Fields(raw)
	iso, isoErr := time.Parse(isoLayout, fields[0])
	switch {
	case isoErr == nil && len(fields) == 1:
		return iso, nil
	case isoErr == nil && len(fields) == 2:
		sec, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || sec != iso.Unix() {
			return time.Time{}, unparseable
		}
		return iso, nil
	case isoErr == nil, len(fields) == 2 && isInteger(fields[1]):
		// Trailing garbage after the ISO part, or a broken ISO part before an epoch
		return time.Time{}, unparseable
	}

	if len(raw) < minFreeFormLen {
		return time.Time{}, unparseable
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, unparseable
	}
	t = t.UTC()
	if t.Before(earliest) || !t.Before(latest) {
		return time.Time{}, unparseable
	}
	return t, nil
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
