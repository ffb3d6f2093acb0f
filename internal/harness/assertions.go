package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pageview/internal/pager"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, describe(event))
		}
	}
	return buf.String()
}

func describe(e TraceEvent) string {
	switch e.Type {
	case EventRequest:
		return fmt.Sprintf("request seq=%d cursor=%q", e.Seq, e.Cursor)
	case EventPage:
		return fmt.Sprintf("page seq=%d records=%d next=%q has_more=%t applied=%t", e.Seq, e.Records, e.NextCursor, e.HasMore, e.Applied)
	case EventFailure:
		return fmt.Sprintf("failure seq=%d error=%q applied=%t", e.Seq, e.Error, e.Applied)
	case EventAppend:
		return fmt.Sprintf("append records=%d next=%q has_more=%t", e.Records, e.NextCursor, e.HasMore)
	}
	return e.Type
}

// EvaluateAssertions checks each assertion against the result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	final := r.Final
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: r.Trace}
	}

	switch a.Type {
	case AssertFetchCount:
		if got := final.Stats.Requests; got != *a.Count {
			return fail(fmt.Sprintf("%d fetches", *a.Count), fmt.Sprintf("%d fetches", got))
		}
	case AssertCollectionLen:
		if got := len(final.IDs); got != *a.Count {
			return fail(fmt.Sprintf("%d records", *a.Count), fmt.Sprintf("%d records", got))
		}
	case AssertIDs:
		if !slices.Equal(final.IDs, a.IDs) {
			return fail(fmt.Sprintf("ids %v", a.IDs), fmt.Sprintf("ids %v", final.IDs))
		}
	case AssertCursor:
		return assertCursor(final.Cursor, a, fail)
	case AssertEmpty:
		if final.Empty != *a.Value {
			return fail(fmt.Sprintf("empty=%t", *a.Value), fmt.Sprintf("empty=%t", final.Empty))
		}
	case AssertError:
		if final.Error != *a.Code {
			return fail(fmt.Sprintf("error %q", *a.Code), fmt.Sprintf("error %q", final.Error))
		}
	case AssertStat:
		got, _ := statValue(final.Stats, a.Name)
		if got != *a.Count {
			return fail(fmt.Sprintf("%s=%d", a.Name, *a.Count), fmt.Sprintf("%s=%d", a.Name, got))
		}
	case AssertTraceCount:
		if got := r.Count(a.Event); got != *a.Count {
			return fail(fmt.Sprintf("%d %s events", *a.Count, a.Event), fmt.Sprintf("%d %s events", got, a.Event))
		}
	default:
		return fail("known assertion type", fmt.Sprintf("%q", a.Type))
	}
	return nil
}

func assertCursor(c pager.Cursor, a Assertion, fail func(string, string) error) error {
	var expected, actual []string
	if a.Token != nil && string(c.Token) != *a.Token {
		expected = append(expected, fmt.Sprintf("token=%q", *a.Token))
		actual = append(actual, fmt.Sprintf("token=%q", string(c.Token)))
	}
	if a.HasMore != nil && c.HasMore != *a.HasMore {
		expected = append(expected, fmt.Sprintf("has_more=%t", *a.HasMore))
		actual = append(actual, fmt.Sprintf("has_more=%t", c.HasMore))
	}
	if a.Fetching != nil && c.Fetching != *a.Fetching {
		expected = append(expected, fmt.Sprintf("fetching=%t", *a.Fetching))
		actual = append(actual, fmt.Sprintf("fetching=%t", c.Fetching))
	}
	if len(expected) > 0 {
		return fail(strings.Join(expected, " "), strings.Join(actual, " "))
	}
	return nil
}

func statValue(s pager.Stats, name string) (int, bool) {
	switch name {
	case "requests":
		return s.Requests, true
	case "pages":
		return s.Pages, true
	case "failures":
		return s.Failures, true
	case "duplicates":
		return s.Duplicates, true
	case "rejected":
		return s.Rejected, true
	case "stale":
		return s.Stale, true
	}
	return 0, false
}
