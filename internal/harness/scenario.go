package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/record"
	"github.com/roach88/pageview/internal/testutil"
)

// DefaultRowHeight is the scroll distance of one record when a scroll
// step measures from the collection.
const DefaultRowHeight = 100

// Scenario defines a pagination scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the fixed view session id.
	Session string `yaml:"session,omitempty"`

	// PageSize defaults to pager.DefaultPageSize.
	PageSize int `yaml:"page_size,omitempty"`

	// Threshold defaults to pager.DefaultThreshold.
	Threshold *float64 `yaml:"threshold,omitempty"`

	// RowHeight is used by scroll steps with bottom: true.
	RowHeight float64 `yaml:"row_height,omitempty"`

	// Synchronous answers each request inside the requester.
	Synchronous bool `yaml:"synchronous,omitempty"`

	// Columns projected by the view.
	Columns []string `yaml:"columns"`

	// Pages are served by request cursor.
	Pages []PageSpec `yaml:"pages,omitempty"`

	// Steps drive the view in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	Assertions []Assertion `yaml:"assertions"`
}

// PageSpec describes one scripted page, or a page applied directly by
// an append step.
type PageSpec struct {
	Cursor     string          `yaml:"cursor"`
	Records    []record.Record `yaml:"records,omitempty"`
	Generate   *Generate       `yaml:"generate,omitempty"`
	NextCursor string          `yaml:"next_cursor,omitempty"`
	HasMore    bool            `yaml:"has_more,omitempty"`

	// Fail makes the first FailTimes fetches (default 1) fail.
	Fail      string `yaml:"fail,omitempty"`
	FailTimes int    `yaml:"fail_times,omitempty"`
}

// Generate synthesizes Count records with ids Prefix000, Prefix001, ...
// starting at From.
type Generate struct {
	Prefix string `yaml:"prefix"`
	From   int    `yaml:"from,omitempty"`
	Count  int    `yaml:"count"`
}

// Step is one action. Exactly one field other than Repeat is set.
type Step struct {
	Load    bool         `yaml:"load,omitempty"`
	Scroll  *ScrollStep  `yaml:"scroll,omitempty"`
	Deliver *DeliverStep `yaml:"deliver,omitempty"`
	Append  *PageSpec    `yaml:"append,omitempty"`
	Retry   bool         `yaml:"retry,omitempty"`
	Close   bool         `yaml:"close,omitempty"`

	// Repeat runs the step this many times (default 1).
	Repeat int `yaml:"repeat,omitempty"`
}

// ScrollStep reports scroll metrics. With Bottom set, Content is the
// collection length times the row height and Offset puts the viewport at
// the end.
type ScrollStep struct {
	Offset   float64 `yaml:"offset,omitempty"`
	Viewport float64 `yaml:"viewport,omitempty"`
	Content  float64 `yaml:"content,omitempty"`
	Bottom   bool    `yaml:"bottom,omitempty"`
}

// DeliverStep answers a request. Seq 0 answers the oldest pending one;
// any other Seq replays that request, even if already answered.
type DeliverStep struct {
	Seq int64 `yaml:"seq,omitempty"`
}

// Assertion validates the outcome.
type Assertion struct {
	Type     string   `yaml:"type"`
	Count    *int     `yaml:"count,omitempty"`
	IDs      []string `yaml:"ids,omitempty"`
	Token    *string  `yaml:"token,omitempty"`
	HasMore  *bool    `yaml:"has_more,omitempty"`
	Fetching *bool    `yaml:"fetching,omitempty"`
	Value    *bool    `yaml:"value,omitempty"`
	Code     *string  `yaml:"code,omitempty"`
	Name     string   `yaml:"name,omitempty"`
	Event    string   `yaml:"event,omitempty"`
}

// Assertion type constants.
const (
	AssertFetchCount    = "fetch_count"
	AssertCollectionLen = "collection_len"
	AssertIDs           = "ids"
	AssertCursor        = "cursor"
	AssertEmpty         = "empty"
	AssertError         = "error"
	AssertStat          = "stat"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("columns list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must be non-negative")
	}

	seen := make(map[string]bool)
	for i, p := range s.Pages {
		if seen[p.Cursor] {
			return fmt.Errorf("pages[%d]: duplicate cursor %q", i, p.Cursor)
		}
		seen[p.Cursor] = true
		if err := validatePage(p); err != nil {
			return fmt.Errorf("pages[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validatePage(p PageSpec) error {
	if p.Generate != nil && p.Generate.Count < 0 {
		return fmt.Errorf("generate.count must be non-negative")
	}
	if p.FailTimes < 0 {
		return fmt.Errorf("fail_times must be non-negative")
	}
	return nil
}

func validateStep(step Step) error {
	actions := 0
	for _, set := range []bool{step.Load, step.Scroll != nil, step.Deliver != nil, step.Append != nil, step.Retry, step.Close} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("exactly one of load, scroll, deliver, append, retry, close is required (got %d)", actions)
	}
	if step.Repeat < 0 {
		return fmt.Errorf("repeat must be non-negative")
	}
	if step.Append != nil {
		if step.Append.Fail != "" {
			return fmt.Errorf("append: fail is only valid for scripted pages")
		}
		return validatePage(*step.Append)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertFetchCount, AssertCollectionLen:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("count is required for %s", a.Type)
		}
	case AssertIDs:
		if a.IDs == nil {
			return fmt.Errorf("ids is required for ids (use [] for none)")
		}
	case AssertCursor:
		if a.Token == nil && a.HasMore == nil && a.Fetching == nil {
			return fmt.Errorf("cursor needs at least one of token, has_more, fetching")
		}
	case AssertEmpty:
		if a.Value == nil {
			return fmt.Errorf("value is required for empty")
		}
	case AssertError:
		if a.Code == nil {
			return fmt.Errorf("code is required for error (use \"\" for none)")
		}
	case AssertStat:
		if _, ok := statValue(pager.Stats{}, a.Name); !ok {
			return fmt.Errorf("unknown stat %q", a.Name)
		}
		if a.Count == nil {
			return fmt.Errorf("count is required for stat")
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("event is required for trace_count")
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("count is required for trace_count")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// records returns the page's literal records followed by generated ones.
func (p PageSpec) records() []record.Record {
	out := make([]record.Record, 0, len(p.Records))
	for _, r := range p.Records {
		out = append(out, record.New(r.ID, r.Fields))
	}
	if p.Generate != nil {
		out = append(out, testutil.SequentialRecords(p.Generate.Prefix, p.Generate.From, p.Generate.Count)...)
	}
	return out
}

func (p PageSpec) page() pager.Page {
	return pager.Page{
		Records:    p.records(),
		NextCursor: pager.Token(p.NextCursor),
		HasMore:    p.HasMore,
	}
}

func (p PageSpec) scripted() testutil.ScriptedPage {
	return testutil.ScriptedPage{
		Cursor:     pager.Token(p.Cursor),
		Records:    p.records(),
		NextCursor: pager.Token(p.NextCursor),
		HasMore:    p.HasMore,
		Fail:       p.Fail,
		FailTimes:  p.FailTimes,
	}
}
