package pager

// Token is an opaque continuation token. The empty token means absent.
type Token string

// Absent reports whether the token is unset.
func (t Token) Absent() bool {
	return t == ""
}

// State is the fetch state of a Cursor.
type State int

const (
	// StateIdle means no request is in flight.
	StateIdle State = iota
	// StateFetching means exactly one request is in flight.
	StateFetching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	default:
		return "unknown"
	}
}

// Cursor describes fetch progress. It is a value type: transitions return
// a new Cursor and never modify the receiver.
type Cursor struct {
	Token    Token `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	HasMore  bool  `json:"has_more" yaml:"has_more"`
	Fetching bool  `json:"is_fetching" yaml:"is_fetching"`
}

// NewCursor returns the initial cursor: HasMore, no token, Idle.
func NewCursor() Cursor {
	return Cursor{HasMore: true}
}

// State returns Idle or Fetching.
func (c Cursor) State() State {
	if c.Fetching {
		return StateFetching
	}
	return StateIdle
}

// Exhausted reports whether the terminal HasMore=false state was reached.
func (c Cursor) Exhausted() bool {
	return !c.HasMore
}

// CanFetch is the single-flight guard: Idle and HasMore.
func (c Cursor) CanFetch() bool {
	return !c.Fetching && c.HasMore
}

// begin moves Idle to Fetching.
func (c Cursor) begin() Cursor {
	c.Fetching = true
	return c
}

// arrive moves to Idle and adopts the page's continuation.
// A page claiming more data without a token leaves the token unchanged
// and exhausts the cursor; ok is false in that case. An exhausted cursor
// is never revived.
func (c Cursor) arrive(next Token, hasMore bool) (Cursor, bool) {
	c.Fetching = false
	if !c.HasMore {
		return c, true
	}
	if hasMore && next.Absent() {
		c.HasMore = false
		return c, false
	}
	c.Token = next
	c.HasMore = hasMore
	return c, true
}

// fail moves to Idle with token and HasMore unchanged.
func (c Cursor) fail() Cursor {
	c.Fetching = false
	return c
}
