package testutil

// FixedSessionGenerator returns the same session id every time.
//
// The same scenario run with the same generator produces identical
// traces, which golden comparison relies on.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements pager.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
