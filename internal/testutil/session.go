package testutil

// DefaultSessionID is used when a FixedSessionGenerator is given no id.
const DefaultSessionID = "test-session-default"

// FixedSessionGenerator returns the same session id every time.
//
// Staged result names embed the session id, so a fixed id makes them
// reproducible across runs and lets golden files record them.
// Unlike engine.FixedGenerator, which hands out ids in sequence and panics
// when exhausted, this generator never runs out.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
// If id is empty, Generate returns DefaultSessionID.
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements engine.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
