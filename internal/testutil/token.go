package testutil

// FixedTokenGenerator returns the same query token every time.
//
// It enables deterministic trace recording and golden snapshot
// comparison: the same scenario with the same FixedTokenGenerator
// produces byte-identical trace logs. Production code mints uuid
// tokens instead (see the resolve command).
//
// Thread-safety: FixedTokenGenerator is stateless and safe for
// concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a fixed token generator. An empty
// token defaults to "test-query-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-query-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
