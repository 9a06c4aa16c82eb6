package transform

import "sync"

// Requirement is a single precondition reported by a Transform during the
// requirements pass.
type Requirement struct {
	Description string
	Met         bool
}

// RequirementSink collects preconditions from every transform node in a
// depth-first walk (spec §4.4 "Requirements pass"). It is safe to share
// across the walk even though today's walk is single-threaded.
type RequirementSink struct {
	mu    sync.Mutex
	items []Requirement
}

// NewRequirementSink creates an empty sink.
func NewRequirementSink() *RequirementSink {
	return &RequirementSink{}
}

// Check records a requirement. met should be the already-evaluated truth of
// the precondition (e.g. os.Stat succeeded, a TCP dial succeeded).
func (s *RequirementSink) Check(description string, met bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, Requirement{Description: description, Met: met})
}

// Unmet returns every requirement that was recorded as not met, in report
// order.
func (s *RequirementSink) Unmet() []Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var unmet []Requirement
	for _, r := range s.items {
		if !r.Met {
			unmet = append(unmet, r)
		}
	}
	return unmet
}

// Finish returns true iff any requirement was recorded as unmet — in which
// case the deploy driver aborts with UnmetRequirements before any side
// effect (spec §4.4/§4.7).
func (s *RequirementSink) Finish() bool {
	return len(s.Unmet()) > 0
}
