// Package suggest produces "did you mean" hints for unknown release,
// feature, and task names, grounded on the teacher's planner.findClosestMatch.
package suggest

import "github.com/lithammer/fuzzysearch/fuzzy"

// Closest returns the best fuzzy match for target among candidates, or ""
// if candidates is empty. Matching is case-insensitive (fuzzy.RankFindFold).
func Closest(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// Hint formats a Closest result as a ready-to-use suggestion string, or ""
// if there is no close match.
func Hint(noun, target string, candidates []string) string {
	match := Closest(target, candidates)
	if match == "" {
		return ""
	}
	return "Did you mean " + noun + " \"" + match + "\"?"
}
