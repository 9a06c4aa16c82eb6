package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Globs is `features`/`tasks` from project.json: either a single glob string
// or a list of them.
type Globs []string

func (g *Globs) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*g = Globs{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("config: features/tasks must be a string or array of strings: %w", err)
	}
	*g = many
	return nil
}

// Resolve expands every pattern in g against base (a doublestar root
// directory), returning the deterministically sorted, de-duplicated union
// of matches (spec §9 determinism note applies here too: load order must
// not depend on filesystem iteration order).
func (g Globs) Resolve(base string) ([]string, error) {
	seen := make(map[string]bool)
	var matches []string

	fsys := os.DirFS(base)
	for _, pattern := range g {
		found, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("config: resolving glob %q: %w", pattern, err)
		}
		for _, m := range found {
			abs := filepath.Join(base, filepath.FromSlash(m))
			if !seen[abs] {
				seen[abs] = true
				matches = append(matches, abs)
			}
		}
	}

	sort.Strings(matches)
	return matches, nil
}
