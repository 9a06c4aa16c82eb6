package planbuilder

// Release is one entry of the releases.json document (spec §6):
// `{ name, baseline?, features[] }`.
type Release struct {
	Name     string
	Baseline string // "" means no baseline
	Features []string
}

// ReleaseSet indexes releases by name for the baseline walk and for
// "did you mean" suggestions.
type ReleaseSet struct {
	byName map[string]Release
	order  []string
}

// NewReleaseSet builds a ReleaseSet from the parsed releases.json list.
func NewReleaseSet(releases []Release) *ReleaseSet {
	rs := &ReleaseSet{byName: make(map[string]Release, len(releases))}
	for _, r := range releases {
		rs.byName[r.Name] = r
		rs.order = append(rs.order, r.Name)
	}
	return rs
}

// Lookup returns the release named name, if any.
func (rs *ReleaseSet) Lookup(name string) (Release, bool) {
	r, ok := rs.byName[name]
	return r, ok
}

// Names returns every release name, in declaration order (used for
// UnknownRelease "did you mean" suggestions).
func (rs *ReleaseSet) Names() []string {
	return append([]string(nil), rs.order...)
}
