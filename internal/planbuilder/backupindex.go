package planbuilder

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// backupEntry is one indexed backup file.
type backupEntry struct {
	env  string // "" means environment-agnostic (spec §4.5/§9 Open Question: decided yes)
	path string
}

// BackupIndex maps release -> database name -> matching backup files,
// built by walking the backup directory once (spec §4.5 step 1).
type BackupIndex struct {
	byReleaseDB map[string]map[string][]backupEntry
	envOrder    map[string][]string // release -> envs in first-seen discovery order
}

// IndexBackups walks root, matching every file's base name against regex,
// which must have named groups "dbName" and "release", and may have "env".
// Entries are collected in deterministic (sorted relative path) order so
// discovery order is stable across runs (spec §9 determinism note).
func IndexBackups(root string, regex *regexp.Regexp) (*BackupIndex, error) {
	names := regex.SubexpNames()
	dbIdx, relIdx, envIdx := -1, -1, -1
	for i, n := range names {
		switch n {
		case "dbName":
			dbIdx = i
		case "release":
			relIdx = i
		case "env":
			envIdx = i
		}
	}
	if dbIdx < 0 || relIdx < 0 {
		return nil, fmt.Errorf("planbuilder: backup regex must have named groups %q and %q", "dbName", "release")
	}

	type found struct {
		relPath string
		release string
		db      string
		env     string
	}
	var all []found

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := regex.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		env := ""
		if envIdx >= 0 && envIdx < len(m) {
			env = m[envIdx]
		}
		all = append(all, found{
			relPath: statehash.NormalizeRelPath(rel),
			release: m[relIdx],
			db:      m[dbIdx],
			env:     env,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("planbuilder: indexing %s: %w", root, err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].relPath < all[j].relPath })

	idx := &BackupIndex{
		byReleaseDB: make(map[string]map[string][]backupEntry),
		envOrder:    make(map[string][]string),
	}
	seenEnv := make(map[string]map[string]bool)
	for _, f := range all {
		path := filepath.Join(root, filepath.FromSlash(f.relPath))

		if idx.byReleaseDB[f.release] == nil {
			idx.byReleaseDB[f.release] = make(map[string][]backupEntry)
		}
		idx.byReleaseDB[f.release][f.db] = append(idx.byReleaseDB[f.release][f.db], backupEntry{env: f.env, path: path})

		if seenEnv[f.release] == nil {
			seenEnv[f.release] = make(map[string]bool)
		}
		if !seenEnv[f.release][f.env] {
			seenEnv[f.release][f.env] = true
			idx.envOrder[f.release] = append(idx.envOrder[f.release], f.env)
		}
	}
	return idx, nil
}

// complete reports whether release has a backup for every database in
// databases under env (an exact match, or an environment-agnostic entry —
// the decided reading of spec §4.5/§9's open question). On success it
// returns the chosen backup path per database, in databases' order.
func (idx *BackupIndex) complete(release, env string, databases []string) ([]string, bool) {
	byDB, ok := idx.byReleaseDB[release]
	if !ok {
		return nil, false
	}

	paths := make([]string, 0, len(databases))
	for _, db := range databases {
		entries, ok := byDB[db]
		if !ok {
			return nil, false
		}
		path, ok := pickEntry(entries, env)
		if !ok {
			return nil, false
		}
		paths = append(paths, path)
	}
	return paths, true
}

// pickEntry prefers an exact environment match, falling back to an
// environment-agnostic entry.
func pickEntry(entries []backupEntry, env string) (string, bool) {
	for _, e := range entries {
		if e.env == env {
			return e.path, true
		}
	}
	for _, e := range entries {
		if e.env == "" {
			return e.path, true
		}
	}
	return "", false
}

// discoveryEnvs returns the envs observed for release, in first-seen
// (deterministic) order.
func (idx *BackupIndex) discoveryEnvs(release string) []string {
	return idx.envOrder[release]
}
