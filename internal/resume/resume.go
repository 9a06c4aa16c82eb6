// Package resume implements the single-line resume file (spec §6:
// ".dbbm.resume": one line, lowercase hex hash) that lets a killed
// deployment be picked up again with `--resume`.
package resume

import (
	"os"
	"strings"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// Store reads and writes the resume file at Path.
type Store struct {
	Path string
}

// New builds a Store rooted at path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load reads and parses the resume file, failing with ResumeMissing if it
// does not exist and ResumeInvalid if its contents do not parse as a
// StateHash (spec §7).
func (s *Store) Load() (statehash.StateHash, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return statehash.StateHash{}, dbbmerr.New(dbbmerr.KindResumeMissing, "no resume file at "+s.Path)
		}
		return statehash.StateHash{}, dbbmerr.Wrap(dbbmerr.KindIoFailure, "reading resume file", err)
	}

	h, err := statehash.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return statehash.StateHash{}, dbbmerr.Wrap(dbbmerr.KindResumeInvalid, "resume file does not contain a valid state hash", err)
	}
	return h, nil
}

// Save overwrites the resume file with hash in hex, matching the "overwrite
// the resume file with the new hash in hex" rule (spec §4.4 Run pass rule 2).
func (s *Store) Save(hash statehash.StateHash) error {
	if err := os.WriteFile(s.Path, []byte(hash.String()+"\n"), 0o644); err != nil {
		return dbbmerr.Wrap(dbbmerr.KindIoFailure, "writing resume file", err)
	}
	return nil
}

// Delete removes the resume file. A missing file is not an error (spec
// §4.7 step 9: "delete resume file" on success).
func (s *Store) Delete() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return dbbmerr.Wrap(dbbmerr.KindIoFailure, "deleting resume file", err)
	}
	return nil
}
