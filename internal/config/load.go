package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
)

const projectFileName = "project.json"

// FindProjectFile walks upward from startDir looking for project.json
// (spec §7 NoProject), mirroring the teacher's outward-walk fallback shape
// in cli/main.go's getInputReader, generalized to directory ascent.
func FindProjectFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", dbbmerr.Wrap(dbbmerr.KindIoFailure, "resolving working directory", err)
	}

	for {
		candidate := filepath.Join(dir, projectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", dbbmerr.New(dbbmerr.KindNoProject, "no "+projectFileName+" found walking upward from "+startDir)
		}
		dir = parent
	}
}

func readAndValidate(path string, k kind, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dbbmerr.Wrap(dbbmerr.KindIoFailure, "reading "+path, err)
	}
	if err := validate(k, raw); err != nil {
		return dbbmerr.Wrap(dbbmerr.KindConfigParse, "validating "+path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dbbmerr.Wrap(dbbmerr.KindConfigParse, "parsing "+path, err)
	}
	return nil
}

// LoadProject reads and validates project.json.
func LoadProject(path string) (*Project, error) {
	var p Project
	if err := readAndValidate(path, kindProject, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadUser reads and validates user.json.
func LoadUser(path string) (*User, error) {
	var u User
	if err := readAndValidate(path, kindUser, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LoadReleases reads and validates releases.json (a JSON array).
func LoadReleases(path string) ([]ReleaseDoc, error) {
	var r []ReleaseDoc
	if err := readAndValidate(path, kindReleases, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFeatures resolves project.Features against baseDir and parses every
// matching file (spec §6 features glob).
func LoadFeatures(project *Project, baseDir string) ([]FeatureDoc, error) {
	files, err := project.Features.Resolve(baseDir)
	if err != nil {
		return nil, err
	}
	docs := make([]FeatureDoc, 0, len(files))
	for _, f := range files {
		var doc FeatureDoc
		if err := readAndValidate(f, kindFeature, &doc); err != nil {
			return nil, err
		}
		doc.BaseDirectory = filepath.Dir(f)
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadTasks resolves project.Tasks against baseDir and parses every matching
// file (spec §6 tasks glob).
func LoadTasks(project *Project, baseDir string) ([]TaskDoc, error) {
	files, err := project.Tasks.Resolve(baseDir)
	if err != nil {
		return nil, err
	}
	docs := make([]TaskDoc, 0, len(files))
	for _, f := range files {
		var doc TaskDoc
		if err := readAndValidate(f, kindTask, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
