// Package config loads and schema-validates the five JSON document kinds
// from spec §6 (project, user, releases, features, tasks), and resolves the
// project's features/tasks glob patterns into concrete file lists.
//
// Grounded on core/types/validation.go's Validator wrapping a compiled
// jsonschema.Schema, adapted into a package-level schema cache keyed by
// document kind (the five schemas here are fixed and embedded, unlike the
// teacher's arbitrary per-decorator parameter schemas).
package config

// Project is project.json (spec §6): `databases[]`, `releases` (path),
// `features` (glob), `tasks` (glob).
type Project struct {
	Databases []string `json:"databases"`
	Releases  string   `json:"releases"`
	Features  Globs    `json:"features"`
	Tasks     Globs    `json:"tasks"`
}

// User is user.json (spec §6): the backup-file regex, cache settings,
// database connection, preferred environment/release, and beep toggles.
type User struct {
	BackupDirectory string          `json:"backupDirectory"`
	BackupRegex     string          `json:"backupRegex"`
	Environment     string          `json:"environment"`
	Release         string          `json:"release"`
	Connection      string          `json:"connection"`
	RootPath        string          `json:"rootPath"`
	MaxCacheSize    int64           `json:"maxCacheSize"`
	AutoGC          bool            `json:"autoGC"`
	MinDeployTimeMS int64           `json:"minDeployTime"`
	Beeps           map[string]bool `json:"beeps"`
}

// ReleaseDoc is one entry of releases.json: `{ name, baseline?, features[] }`.
type ReleaseDoc struct {
	Name     string   `json:"name"`
	Baseline string   `json:"baseline,omitempty"`
	Features []string `json:"features"`
}

// FeatureDoc is a features/*.json document: `{ name, recipe[] of
// { <taskKind>: { …parameters… } } }` (spec §3: "Feature = (name,
// baseDirectory, recipe[] of task configs)"). BaseDirectory is not a JSON
// field — LoadFeatures sets it to the directory the document was loaded
// from, since every `from`/`path` task parameter resolves relative to it.
type FeatureDoc struct {
	Name          string                       `json:"name"`
	Recipe        []map[string]map[string]any `json:"recipe"`
	BaseDirectory string                       `json:"-"`
}

// TaskDoc is a tasks/*.json document: `{ name, define?, requires?, commands:
// { <cmd>: [ task … ] } }`. Loaded and schema-validated for completeness;
// the engine's own task execution runs through feature recipes and the
// kind registry (internal/task), not through this file's command/requires
// structure, which the distilled core does not model as an operation.
type TaskDoc struct {
	Name     string                     `json:"name"`
	Define   map[string]any             `json:"define,omitempty"`
	Requires []string                   `json:"requires,omitempty"`
	Commands map[string][]map[string]any `json:"commands"`
}
