package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// Templates holds the pre/item/post fragments a SqlTransform renders its
// script text from (spec §4.3).
type Templates struct {
	Pre  string
	Item string
	Post string
}

// SqlTransform implements the `sql` task kind (spec §4.3): renders and,
// optionally, executes a SQL script assembled from every matching script
// file under Path, filtered by the current environment.
type SqlTransform struct {
	Path      string
	Regex     *regexp.Regexp
	Execute   bool
	Output    string // optional
	Templates  Templates
	Env        string // current environment filter
	Connection string // database connection string, from user config

	Executor SqlExecutor // required when Execute is true
	Render   Renderer    // expands $(...) in Templates, with per-script overrides
}

type matchedScript struct {
	relPath string
	absPath string
	env     string // "" if no env group or env group unmatched
}

func (s *SqlTransform) envGroupIndex() int {
	for i, name := range s.Regex.SubexpNames() {
		if name == "env" {
			return i
		}
	}
	return -1
}

func (s *SqlTransform) included(script matchedScript) bool {
	if s.envGroupIndex() < 0 || script.env == "" {
		return true
	}
	return script.env == s.Env
}

// matchedScripts enumerates script files under Path matching Regex, sorted
// by relative path ('/' separators, case-sensitive — spec §9).
func (s *SqlTransform) matchedScripts() ([]matchedScript, error) {
	envIdx := s.envGroupIndex()

	var scripts []matchedScript
	err := filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := s.Regex.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}

		rel, err := filepath.Rel(s.Path, path)
		if err != nil {
			return err
		}

		env := ""
		if envIdx >= 0 && envIdx < len(m) {
			env = m[envIdx]
		}

		scripts = append(scripts, matchedScript{
			relPath: statehash.NormalizeRelPath(rel),
			absPath: path,
			env:     env,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].relPath < scripts[j].relPath })
	return scripts, nil
}

// render builds the full script text and folds the per-script hashes,
// returning (renderedText, hashOut, error). This does the calculate-time
// work shared by CalculateTransform and RunTransform.
func (s *SqlTransform) render(in statehash.StateHash) (string, statehash.StateHash, error) {
	scripts, err := s.matchedScripts()
	if err != nil {
		return "", statehash.StateHash{}, fmt.Errorf("sql: enumerating %s: %w", s.Path, err)
	}

	var body strings.Builder
	tr := statehash.NewTransformer(in)

	for _, sc := range scripts {
		if !s.included(sc) {
			continue
		}

		item := s.Templates.Item
		if s.Render != nil {
			rendered, err := s.Render.Render(item, map[string]string{"file": sc.relPath})
			if err != nil {
				return "", statehash.StateHash{}, fmt.Errorf("sql: rendering template for %s: %w", sc.relPath, err)
			}
			item = rendered
		}
		body.WriteString(item)

		if err := tr.TransformFileSmart(sc.relPath, sc.absPath); err != nil {
			return "", statehash.StateHash{}, fmt.Errorf("sql: hashing %s: %w", sc.absPath, err)
		}
	}

	full := s.Templates.Pre + body.String() + s.Templates.Post
	if err := tr.Transform([]byte(full)); err != nil {
		return "", statehash.StateHash{}, err
	}
	out, err := tr.Finish()
	if err != nil {
		return "", statehash.StateHash{}, err
	}
	return full, out, nil
}

func (s *SqlTransform) CalculateTransform(in statehash.StateHash) (statehash.StateHash, error) {
	_, out, err := s.render(in)
	return out, err
}

func (s *SqlTransform) GetRequirements(sink *RequirementSink) {
	_, err := os.Stat(s.Path)
	sink.Check(fmt.Sprintf("script directory %q exists", s.Path), err == nil)
	if s.Execute {
		sink.Check("SQL executor configured", s.Executor != nil)
	}
}

func (s *SqlTransform) RunTransform(in statehash.StateHash, dryRun bool, log *logx.Logger) (statehash.StateHash, error) {
	rendered, out, err := s.render(in)
	if err != nil {
		return statehash.StateHash{}, err
	}

	if dryRun {
		log.Log(fmt.Sprintf("sql: would render %d bytes from %s (execute=%v, output=%q)", len(rendered), s.Path, s.Execute, s.Output))
		return out, nil
	}

	if s.Output != "" {
		if err := os.MkdirAll(filepath.Dir(s.Output), 0o755); err != nil {
			return statehash.StateHash{}, fmt.Errorf("sql: creating output dir: %w", err)
		}
		if err := os.WriteFile(s.Output, []byte(rendered), 0o644); err != nil {
			return statehash.StateHash{}, fmt.Errorf("sql: writing output %s: %w", s.Output, err)
		}
	}

	if s.Execute {
		if s.Executor == nil {
			return statehash.StateHash{}, dbbmerr.New(dbbmerr.KindSqlFailure, "sql task has execute=true but no SQL executor configured")
		}
		if err := s.Executor.ExecuteScript(s.Connection, rendered); err != nil {
			return statehash.StateHash{}, dbbmerr.Wrap(dbbmerr.KindSqlFailure, "sql script execution failed", err)
		}
	}

	log.Log(fmt.Sprintf("sql: rendered and %s %s", execVerb(s.Execute), s.Path))
	return out, nil
}

func execVerb(execute bool) string {
	if execute {
		return "executed"
	}
	return "skipped executing"
}
