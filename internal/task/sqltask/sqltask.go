// Package sqltask registers the `sql` task kind (spec §4.3) into the global
// task registry.
package sqltask

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/aiedail92/DBBranchManager/internal/task"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

func init() {
	task.Register("sql", build)
}

func build(cfg task.Config, ctx *task.Context, baseDirectory string) (transform.Transform, error) {
	path, ok, err := task.StringParam(cfg, ctx, "path")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("sql task: missing required parameter %q", "path")
	}
	rawRegex, ok, err := task.StringParam(cfg, ctx, "regex")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("sql task: missing required parameter %q", "regex")
	}
	re, err := regexp.Compile(rawRegex)
	if err != nil {
		return nil, fmt.Errorf("sql task: invalid regex %q: %w", rawRegex, err)
	}

	execute, err := task.BoolParam(cfg, "execute", true)
	if err != nil {
		return nil, err
	}
	output, _, err := task.StringParam(cfg, ctx, "output")
	if err != nil {
		return nil, err
	}

	templates, err := buildTemplates(cfg, ctx)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDirectory, path)
	}

	return &transform.SqlTransform{
		Path:       path,
		Regex:      re,
		Execute:    execute,
		Output:     output,
		Templates:  templates,
		Env:        ctx.ActiveEnv,
		Connection: ctx.Connection,
		Executor:   ctx.SqlExecutor,
		Render:     ctx,
	}, nil
}

// buildTemplates reads the nested `templates: {pre, item, post}` object. Any
// of the three may be omitted, defaulting to "".
func buildTemplates(cfg task.Config, ctx *task.Context) (transform.Templates, error) {
	raw, ok := cfg.Parameters["templates"]
	if !ok {
		return transform.Templates{}, nil
	}
	nested, ok := raw.(map[string]interface{})
	if !ok {
		return transform.Templates{}, fmt.Errorf("sql task: parameter %q must be an object", "templates")
	}

	get := func(key string) (string, error) {
		v, ok := nested[key]
		if !ok {
			return "", nil
		}
		sub := task.Config{Kind: cfg.Kind, Parameters: map[string]interface{}{key: v}}
		s, _, err := task.StringParam(sub, ctx, key)
		return s, err
	}

	pre, err := get("pre")
	if err != nil {
		return transform.Templates{}, err
	}
	item, err := get("item")
	if err != nil {
		return transform.Templates{}, err
	}
	post, err := get("post")
	if err != nil {
		return transform.Templates{}, err
	}
	return transform.Templates{Pre: pre, Item: item, Post: post}, nil
}
