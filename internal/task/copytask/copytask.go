// Package copytask registers the `copy` task kind (spec §4.3) into the
// global task registry.
package copytask

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/aiedail92/DBBranchManager/internal/task"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

func init() {
	task.Register("copy", build)
}

func build(cfg task.Config, ctx *task.Context, baseDirectory string) (transform.Transform, error) {
	from, ok, err := task.StringParam(cfg, ctx, "from")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("copy task: missing required parameter %q", "from")
	}
	to, ok, err := task.StringParam(cfg, ctx, "to")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("copy task: missing required parameter %q", "to")
	}
	rawRegex, ok, err := task.StringParam(cfg, ctx, "regex")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("copy task: missing required parameter %q", "regex")
	}

	re, err := regexp.Compile(rawRegex)
	if err != nil {
		return nil, fmt.Errorf("copy task: invalid regex %q: %w", rawRegex, err)
	}

	return &transform.CopyTransform{
		From:  resolve(baseDirectory, from),
		To:    resolve(baseDirectory, to),
		Regex: re,
	}, nil
}

func resolve(baseDirectory, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDirectory, p)
}
