// Package deploy implements the deployment driver (spec §4.7): it wires
// the config, plan, tree, cache, resume, and buzzer packages into the
// single `deploy` operation the CLI exposes.
//
// Grounded on cli/main.go's runCommand/runFromPlan top-to-bottom shape
// (read input, build a structure, branch on dry-run, execute, report) —
// here specialized to read input -> build ActionPlan -> build tree ->
// calculate -> check requirements -> run.
package deploy

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aiedail92/DBBranchManager/internal/buzzer"
	"github.com/aiedail92/DBBranchManager/internal/cache"
	"github.com/aiedail92/DBBranchManager/internal/config"
	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/planbuilder"
	"github.com/aiedail92/DBBranchManager/internal/resume"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
	"github.com/aiedail92/DBBranchManager/internal/suggest"
	"github.com/aiedail92/DBBranchManager/internal/task"
	"github.com/aiedail92/DBBranchManager/internal/transform"
	"github.com/aiedail92/DBBranchManager/internal/tree"
)

// Options carries the CLI-resolved inputs a deploy needs (spec §6 flags
// plus the loaded config documents).
type Options struct {
	Project  *config.Project
	User     *config.User
	Releases []config.ReleaseDoc
	Features []config.FeatureDoc
	Tasks    []config.TaskDoc // loaded and validated, not deeply interpreted; see config.TaskDoc

	ActiveRelease string // "" means use User.Release
	Environment   string // "" means use User.Environment
	DryRun        bool
	Resume        bool
	NoCache       bool
	NoBeeps       bool

	ResumeFilePath string // defaults to ".dbbm.resume" in the working directory

	SqlExecutor transform.SqlExecutor
	Restorer    transform.DatabaseRestorer
	Streamer    cache.BackupStreamer

	Log *logx.Logger
}

// Driver runs a single deployment end to end.
type Driver struct {
	opts Options
}

// New builds a Driver from opts, applying defaults.
func New(opts Options) *Driver {
	if opts.ResumeFilePath == "" {
		opts.ResumeFilePath = ".dbbm.resume"
	}
	return &Driver{opts: opts}
}

// Deploy runs spec §4.7's ten-step sequence, returning a *dbbmerr.SoftFailure
// on any blocking failure in the calculate, requirements or run passes, or a
// lower-level error for config/planning mistakes that happen before a
// SoftFailure boundary exists yet. The CLI exits non-zero for any error.
func (d *Driver) Deploy() error {
	o := d.opts
	log := o.Log

	activeRelease := o.ActiveRelease
	if activeRelease == "" {
		activeRelease = o.User.Release
	}
	env := o.Environment
	if env == "" {
		env = o.User.Environment
	}

	buzz := &buzzer.Buzzer{Out: os.Stdout, Silent: o.NoBeeps, Enabled: o.User.Beeps}

	// Step 1: optional start beep.
	buzz.Beep("start")

	plan, cacheMgr, err := d.buildPlan(activeRelease, env)
	if err != nil {
		return err
	}

	root, err := d.buildTree(plan, env)
	if err != nil {
		return err
	}

	resumeStore := resume.New(o.ResumeFilePath)
	var startingHash *statehash.StateHash
	if o.Resume {
		h, err := resumeStore.Load()
		if err != nil {
			return err
		}
		startingHash = &h
	}

	var cacheLookup tree.CacheLookup
	var cacheAdder tree.CacheAdder
	if cacheMgr != nil {
		cacheLookup = cacheMgr
		cacheAdder = cacheMgr
	}

	cctx := &tree.CalculateContext{
		Cache:        cacheLookup,
		Databases:    o.Project.Databases,
		Connection:   o.User.Connection,
		Restorer:     o.Restorer,
		StartingHash: startingHash,
	}
	calcResult, err := tree.Calculate(root, statehash.Empty, cctx)
	if err != nil {
		return dbbmerr.NewSoftFailure("Blocking error detected", err)
	}

	// Step 6: if the rewritten tree changed and produced a final cacheHash,
	// touch every project database's hit entry for it.
	if calcResult.Changed && calcResult.CacheHash != nil && cacheMgr != nil {
		keys := make([]cache.HitKey, len(o.Project.Databases))
		for i, db := range o.Project.Databases {
			keys[i] = cache.HitKey{DBName: db, Hash: *calcResult.CacheHash}
		}
		if err := cacheMgr.UpdateHits(keys); err != nil {
			log.Warn(fmt.Sprintf("cache: updating hits for final state failed: %v", err))
		}
	}

	if calcResult.Node == nil {
		// Entire tree was elided (resume-jump landed at the very end, or an
		// empty plan): nothing left to run.
		if !o.DryRun {
			if err := resumeStore.Delete(); err != nil {
				return err
			}
		}
		buzz.Beep("success")
		return nil
	}

	sink := transform.NewRequirementSink()
	tree.CheckRequirements(calcResult.Node, sink)
	if sink.Finish() {
		buzz.Beep("error")
		return dbbmerr.NewSoftFailure("Blocking error detected",
			dbbmerr.New(dbbmerr.KindUnmetRequirements, "Command aborted due to unmet requirements.").
				WithContext(unmetSummary(sink)))
	}

	rctx := &tree.RunContext{
		Cache:         cacheAdder,
		Databases:     o.Project.Databases,
		Connection:    o.User.Connection,
		Resume:        resumeStore,
		DryRun:        o.DryRun,
		MinDeployTime: time.Duration(o.User.MinDeployTimeMS) * time.Millisecond,
		Log:           log,
	}

	in := statehash.Empty
	if startingHash != nil {
		in = *startingHash
	}

	if _, err := tree.Run(calcResult.Node, in, rctx, true, true); err != nil {
		buzz.Beep("error")
		return dbbmerr.NewSoftFailure("Blocking error detected", err)
	}

	if !o.DryRun {
		if err := resumeStore.Delete(); err != nil {
			return err
		}
	}
	buzz.Beep("success")
	return nil
}

func unmetSummary(sink *transform.RequirementSink) string {
	var parts []string
	for _, r := range sink.Unmet() {
		parts = append(parts, r.Description)
	}
	return strings.Join(parts, "; ")
}

// buildPlan resolves the ActionPlan (spec §4.5) and, unless --no-cache, the
// CacheManager it and the tree passes will consult.
func (d *Driver) buildPlan(activeRelease, env string) (*planbuilder.ActionPlan, *cache.Manager, error) {
	o := d.opts

	releaseSet := planbuilder.NewReleaseSet(toPlanReleases(o.Releases))

	backupRegex, err := regexp.Compile(o.User.BackupRegex)
	if err != nil {
		return nil, nil, dbbmerr.Wrap(dbbmerr.KindConfigParse, "compiling user.backupRegex", err)
	}
	index, err := planbuilder.IndexBackups(o.User.BackupDirectory, backupRegex)
	if err != nil {
		return nil, nil, dbbmerr.Wrap(dbbmerr.KindIoFailure, "indexing backup directory", err)
	}

	pb := &planbuilder.PlanBuilder{
		Releases:     releaseSet,
		Backups:      index,
		Databases:    o.Project.Databases,
		PreferredEnv: env,
	}
	plan, err := pb.Build(activeRelease)
	if err != nil {
		return nil, nil, err
	}

	if o.NoCache {
		return plan, nil, nil
	}
	mgr := &cache.Manager{
		RootPath:     o.User.RootPath,
		MaxCacheSize: o.User.MaxCacheSize,
		AutoGC:       o.User.AutoGC,
		Streamer:     o.Streamer,
	}
	return plan, mgr, nil
}

func toPlanReleases(docs []config.ReleaseDoc) []planbuilder.Release {
	out := make([]planbuilder.Release, len(docs))
	for i, r := range docs {
		out[i] = planbuilder.Release{Name: r.Name, Baseline: r.Baseline, Features: r.Features}
	}
	return out
}

// buildTree constructs the root ExecutionNode (spec §4.7 step 3): child 0
// restores plan.Databases, remaining children are one group per release,
// each with one group per feature, each with one leaf per task.
func (d *Driver) buildTree(plan *planbuilder.ActionPlan, env string) (*tree.Node, error) {
	o := d.opts

	featuresByName := make(map[string]config.FeatureDoc, len(o.Features))
	var featureNames []string
	for _, f := range o.Features {
		featuresByName[f.Name] = f
		featureNames = append(featureNames, f.Name)
	}

	rootCtx := task.NewContext()
	rootCtx.ActiveEnv = env
	rootCtx.Connection = o.User.Connection
	rootCtx.SqlExecutor = o.SqlExecutor
	rootCtx.Restorer = o.Restorer
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			rootCtx.Env[name] = value
		}
	}

	restoreLeaf := tree.Leaf(&transform.RestoreDatabasesTransform{
		Connection: o.User.Connection,
		Databases:  plan.Databases,
		Restorer:   o.Restorer,
	})
	children := []*tree.Node{tree.Group("Restore databases", restoreLeaf)}

	for _, release := range plan.Releases {
		releaseNode, err := d.buildRelease(release, featuresByName, featureNames, rootCtx)
		if err != nil {
			return nil, err
		}
		children = append(children, releaseNode)
	}

	return tree.Group("Deploy", children...), nil
}

func (d *Driver) buildRelease(release planbuilder.Release, featuresByName map[string]config.FeatureDoc, featureNames []string, rootCtx *task.Context) (*tree.Node, error) {
	var children []*tree.Node
	for _, name := range release.Features {
		feature, ok := featuresByName[name]
		if !ok {
			err := dbbmerr.New(dbbmerr.KindUnknownFeature, "feature not found: "+name).
				WithContext("release " + release.Name)
			if hint := suggest.Hint("feature", name, featureNames); hint != "" {
				err = err.WithSuggestion(hint)
			}
			return nil, err
		}
		featureNode, err := d.buildFeature(feature, rootCtx)
		if err != nil {
			return nil, err
		}
		children = append(children, featureNode)
	}
	return tree.Group(release.Name, children...), nil
}

func (d *Driver) buildFeature(feature config.FeatureDoc, rootCtx *task.Context) (*tree.Node, error) {
	ctx := rootCtx.WithFeatureAttr("name", feature.Name)

	kinds := task.Global().Kinds()
	var children []*tree.Node
	for _, entry := range feature.Recipe {
		for kind, params := range entry {
			cfg := task.Config{Kind: kind, Parameters: params}
			t, ok, err := task.Global().Build(cfg, ctx, feature.BaseDirectory)
			if err != nil {
				return nil, dbbmerr.Wrap(dbbmerr.KindConfigParse, "building task", err).
					WithContext("feature " + feature.Name)
			}
			if !ok {
				derr := dbbmerr.New(dbbmerr.KindUnknownTask, "task kind not found: "+kind).
					WithContext("feature " + feature.Name)
				if hint := suggest.Hint("task kind", kind, kinds); hint != "" {
					derr = derr.WithSuggestion(hint)
				}
				return nil, derr
			}
			children = append(children, tree.Leaf(t))
		}
	}
	return tree.Group(feature.Name, children...), nil
}
