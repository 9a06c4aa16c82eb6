package task

import (
	"fmt"
	"sync"

	"github.com/aiedail92/DBBranchManager/internal/transform"
)

// Config is a TaskConfig (spec §3): a task kind plus its raw parameters.
// Parameter values are either a plain string or a list of strings (joined
// with "\n" per spec §6 before substitution); both are carried as
// interface{} until Builder does kind-specific decoding.
type Config struct {
	Kind       string
	Parameters map[string]interface{}
}

// Builder constructs a transform.Transform from a Config and a variable
// Context. baseDirectory is the feature's base directory, against which
// relative `from`/`path` parameters resolve.
type Builder func(cfg Config, ctx *Context, baseDirectory string) (transform.Transform, error)

// Registry is a database/sql-style global registry mapping task kind names
// to Builders, grounded on core/decorator/registry.go's Register/Lookup
// pattern (mutex-protected map, package-level global instance).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Builder
}

// NewRegistry creates an empty Registry. Most callers use the package-level
// Register/Build against the global registry instead.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Builder)}
}

// Register adds kind to the registry. Calling Register twice for the same
// kind silently replaces the previous Builder: late registration wins rather
// than erroring (unlike database/sql, which panics on a duplicate driver
// name), since this only ever happens at package init time in practice.
func (r *Registry) Register(kind string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[kind] = builder
}

// Kinds returns the registered kind names, used by internal/suggest for
// UnknownTask "did you mean" hints.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.entries))
	for k := range r.entries {
		kinds = append(kinds, k)
	}
	return kinds
}

// Build looks up cfg.Kind and constructs the transform. The second return
// value is false when the kind is unregistered (UnknownTask, spec §7).
func (r *Registry) Build(cfg Config, ctx *Context, baseDirectory string) (transform.Transform, bool, error) {
	r.mu.RLock()
	builder, ok := r.entries[cfg.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	t, err := builder(cfg, ctx, baseDirectory)
	if err != nil {
		return nil, true, fmt.Errorf("building task %q: %w", cfg.Kind, err)
	}
	return t, true, nil
}

// global is the package-level registry that built-in task kinds (copy, sql)
// register themselves into via init().
var global = NewRegistry()

// Register adds kind to the global registry.
func Register(kind string, builder Builder) {
	global.Register(kind, builder)
}

// Global returns the global task registry.
func Global() *Registry {
	return global
}

// StringParam reads a string parameter, substituting variables through ctx.
// Missing parameters return ok=false rather than an error — callers decide
// whether the parameter is required.
func StringParam(cfg Config, ctx *Context, name string) (string, bool, error) {
	raw, ok := cfg.Parameters[name]
	if !ok {
		return "", false, nil
	}

	var literal string
	switch v := raw.(type) {
	case string:
		literal = v
	case []string:
		literal = JoinLines(v)
	case []interface{}:
		lines := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return "", false, fmt.Errorf("parameter %q: list element %d is not a string", name, i)
			}
			lines[i] = s
		}
		literal = JoinLines(lines)
	default:
		return "", false, fmt.Errorf("parameter %q has unsupported type %T", name, raw)
	}

	substituted, err := ctx.Substitute(literal)
	if err != nil {
		return "", false, fmt.Errorf("parameter %q: %w", name, err)
	}
	return substituted, true, nil
}

// BoolParam reads a bool parameter with a default, following the "execute
// (default true)" shape from spec §4.3's SqlTransform.
func BoolParam(cfg Config, name string, def bool) (bool, error) {
	raw, ok := cfg.Parameters[name]
	if !ok {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return def, fmt.Errorf("parameter %q must be a boolean", name)
	}
	return b, nil
}
