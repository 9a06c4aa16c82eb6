// Package task implements the named task-kind registry (spec §4, "Task
// registry + TaskContext") and the `$(...)` family of variable substitution
// markers from spec §6.
package task

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aiedail92/DBBranchManager/internal/transform"
)

// Context carries the variables a TaskConfig's parameter strings may
// reference, and performs the substitution described in spec §6:
//
//	$(name)    feature/task/context variable
//	$(e:name)  user environment variable
//	$(f:name)  feature attribute
//	$$(name)   single-level escape: produces the literal text "$(name)",
//	           left for the task itself to evaluate at execution time
//	           (e.g. a SQL task leaving sqlcmd's own $(name) macros intact).
type Context struct {
	Vars         map[string]string // feature/task/context variables: $(name)
	Env          map[string]string // user environment variables: $(e:name)
	FeatureAttrs map[string]string // feature attributes: $(f:name)

	// ActiveEnv is the deployment's selected environment (`-e/--env`, spec
	// §6) — distinct from Env above, which holds OS environment variables
	// for the unrelated $(e:name) substitution form. SqlTransform's script
	// filter reads this, not Env.
	ActiveEnv string

	// Connection, SqlExecutor and Restorer are the ambient SQL collaborators
	// (spec §6) a Builder can wire into the transform it constructs (the sql
	// kind uses Connection and SqlExecutor); the deploy driver sets these once
	// on the root Context before any feature's tasks are built.
	Connection string
	SqlExecutor transform.SqlExecutor
	Restorer    transform.DatabaseRestorer
}

// NewContext builds an empty Context ready to have layers merged in via
// WithVar/WithFeatureAttr (Env is filled in directly).
func NewContext() *Context {
	return &Context{
		Vars:         map[string]string{},
		Env:          map[string]string{},
		FeatureAttrs: map[string]string{},
	}
}

// WithVar returns a copy of c with name bound in Vars (used to bind the
// SqlTransform template variable "file" to each script's relative name).
func (c *Context) WithVar(name, value string) *Context {
	cp := c.clone()
	cp.Vars[name] = value
	return cp
}

// WithFeatureAttr returns a copy of c with name bound in FeatureAttrs (used
// by the deploy driver to bind each feature's own "name" attribute before
// building its recipe's tasks).
func (c *Context) WithFeatureAttr(name, value string) *Context {
	cp := c.clone()
	cp.FeatureAttrs[name] = value
	return cp
}

func (c *Context) clone() *Context {
	cp := &Context{
		Vars:         make(map[string]string, len(c.Vars)),
		Env:          make(map[string]string, len(c.Env)),
		FeatureAttrs: make(map[string]string, len(c.FeatureAttrs)),
		ActiveEnv:    c.ActiveEnv,
		Connection:   c.Connection,
		SqlExecutor:  c.SqlExecutor,
		Restorer:     c.Restorer,
	}
	for k, v := range c.Vars {
		cp.Vars[k] = v
	}
	for k, v := range c.Env {
		cp.Env[k] = v
	}
	for k, v := range c.FeatureAttrs {
		cp.FeatureAttrs[k] = v
	}
	return cp
}

// substitutionPattern matches, in priority order, the escape form, the env
// form, the feature-attribute form, and finally the plain variable form.
// Go's regexp alternation picks the first alternative that matches at a
// given position, so listing $$( before $( is what makes the escape win.
var substitutionPattern = regexp.MustCompile(`\$\$\(([^()]*)\)|\$\(e:([^()]*)\)|\$\(f:([^()]*)\)|\$\(([^()]*)\)`)

// ErrUndefinedVariable is returned by Substitute when a referenced variable,
// environment variable, or feature attribute has no binding.
type ErrUndefinedVariable struct {
	Kind string // "variable", "environment variable", "feature attribute"
	Name string
}

func (e *ErrUndefinedVariable) Error() string {
	return fmt.Sprintf("undefined %s %q", e.Kind, e.Name)
}

// Substitute expands every $(...) / $(e:...) / $(f:...) / $$(...) marker in
// s, using c's bindings. Lists of strings are joined with "\n" by the
// caller before being passed in (spec §6: "Lists of strings join with \n").
func (c *Context) Substitute(s string) (string, error) {
	var out strings.Builder
	last := 0
	var firstErr error

	for _, m := range substitutionPattern.FindAllStringSubmatchIndex(s, -1) {
		out.WriteString(s[last:m[0]])
		last = m[1]

		switch {
		case m[2] >= 0: // $$(name) escape
			name := s[m[2]:m[3]]
			out.WriteString("$(" + name + ")")
		case m[4] >= 0: // $(e:name)
			name := s[m[4]:m[5]]
			val, ok := c.Env[name]
			if !ok && firstErr == nil {
				firstErr = &ErrUndefinedVariable{Kind: "environment variable", Name: name}
			}
			out.WriteString(val)
		case m[6] >= 0: // $(f:name)
			name := s[m[6]:m[7]]
			val, ok := c.FeatureAttrs[name]
			if !ok && firstErr == nil {
				firstErr = &ErrUndefinedVariable{Kind: "feature attribute", Name: name}
			}
			out.WriteString(val)
		default: // $(name)
			name := s[m[8]:m[9]]
			val, ok := c.Vars[name]
			if !ok && firstErr == nil {
				firstErr = &ErrUndefinedVariable{Kind: "variable", Name: name}
			}
			out.WriteString(val)
		}
	}
	out.WriteString(s[last:])

	if firstErr != nil {
		return "", firstErr
	}
	return out.String(), nil
}

// JoinLines implements the "Lists of strings join with \n" rule from spec §6.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// Render implements transform.Renderer: it layers extra on top of c's Vars
// (SqlTransform uses this to bind "file" to each script's relative name
// without mutating the shared context) and substitutes the result.
func (c *Context) Render(template string, extra map[string]string) (string, error) {
	cp := c
	for name, value := range extra {
		cp = cp.WithVar(name, value)
	}
	return cp.Substitute(template)
}
