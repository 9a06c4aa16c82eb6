// Package invariant provides contract assertions for the deployment engine.
//
// Assertions are a force multiplier for discovering bugs: use Precondition/
// Postcondition to express function contracts, and Invariant for internal
// consistency checks — internal/tree's group-vs-transform node shape and
// internal/planbuilder's baseline-walk progress are the two checked here.
// All functions panic on violation — these are programming errors in the
// engine, not user-facing errors. User-facing failures (a bad config, a
// missing baseline, an unmet requirement) are always reported as
// *dbbmerr.Error, never as a panic.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
//
// Used by internal/planbuilder.PlanBuilder.Build to assert the baseline walk
// never revisits a release, catching a cyclic baseline chain instead of
// looping forever, and by internal/tree.Node.IsLeaf to assert a node is
// never both a group and a transform.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils (e.g. (*T)(nil)).
func NotNil(value interface{}, name string) {
	if value == nil || isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value interface{}) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// ExpectNoError panics if err is not nil. Use for operations the engine
// itself guarantees never fail (e.g. re-parsing a hash it just formatted).
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
