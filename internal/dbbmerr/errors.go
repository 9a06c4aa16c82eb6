// Package dbbmerr defines the error kinds the deployment engine surfaces to
// the CLI, following the teacher's rich-context error shape (message +
// context + suggestion) rather than bare error strings.
package dbbmerr

import "strings"

// Kind identifies one of the recoverable error categories from spec §7.
type Kind string

const (
	KindNoProject          Kind = "NoProject"
	KindConfigParse        Kind = "ConfigParse"
	KindNoBaseline         Kind = "NoBaseline"
	KindUnknownRelease     Kind = "UnknownRelease"
	KindUnknownFeature     Kind = "UnknownFeature"
	KindUnknownTask        Kind = "UnknownTask"
	KindResumeMissing      Kind = "ResumeMissing"
	KindResumeInvalid      Kind = "ResumeInvalid"
	KindUnmetRequirements  Kind = "UnmetRequirements"
	KindSqlFailure         Kind = "SqlFailure"
	KindIoFailure          Kind = "IoFailure"
)

// Error is a recoverable, user-facing engine error: a Kind for programmatic
// handling (CLI exit-code mapping, tests), a human Message, optional Context
// (what the engine was doing), and an optional Suggestion (how to fix it —
// often filled in by internal/suggest with a fuzzy "did you mean").
type Error struct {
	Kind       Kind
	Message    string
	Context    string
	Suggestion string
	Err        error // wrapped cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Context != "" {
		b.WriteString(" (")
		b.WriteString(e.Context)
		b.WriteString(")")
	}
	if e.Suggestion != "" {
		b.WriteString("\n")
		b.WriteString(e.Suggestion)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithContext returns a copy of e with Context set.
func (e *Error) WithContext(context string) *Error {
	cp := *e
	cp.Context = context
	return &cp
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *Error) WithSuggestion(suggestion string) *Error {
	cp := *e
	cp.Suggestion = suggestion
	return &cp
}

// SoftFailure is a blocking but expected failure: the deployment driver
// wraps errors from the Calculate pass, the requirements check and the Run
// pass in a SoftFailure before returning them to the CLI, per spec §4.7/§7.
// Errors raised earlier (planning, tree construction, loading the resume
// file) reach the CLI as a plain *Error. The CLI exits non-zero for either.
type SoftFailure struct {
	Message string
	Inner   error
}

func (s *SoftFailure) Error() string {
	if s.Inner == nil {
		return s.Message
	}
	return s.Message + ": " + s.Inner.Error()
}

func (s *SoftFailure) Unwrap() error { return s.Inner }

// NewSoftFailure wraps err (which may itself be a *SoftFailure) in a new
// outer SoftFailure, matching the driver's "Blocking error detected"
// wrapping behavior (spec §4.7 step 10).
func NewSoftFailure(message string, err error) *SoftFailure {
	return &SoftFailure{Message: message, Inner: err}
}
