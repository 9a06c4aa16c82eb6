// Package logx provides the indentation-aware logger the execution tree
// writes its pre/post-log framing through (spec §4.4's group pre-log/
// post-log). It wraps zap the way the teacher wraps its tree-drawing
// connectors in core/plan/types.go: nesting is tracked as a prefix that
// grows and shrinks as the tree walk descends and returns.
package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a scoped, indentation-tracking logger. A group node hands its
// children the one-level-deeper Logger from Indent, so their log lines
// visually nest under the group's pre-log line, mirroring the depth of the
// ExecutionNode tree; the group itself keeps logging through its own Logger.
type Logger struct {
	base   *zap.SugaredLogger
	depth  int
	dryRun bool
}

// New builds a Logger. When dryRun is true, every line is prefixed with
// "[dry-run] " instead of going through a separate side channel — spec §9's
// open question about dry-run resolves to "dry-run is side-effect-free
// everywhere", and that includes the logging path being the same path,
// just labeled.
func New(dryRun bool) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.CallerKey = ""
	cfg.EncoderConfig.LevelKey = ""
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{base: zl.Sugar(), dryRun: dryRun}, nil
}

// Indent returns a child Logger one level deeper.
func (l *Logger) Indent() *Logger {
	return &Logger{base: l.base, depth: l.depth + 1, dryRun: l.dryRun}
}

func (l *Logger) prefix() string {
	p := make([]byte, 0, l.depth*2)
	for i := 0; i < l.depth; i++ {
		p = append(p, ' ', ' ')
	}
	if l.dryRun {
		p = append(p, "[dry-run] "...)
	}
	return string(p)
}

// Log writes a single framing line (a group's pre-log or post-log, or a
// transform's dry-run narration) at the current indentation.
func (l *Logger) Log(line string) {
	if line == "" {
		return
	}
	l.base.Info(l.prefix() + line)
}

// Warn writes a warning line (e.g. a cache.Add failure, spec §4.6/§7: cache
// add failures are logged but do not fail the deployment).
func (l *Logger) Warn(line string) {
	l.base.Warn(l.prefix() + line)
}

// Sync flushes the underlying zap core; call once at process exit.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
