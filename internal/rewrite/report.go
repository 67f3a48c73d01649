package rewrite

import (
	"fmt"

	"go.uber.org/zap"
)

// reporter logs per-declaration warnings and keeps them for the Result.
type reporter struct {
	file     string
	log      *zap.SugaredLogger
	warnings []string
}

func newReporter(file string, log *zap.SugaredLogger) *reporter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &reporter{file: file, log: log}
}

func (r *reporter) warn(declaration, msg string) {
	r.log.Warnw(msg, "file", r.file, "declaration", declaration)
	if declaration != "" {
		msg = fmt.Sprintf("%s: %s", declaration, msg)
	}
	r.warnings = append(r.warnings, msg)
}

func (r *reporter) debug(msg string, keysAndValues ...any) {
	r.log.Debugw(msg, append([]any{"file", r.file}, keysAndValues...)...)
}
