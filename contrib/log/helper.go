package log

import (
	"context"
	"fmt"
)

// Helper is a leveled-printf facade over a Logger, the shape every
// call site in the codebase (log.Infof, log.Debugf, log.Warnf,
// log.Errorf, log.Errorw) expects.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

// Context returns a Helper whose log lines are enriched with ctx's
// trace id (see ContextWithTraceID), the ambient-logging analogue of
// spec.md §3's thread_id/trace_id log correlation.
func Context(ctx context.Context) *Helper {
	base := GetLogger()
	if traceID, ok := traceIDFromContext(ctx); ok {
		base = With(base, "trace_id", traceID)
	}
	return NewHelper(base)
}

func (h *Helper) log(level Level, msg string) {
	_ = h.logger.Log(level, DefaultMessageKey, msg)
}

func (h *Helper) Debug(args ...any) { h.log(LevelDebug, fmt.Sprint(args...)) }
func (h *Helper) Info(args ...any)  { h.log(LevelInfo, fmt.Sprint(args...)) }
func (h *Helper) Warn(args ...any)  { h.log(LevelWarn, fmt.Sprint(args...)) }
func (h *Helper) Error(args ...any) { h.log(LevelError, fmt.Sprint(args...)) }

func (h *Helper) Debugf(format string, args ...any) { h.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (h *Helper) Infof(format string, args ...any)  { h.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (h *Helper) Warnf(format string, args ...any)  { h.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (h *Helper) Errorf(format string, args ...any) { h.log(LevelError, fmt.Sprintf(format, args...)) }

// Errorw logs keyvals (key, value, key, value, ...) at ERROR, the
// structured-field style used for richer diagnostic context than a
// single formatted message.
func (h *Helper) Errorw(keyvals ...any) {
	_ = h.logger.Log(LevelError, keyvals...)
}

// Fatal logs at FATAL then exits the process — matching log.Fatal's
// use in main.go for unrecoverable startup errors.
func (h *Helper) Fatal(args ...any) {
	h.log(LevelFatal, fmt.Sprint(args...))
	osExit(1)
}

func (h *Helper) Fatalf(format string, args ...any) {
	h.log(LevelFatal, fmt.Sprintf(format, args...))
	osExit(1)
}
