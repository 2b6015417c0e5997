package log

import "os"

// osExit is indirected for testability.
var osExit = os.Exit

var global = NewHelper(DefaultLogger)

// SetLogger installs logger as the package-level default used by the
// free functions below (Infof, Debugf, ...) and by Context/GetLogger.
func SetLogger(logger Logger) {
	global = NewHelper(logger)
}

// GetLogger returns the currently installed package-level Logger.
func GetLogger() Logger {
	return global.logger
}

// Enabled reports whether a line at level would actually be emitted.
// Used to skip expensive log-argument construction on hot paths
// (mirrors the teacher's log.Enabled(log.LevelDebug) guard).
func Enabled(level Level) bool {
	return global.logger.Enabled(level)
}

func Debug(args ...any)                 { global.Debug(args...) }
func Info(args ...any)                  { global.Info(args...) }
func Warn(args ...any)                  { global.Warn(args...) }
func Error(args ...any)                 { global.Error(args...) }
func Debugf(format string, a ...any)    { global.Debugf(format, a...) }
func Infof(format string, a ...any)     { global.Infof(format, a...) }
func Warnf(format string, a ...any)     { global.Warnf(format, a...) }
func Errorf(format string, a ...any)    { global.Errorf(format, a...) }
func Errorw(keyvals ...any)             { global.Errorw(keyvals...) }
func Fatal(args ...any)                 { global.Fatal(args...) }
func Fatalf(format string, a ...any)    { global.Fatalf(format, a...) }
