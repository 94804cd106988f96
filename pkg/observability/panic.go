package observability

import "runtime/debug"

// LogPanic logs a recovered panic value with the full stack trace. The where
// argument names the recovery site (middleware, worker, shutdown hook).
func LogPanic(logger *Logger, value interface{}, where string) {
	if logger == nil || value == nil {
		return
	}
	logger.WithField("panic", value).
		WithField("stack", string(debug.Stack())).
		WithField("context", where).
		Error("panic recovered")
}
