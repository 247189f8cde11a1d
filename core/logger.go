package core

// Logger is any leveled application logger.
// Implementations may inspect args for well-known types (e.g. a session) to
// enrich reports.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
