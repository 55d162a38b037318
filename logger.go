package testgate

// Logger defines the interface for structured logging across the library.
// The gate, suite, watcher and scheduler all log through this interface
// with key-value pairs:
//
//	logger.Info("Test settled", "test", name, "status", status)
//
// This approach is compatible with popular structured logging libraries
// like slog, logrus, zap, and others. An implementation backed by log/slog:
//
//	type SlogLogger struct {
//	    logger *slog.Logger
//	}
//
//	func (l *SlogLogger) Info(msg string, args ...any) {
//	    l.logger.Info(msg, args...)
//	}
//
// The default is a no-op logger; supply one with WithLogger.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	// Used for normal events like a test case starting or passing.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	// Used for test failures, timeouts, and observer errors.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	// Used for unusual conditions such as a double completion.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, args ...any)
}

// NoopLogger discards all log output. It is the default logger for gates
// and suites created without WithLogger.
type NoopLogger struct{}

func (NoopLogger) Info(msg string, args ...any)  {}
func (NoopLogger) Error(msg string, args ...any) {}
func (NoopLogger) Warn(msg string, args ...any)  {}
func (NoopLogger) Debug(msg string, args ...any) {}
