package testgate

import (
	"errors"
)

// Gate and suite errors
var (
	// Terminal-outcome errors manufactured or classified by the gate
	ErrTimeout                = errors.New("test timed out")
	ErrBodyPanic              = errors.New("test body panicked")
	ErrUnhandledRejection     = errors.New("unhandled rejection")
	ErrAssertionCountMismatch = errors.New("assertion count mismatch")
	ErrDoubleCompletion       = errors.New("completion handle invoked after settlement")
	ErrNilPromise             = errors.New("test body returned a nil promise")
	ErrRunCancelled           = errors.New("run cancelled")

	// Assertion errors
	ErrAssertionMismatch = errors.New("assertion mismatch")
	ErrNotAPromise       = errors.New("expected value is not a promise")
	ErrInvalidPattern    = errors.New("invalid match pattern")

	// Registration errors
	ErrEmptyTestName        = errors.New("test name cannot be empty")
	ErrNilTestBody          = errors.New("test body cannot be nil")
	ErrUnsupportedBodyShape = errors.New("unsupported test body shape")
	ErrNilTestCase          = errors.New("test case is nil")

	// Observer errors
	ErrNilObserver = errors.New("observer cannot be nil")

	// Configuration errors
	ErrInvalidTimeout                = errors.New("default timeout must be positive")
	ErrUnknownDoubleCompletionPolicy = errors.New("unknown double completion policy")
	ErrEmptyScheduleSpec             = errors.New("schedule spec cannot be empty")
	ErrNoWatchPaths                  = errors.New("no watch paths configured")

	// Watcher and scheduler errors
	ErrWatcherAlreadyStarted   = errors.New("watcher already started")
	ErrWatcherNotStarted       = errors.New("watcher not started")
	ErrSchedulerAlreadyStarted = errors.New("scheduler already started")
	ErrSchedulerNotStarted     = errors.New("scheduler not started")

	// Status server errors
	ErrStatusServerAlreadyStarted = errors.New("status server already started")
	ErrStatusServerNotStarted     = errors.New("status server not started")
)
