package testgate

import (
	"errors"
	"sync"
	"time"

	"github.com/GoCodeAlone/testgate/promise"
)

// Stub data source used to exercise the gate: asynchronously produces a
// fixed string after a fixed delay, in success and failure variants.

var errFetchFailed = errors.New("error")

func fetchData(delay time.Duration) *promise.Promise[any] {
	return promise.Go(func() (any, error) {
		time.Sleep(delay)
		return "peanut butter", nil
	})
}

func fetchDataError(delay time.Duration) *promise.Promise[any] {
	return promise.Go(func() (any, error) {
		time.Sleep(delay)
		return nil, errFetchFailed
	})
}

func fetchDataCallback(delay time.Duration, callback func(data string, err error)) {
	time.AfterFunc(delay, func() {
		callback("peanut butter", nil)
	})
}

func fetchDataCallbackError(delay time.Duration, callback func(data string, err error)) {
	time.AfterFunc(delay, func() {
		callback("", errFetchFailed)
	})
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, entry := range l.entries {
		if entry.level == level && entry.msg == msg {
			n++
		}
	}
	return n
}
