package testgate

import (
	"context"
	"fmt"
	"sync"
)

// Run is the per-execution context for one test case. It carries the
// assertion counter, the declared expected assertion count, and any
// assertion failures recorded while the body executed. A fresh Run is
// created for every execution, so counter state never leaks between runs.
//
// Test bodies receive the Run and make assertions through Expect and
// ExpectAssertions; the gate reads the recorded state back at settlement
// time to decide the terminal outcome.
type Run struct {
	testName string
	logger   Logger
	ctx      context.Context

	mu                sync.Mutex
	assertions        int
	expected          int // -1 when undeclared
	failures          []error
	doubleCompletions int
}

func newRun(testName string, logger Logger) *Run {
	return &Run{
		testName: testName,
		logger:   logger,
		expected: -1,
	}
}

// TestName returns the name of the test case this run belongs to.
func (r *Run) TestName() string {
	return r.testName
}

// Context returns the context bounding this run. The gate cancels it once
// the case settles, so goroutines waiting on behalf of the run can exit
// instead of blocking on a promise that will never settle.
func (r *Run) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// ExpectAssertions declares that exactly n assertions must be evaluated
// during this run. The gate fails the run at settlement time if the count
// does not match, regardless of the body's own terminal signal. This guards
// against an asynchronous branch that is silently skipped, such as a
// rejection handler that never runs because the promise resolved.
func (r *Run) ExpectAssertions(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expected = n
}

// AssertionCount returns the number of assertions evaluated so far.
func (r *Run) AssertionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assertions
}

func (r *Run) recordAssertion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assertions++
}

func (r *Run) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *Run) recordDoubleCompletion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doubleCompletions++
}

// DoubleCompletions returns how many times the completion handle was
// invoked after the run had already settled.
func (r *Run) DoubleCompletions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doubleCompletions
}

// firstFailure returns the first assertion failure recorded during the run,
// or nil if every assertion passed.
func (r *Run) firstFailure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) == 0 {
		return nil
	}
	return r.failures[0]
}

// checkAssertionCount verifies the declared assertion count, if any.
func (r *Run) checkAssertionCount() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expected < 0 || r.assertions == r.expected {
		return nil
	}
	return fmt.Errorf("%w: expected %d assertions, got %d", ErrAssertionCountMismatch, r.expected, r.assertions)
}
