// Package testgate implements the asynchronous completion contract of a
// test runner: given one registered test case whose body may be
// synchronous, callback-style, or promise-returning, drive it to exactly
// one terminal outcome (passed, failed, or timed out) within a bounded
// wait.
package testgate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/GoCodeAlone/testgate/promise"
)

// Gate decides, for a single test case, when that case's execution is done.
// It dispatches on the body's kind, races the body against the case's
// timeout, enforces a declared assertion count at settlement, and reports
// exactly one terminal Outcome per Run call.
//
// The timeout is the only failure the gate manufactures itself; every other
// failure is reported verbatim from the body or its assertions. The timer
// cancels the gate's wait, not any in-flight work the body started: an
// outstanding timer inside the body may still fire after the case has
// timed out, and such late completions never alter the terminal outcome.
type Gate struct {
	logger Logger
	policy DoubleCompletionPolicy
	clock  func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger used for per-case diagnostics.
func WithGateLogger(logger Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithDoubleCompletionPolicy sets how completion handles invoked after
// settlement are treated.
func WithDoubleCompletionPolicy(policy DoubleCompletionPolicy) GateOption {
	return func(g *Gate) {
		g.policy = policy
	}
}

// WithClock overrides the time source used for outcome durations.
func WithClock(clock func() time.Time) GateOption {
	return func(g *Gate) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// NewGate creates a gate with the default report policy and a no-op logger.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		logger: NoopLogger{},
		policy: ReportDoubleCompletion,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run drives tc to completion and returns its terminal Outcome. Run blocks
// the calling goroutine for at most tc.Timeout (plus the synchronous part
// of the body); it never blocks forever on a body that fails to signal.
// Run never panics on a misbehaving body; panics are recovered and reported
// as a failed outcome.
//
// The supplied context bounds the gate's wait in addition to the case
// timeout; cancelling it fails the case with ErrRunCancelled.
func (g *Gate) Run(ctx context.Context, tc *TestCase) Outcome {
	if tc == nil {
		return failedOutcome(ErrNilTestCase)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// The run context is cancelled once the outcome is decided; waiters on
	// a promise that never settles exit instead of leaking.
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := newRun(tc.Name, g.logger)
	run.ctx = runCtx
	if tc.ExpectedAssertions > 0 {
		run.ExpectAssertions(tc.ExpectedAssertions)
	}

	g.logger.Debug("Running test case", "test", tc.Name, "kind", tc.Kind.String(), "timeout", tc.Timeout)

	start := g.clock()
	var outcome Outcome
	switch tc.Kind {
	case KindSync:
		outcome = g.runSync(run, tc)
	case KindCallback:
		outcome = g.runCallback(ctx, run, tc)
	case KindDeferred:
		outcome = g.runDeferred(ctx, run, tc)
	default:
		outcome = failedOutcome(fmt.Errorf("%w: kind %d", ErrUnsupportedBodyShape, tc.Kind))
	}
	outcome.Duration = g.clock().Sub(start)

	g.logSettlement(tc, outcome)
	return outcome
}

// runSync invokes the body inline. A returned or recovered error fails the
// case; otherwise the recorded assertion state decides.
func (g *Gate) runSync(run *Run, tc *TestCase) Outcome {
	err := g.invoke(tc.Name, func() error {
		return tc.syncBody(run)
	})
	if err != nil {
		return failedOutcome(err)
	}
	return g.finalize(run)
}

// runCallback invokes the body with a completion handle, then suspends
// until the handle is called or the timer fires, whichever settles first.
// Settlement is first-writer-wins: the handle and the timer both race to
// flip a single guard, and the loser's write is a no-op.
func (g *Gate) runCallback(ctx context.Context, run *Run, tc *TestCase) Outcome {
	var settled atomic.Bool
	outcomes := make(chan Outcome, 1)

	settle := func(o Outcome) bool {
		if settled.CompareAndSwap(false, true) {
			outcomes <- o
			return true
		}
		return false
	}

	done := Done(func(err error) {
		var o Outcome
		if err != nil {
			o = failedOutcome(err)
		} else {
			o = g.finalize(run)
		}
		if !settle(o) {
			run.recordDoubleCompletion()
			if g.policy == ReportDoubleCompletion {
				g.logger.Warn("Completion handle invoked after settlement",
					"test", tc.Name, "error", err, "outcome", ErrDoubleCompletion)
			}
		}
	})

	// The body runs inline; its asynchronous work invokes done later from
	// whatever goroutine it completes on.
	if err := g.invoke(tc.Name, func() error {
		tc.callbackBody(run, done)
		return nil
	}); err != nil {
		settle(failedOutcome(err))
	}

	return g.await(ctx, tc, settle, outcomes)
}

// runDeferred takes ownership of the promise returned by the body and
// races its settlement against the timer. Rejections the body already
// consumed (via a Catch internal to the body) are invisible here; the gate
// only sees the final settled state of the promise it was handed.
func (g *Gate) runDeferred(ctx context.Context, run *Run, tc *TestCase) Outcome {
	var settled atomic.Bool
	outcomes := make(chan Outcome, 1)

	settle := func(o Outcome) bool {
		if settled.CompareAndSwap(false, true) {
			outcomes <- o
			return true
		}
		return false
	}

	var body *promise.Promise[any]
	err := g.invoke(tc.Name, func() error {
		body = tc.deferredBody(run)
		if body == nil {
			return fmt.Errorf("%w: test %q", ErrNilPromise, tc.Name)
		}
		return nil
	})
	if err != nil {
		return failedOutcome(err)
	}

	go func() {
		_, err := body.Await(run.Context())
		if run.Context().Err() != nil && !body.Settled() {
			// The case settled without the promise; nothing to report.
			return
		}
		if err != nil {
			settle(failedOutcome(fmt.Errorf("%w: %w", ErrUnhandledRejection, err)))
			return
		}
		settle(g.finalize(run))
	}()

	return g.await(ctx, tc, settle, outcomes)
}

// await is the shared suspension point: first writer wins between the
// body's settlement, the case timer, and context cancellation.
func (g *Gate) await(ctx context.Context, tc *TestCase, settle func(Outcome) bool, outcomes <-chan Outcome) Outcome {
	timer := time.NewTimer(tc.Timeout)
	defer timer.Stop()

	select {
	case o := <-outcomes:
		return o
	case <-timer.C:
		// If the body won the race in the same instant, its outcome is
		// already buffered and this settle is a no-op.
		settle(timedOutOutcome(tc.Timeout))
		return <-outcomes
	case <-ctx.Done():
		settle(failedOutcome(fmt.Errorf("%w: %w", ErrRunCancelled, ctx.Err())))
		return <-outcomes
	}
}

// finalize decides the outcome of a body that signalled success: any
// recorded assertion failure fails the case, then the declared assertion
// count is enforced.
func (g *Gate) finalize(run *Run) Outcome {
	if err := run.firstFailure(); err != nil {
		return failedOutcome(err)
	}
	if err := run.checkAssertionCount(); err != nil {
		return failedOutcome(err)
	}
	return passedOutcome()
}

// invoke calls fn, converting a panic into an error so a misbehaving body
// fails its own case instead of crashing the run.
func (g *Gate) invoke(testName string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: test %q: %v", ErrBodyPanic, testName, rec)
		}
	}()
	return fn()
}

func (g *Gate) logSettlement(tc *TestCase, outcome Outcome) {
	switch outcome.Status {
	case StatusPassed:
		g.logger.Info("Test passed", "test", tc.Name, "duration", outcome.Duration)
	case StatusFailed:
		g.logger.Error("Test failed", "test", tc.Name, "reason", outcome.Reason, "duration", outcome.Duration)
	case StatusTimedOut:
		g.logger.Error("Test timed out", "test", tc.Name, "timeout", tc.Timeout)
	case StatusPending:
		g.logger.Error("Test did not settle", "test", tc.Name)
	}
}
