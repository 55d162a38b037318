package testgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/GoCodeAlone/testgate/promise"
)

// Static error variables for BDD tests to comply with err113 linting rule
var (
	errNoGateInContext      = errors.New("no gate was created in background")
	errNoTestCaseRegistered = errors.New("no test case was registered")
	errNoOutcomeRecorded    = errors.New("no outcome was recorded")
	errOutcomeNotPassed     = errors.New("expected the outcome to be passed")
	errOutcomeNotFailed     = errors.New("expected the outcome to be failed")
	errOutcomeNotTimedOut   = errors.New("expected the outcome to be timed out")
	errReasonMissing        = errors.New("outcome has no failure reason")
	errReasonMismatch       = errors.New("failure reason mismatch")
	errFetchBroken          = errors.New("fetch broken")
)

// GateBDDContext holds the test context for BDD scenarios
type GateBDDContext struct {
	gate     *Gate
	testCase *TestCase
	outcome  *Outcome
}

func (ctx *GateBDDContext) resetContext() {
	ctx.gate = nil
	ctx.testCase = nil
	ctx.outcome = nil
}

func (ctx *GateBDDContext) aCompletionGate() error {
	ctx.gate = NewGate()
	return nil
}

func (ctx *GateBDDContext) register(body any, opts ...TestOption) error {
	tc, err := NewTestCase("bdd case", body, opts...)
	if err != nil {
		return fmt.Errorf("failed to build test case: %w", err)
	}
	ctx.testCase = tc
	return nil
}

func (ctx *GateBDDContext) aCallbackTestThatSignalsSuccess() error {
	return ctx.register(func(r *Run, done Done) {
		time.AfterFunc(10*time.Millisecond, func() { done(nil) })
	}, WithTimeout(time.Second))
}

func (ctx *GateBDDContext) aCallbackTestThatSignalsAnError() error {
	return ctx.register(func(r *Run, done Done) {
		time.AfterFunc(10*time.Millisecond, func() { done(errFetchBroken) })
	}, WithTimeout(time.Second))
}

func (ctx *GateBDDContext) aCallbackTestThatNeverSignals(timeout string) error {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("bad timeout in step: %w", err)
	}
	return ctx.register(func(r *Run, done Done) {}, WithTimeout(d))
}

func (ctx *GateBDDContext) aCallbackTestThatSignalsSuccessTwice() error {
	return ctx.register(func(r *Run, done Done) {
		done(nil)
		done(nil)
	}, WithTimeout(time.Second))
}

func (ctx *GateBDDContext) aPromiseTestThatFulfills() error {
	return ctx.register(func(r *Run) *promise.Promise[any] {
		return promise.Then(promise.Resolved[any]("peanut butter"), func(data any) (any, error) {
			return data, r.Expect(data).ToBe("peanut butter")
		})
	}, WithTimeout(time.Second))
}

func (ctx *GateBDDContext) aPromiseTestWhoseRejectionIsNotConsumed() error {
	return ctx.register(func(r *Run) *promise.Promise[any] {
		return promise.Rejected[any](errFetchBroken)
	}, WithTimeout(time.Second))
}

func (ctx *GateBDDContext) aPromiseTestWithSkippedCatchBranch() error {
	return ctx.register(func(r *Run) *promise.Promise[any] {
		r.ExpectAssertions(1)
		return promise.Catch(promise.Resolved[any]("unexpected success"), func(reason error) (any, error) {
			return nil, r.Expect(reason).ToMatch("error")
		})
	}, WithTimeout(time.Second))
}

func (ctx *GateBDDContext) iRunTheTestCase() error {
	if ctx.gate == nil {
		return errNoGateInContext
	}
	if ctx.testCase == nil {
		return errNoTestCaseRegistered
	}
	outcome := ctx.gate.Run(context.Background(), ctx.testCase)
	ctx.outcome = &outcome
	return nil
}

func (ctx *GateBDDContext) theOutcomeShouldBe(status string) error {
	if ctx.outcome == nil {
		return errNoOutcomeRecorded
	}
	switch status {
	case "passed":
		if ctx.outcome.Status != StatusPassed {
			return fmt.Errorf("%w, got %s", errOutcomeNotPassed, ctx.outcome)
		}
	case "failed":
		if ctx.outcome.Status != StatusFailed {
			return fmt.Errorf("%w, got %s", errOutcomeNotFailed, ctx.outcome)
		}
	case "timed out":
		if ctx.outcome.Status != StatusTimedOut {
			return fmt.Errorf("%w, got %s", errOutcomeNotTimedOut, ctx.outcome)
		}
	}
	return nil
}

func (ctx *GateBDDContext) theFailureReasonShouldMention(fragment string) error {
	if ctx.outcome == nil {
		return errNoOutcomeRecorded
	}
	if ctx.outcome.Reason == nil {
		return errReasonMissing
	}
	if !strings.Contains(ctx.outcome.Reason.Error(), fragment) {
		return fmt.Errorf("%w: reason %q does not mention %q", errReasonMismatch, ctx.outcome.Reason.Error(), fragment)
	}
	return nil
}

// InitializeGateScenario initializes the BDD test scenario
func InitializeGateScenario(ctx *godog.ScenarioContext) {
	testCtx := &GateBDDContext{}

	// Reset context before each scenario
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.resetContext()
		return ctx, nil
	})

	ctx.Step(`^a completion gate$`, testCtx.aCompletionGate)

	ctx.Step(`^a callback test that signals success after a short delay$`, testCtx.aCallbackTestThatSignalsSuccess)
	ctx.Step(`^a callback test that signals an error after a short delay$`, testCtx.aCallbackTestThatSignalsAnError)
	ctx.Step(`^a callback test that never signals with a timeout of (\S+)$`, testCtx.aCallbackTestThatNeverSignals)
	ctx.Step(`^a callback test that signals success twice$`, testCtx.aCallbackTestThatSignalsSuccessTwice)
	ctx.Step(`^a promise test that fulfills with the expected value$`, testCtx.aPromiseTestThatFulfills)
	ctx.Step(`^a promise test whose rejection is not consumed$`, testCtx.aPromiseTestWhoseRejectionIsNotConsumed)
	ctx.Step(`^a promise test expecting one assertion whose catch branch never runs$`, testCtx.aPromiseTestWithSkippedCatchBranch)

	ctx.Step(`^I run the test case$`, testCtx.iRunTheTestCase)
	ctx.Step(`^the outcome should be (passed|failed|timed out)$`, testCtx.theOutcomeShouldBe)
	ctx.Step(`^the failure reason should mention "([^"]*)"$`, testCtx.theFailureReasonShouldMention)
}

// TestAsyncCompletion runs the BDD tests for the completion gate
func TestAsyncCompletion(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeGateScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/async_completion.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
