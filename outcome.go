package testgate

import (
	"fmt"
	"time"
)

// OutcomeStatus is the settlement state of a single test case run.
// Pending is the only non-terminal state; the three terminal states admit
// no transitions out.
type OutcomeStatus string

const (
	StatusPending  OutcomeStatus = "pending"
	StatusPassed   OutcomeStatus = "passed"
	StatusFailed   OutcomeStatus = "failed"
	StatusTimedOut OutcomeStatus = "timed_out"
)

// Terminal reports whether the status is one of the three terminal states.
func (s OutcomeStatus) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusTimedOut:
		return true
	case StatusPending:
		return false
	}
	return false
}

// Outcome is the terminal result of driving one test case to completion.
// Reason is nil for a passed case; for a failed case it is the body's own
// failure reported verbatim (possibly wrapped for classification); for a
// timed-out case it wraps ErrTimeout, the only failure the gate itself
// manufactures.
type Outcome struct {
	Status   OutcomeStatus
	Reason   error
	Duration time.Duration
}

// Passed reports whether the outcome is StatusPassed.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

func (o Outcome) String() string {
	if o.Reason != nil {
		return fmt.Sprintf("%s: %v", o.Status, o.Reason)
	}
	return string(o.Status)
}

func passedOutcome() Outcome {
	return Outcome{Status: StatusPassed}
}

func failedOutcome(reason error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason}
}

func timedOutOutcome(limit time.Duration) Outcome {
	return Outcome{Status: StatusTimedOut, Reason: fmt.Errorf("%w after %s", ErrTimeout, limit)}
}
