package testgate

// Done is the completion handle passed to callback-style test bodies.
// The body must invoke it exactly once: with nil to signal success, or with
// a non-nil error to signal failure.
//
// The first invocation settles the run. Invocations after the run has
// settled (including after a timeout) never alter the terminal outcome;
// how they are surfaced is governed by the gate's DoubleCompletionPolicy
// and is deterministic either way.
//
// Assertion failures that occur inside asynchronous callbacks must be
// funneled into the handle by the test author:
//
//	fetchData(func(data string, err error) {
//	    if err != nil {
//	        done(err)
//	        return
//	    }
//	    done(r.Expect(data).ToBe("peanut butter"))
//	})
//
// The gate does not observe exceptions raised inside such callbacks; it only
// observes the handle.
type Done func(err error)

// DoubleCompletionPolicy controls how the gate treats a completion handle
// invoked after the run has already settled.
type DoubleCompletionPolicy int

const (
	// ReportDoubleCompletion logs a warning and records the extra invocation
	// on the run. The terminal outcome is never reopened. This is the
	// default policy.
	ReportDoubleCompletion DoubleCompletionPolicy = iota

	// IgnoreDoubleCompletion silently discards invocations after settlement.
	IgnoreDoubleCompletion
)

func (p DoubleCompletionPolicy) String() string {
	switch p {
	case ReportDoubleCompletion:
		return "report"
	case IgnoreDoubleCompletion:
		return "ignore"
	}
	return "unknown"
}

// ParseDoubleCompletionPolicy converts a configuration string into a policy.
func ParseDoubleCompletionPolicy(s string) (DoubleCompletionPolicy, error) {
	switch s {
	case "report", "":
		return ReportDoubleCompletion, nil
	case "ignore":
		return IgnoreDoubleCompletion, nil
	}
	return ReportDoubleCompletion, ErrUnknownDoubleCompletionPolicy
}
