package testgate

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/GoCodeAlone/testgate/promise"
)

// Expectation is a matcher surface over one value. Every matcher evaluation
// increments the run's assertion counter, and a mismatch is both recorded on
// the run and returned so the body can feed it into its terminal signal
// (return it, pass it to done, or reject a promise with it).
type Expectation struct {
	run   *Run
	value any
}

// Expect starts an assertion on value for this run.
func (r *Run) Expect(value any) *Expectation {
	return &Expectation{run: r, value: value}
}

// evaluate records one assertion evaluation and, on mismatch, records and
// returns the failure.
func (e *Expectation) evaluate(ok bool, mismatch error) error {
	e.run.recordAssertion()
	if ok {
		return nil
	}
	e.run.recordFailure(mismatch)
	return mismatch
}

// ToBe asserts simple value equality, comparing with == where the types
// allow it and falling back to deep equality otherwise.
func (e *Expectation) ToBe(expected any) error {
	return e.evaluate(equal(e.value, expected),
		fmt.Errorf("%w: expected %v to be %v", ErrAssertionMismatch, e.value, expected))
}

// ToEqual asserts deep equality.
func (e *Expectation) ToEqual(expected any) error {
	return e.evaluate(reflect.DeepEqual(e.value, expected),
		fmt.Errorf("%w: expected %v to equal %v", ErrAssertionMismatch, e.value, expected))
}

// ToMatch asserts that the value's string form matches pattern, a regular
// expression. Plain substrings are valid patterns.
func (e *Expectation) ToMatch(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return e.evaluate(false, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err))
	}
	s := stringify(e.value)
	return e.evaluate(re.MatchString(s),
		fmt.Errorf("%w: expected %q to match %q", ErrAssertionMismatch, s, pattern))
}

// ToContain asserts that the value's string form contains substr.
func (e *Expectation) ToContain(substr string) error {
	s := stringify(e.value)
	return e.evaluate(strings.Contains(s, substr),
		fmt.Errorf("%w: expected %q to contain %q", ErrAssertionMismatch, s, substr))
}

// Resolves returns a deferred expectation that passes when the expected
// value, which must be a *promise.Promise[any], fulfills with a matching
// value. The wrapper produced by its matchers is itself a deferred-result
// handle driven by the same gate logic as any promise-returning body.
func (e *Expectation) Resolves() *DeferredExpectation {
	return e.deferred(false)
}

// Rejects returns a deferred expectation that passes when the expected
// value, which must be a *promise.Promise[any], rejects with a matching
// reason.
func (e *Expectation) Rejects() *DeferredExpectation {
	return e.deferred(true)
}

func (e *Expectation) deferred(wantRejection bool) *DeferredExpectation {
	d := &DeferredExpectation{run: e.run, wantRejection: wantRejection}
	p, ok := e.value.(*promise.Promise[any])
	if !ok || p == nil {
		d.invalid = fmt.Errorf("%w: got %T", ErrNotAPromise, e.value)
		return d
	}
	d.p = p
	return d
}

// DeferredExpectation applies a matcher to the settlement of a promise.
// Its matchers return a new promise that fulfills iff the original settles
// on the expected side and the settled value or reason matches; otherwise
// it rejects with a descriptive mismatch reason. The assertion is counted
// when the original promise settles and the matcher evaluates.
type DeferredExpectation struct {
	run           *Run
	p             *promise.Promise[any]
	wantRejection bool
	invalid       error
}

// ToBe matches the fulfilled value (Resolves) or the rejection reason's
// string form (Rejects) by equality.
func (d *DeferredExpectation) ToBe(expected any) *promise.Promise[any] {
	return d.wrap(func(settled any) error {
		exp := &Expectation{run: d.run, value: settled}
		return exp.ToBe(expected)
	})
}

// ToMatch matches the fulfilled value or rejection reason against a
// regular expression.
func (d *DeferredExpectation) ToMatch(pattern string) *promise.Promise[any] {
	return d.wrap(func(settled any) error {
		exp := &Expectation{run: d.run, value: settled}
		return exp.ToMatch(pattern)
	})
}

// wrap builds the wrapper promise: await the original, check which side it
// settled on, then apply the matcher to the settled value or reason.
func (d *DeferredExpectation) wrap(match func(settled any) error) *promise.Promise[any] {
	return promise.Go(func() (any, error) {
		if d.invalid != nil {
			exp := &Expectation{run: d.run, value: nil}
			return nil, exp.evaluate(false, d.invalid)
		}

		value, err := d.p.Await(d.run.Context())
		if d.run.Context().Err() != nil {
			if !d.p.Settled() {
				// The run settled before the promise did; abandon the
				// wait without counting an assertion.
				return nil, err
			}
			// Settled in the same instant; re-read the settlement.
			value, err = d.p.Await(context.Background())
		}

		if d.wantRejection {
			if err == nil {
				exp := &Expectation{run: d.run, value: value}
				return nil, exp.evaluate(false,
					fmt.Errorf("%w: expected rejection, promise fulfilled with %v", ErrAssertionMismatch, value))
			}
			if mismatch := match(err.Error()); mismatch != nil {
				return nil, mismatch
			}
			return err.Error(), nil
		}

		if err != nil {
			exp := &Expectation{run: d.run, value: nil}
			return nil, exp.evaluate(false,
				fmt.Errorf("%w: expected fulfillment, promise rejected with %v", ErrAssertionMismatch, err))
		}
		if mismatch := match(value); mismatch != nil {
			return nil, mismatch
		}
		return value, nil
	})
}

// equal compares with == when both values are comparable, otherwise deeply.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta.Comparable() && tb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case error:
		return s.Error()
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}
