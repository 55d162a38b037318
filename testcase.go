package testgate

import (
	"fmt"
	"time"

	"github.com/GoCodeAlone/testgate/promise"
)

// DefaultTimeout bounds a test case's wait when no override is given.
const DefaultTimeout = 5 * time.Second

// BodyKind identifies the completion idiom of a test body. The kind is
// resolved once, at registration, by the shape of the function supplied to
// Suite.Test or NewTestCase. Async-style bodies collapse into KindDeferred:
// a body that does its work in a goroutine and settles a promise is
// indistinguishable from one that returns a promise directly, and the gate
// need not tell them apart.
type BodyKind int

const (
	// KindSync runs and returns immediately; a non-nil error fails the case.
	KindSync BodyKind = iota

	// KindCallback receives a completion handle it must invoke exactly once.
	KindCallback

	// KindDeferred returns a deferred-result handle the gate takes
	// ownership of.
	KindDeferred
)

func (k BodyKind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindCallback:
		return "callback"
	case KindDeferred:
		return "deferred"
	}
	return "unknown"
}

// SyncBody is a synchronous test body.
type SyncBody func(r *Run) error

// CallbackBody is a callback-style test body. It must invoke done exactly
// once, from whatever goroutine its asynchronous work completes on.
type CallbackBody func(r *Run, done Done)

// DeferredBody is a promise-returning test body. The gate observes the
// returned promise's settlement. Asynchronous work the body starts without
// tying it into the returned promise is invisible to the gate; that is a
// caller error the gate cannot detect.
type DeferredBody func(r *Run) *promise.Promise[any]

// TestCase is one registered test: a name, a body of one of the three
// kinds, a bounded wait, and an optional declared assertion count.
type TestCase struct {
	Name    string
	Kind    BodyKind
	Timeout time.Duration

	// ExpectedAssertions pre-declares the run's assertion count when > 0.
	// Bodies can also declare it themselves via Run.ExpectAssertions.
	ExpectedAssertions int

	syncBody     SyncBody
	callbackBody CallbackBody
	deferredBody DeferredBody
}

// TestOption customizes a test case at registration.
type TestOption func(*TestCase)

// WithTimeout overrides the case's bounded wait.
func WithTimeout(d time.Duration) TestOption {
	return func(tc *TestCase) {
		tc.Timeout = d
	}
}

// WithExpectedAssertions declares that exactly n assertions must fire
// during the run.
func WithExpectedAssertions(n int) TestOption {
	return func(tc *TestCase) {
		tc.ExpectedAssertions = n
	}
}

// NewTestCase builds a TestCase from a name and a body of any supported
// shape. Supported shapes:
//
//	func(r *Run) error                      — synchronous
//	func(r *Run, done Done)                 — callback style
//	func(r *Run) *promise.Promise[any]      — promise returning / async
//
// Any other shape is rejected with ErrUnsupportedBodyShape.
func NewTestCase(name string, body any, opts ...TestOption) (*TestCase, error) {
	if name == "" {
		return nil, ErrEmptyTestName
	}
	if body == nil {
		return nil, fmt.Errorf("%w: test %q", ErrNilTestBody, name)
	}

	tc := &TestCase{
		Name:    name,
		Timeout: DefaultTimeout,
	}

	switch b := body.(type) {
	case SyncBody:
		tc.Kind = KindSync
		tc.syncBody = b
	case func(r *Run) error:
		tc.Kind = KindSync
		tc.syncBody = b
	case CallbackBody:
		tc.Kind = KindCallback
		tc.callbackBody = b
	case func(r *Run, done Done):
		tc.Kind = KindCallback
		tc.callbackBody = b
	case DeferredBody:
		tc.Kind = KindDeferred
		tc.deferredBody = b
	case func(r *Run) *promise.Promise[any]:
		tc.Kind = KindDeferred
		tc.deferredBody = b
	default:
		return nil, fmt.Errorf("%w: test %q has body type %T", ErrUnsupportedBodyShape, name, body)
	}

	for _, opt := range opts {
		opt(tc)
	}
	if tc.Timeout <= 0 {
		tc.Timeout = DefaultTimeout
	}

	return tc, nil
}
