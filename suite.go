package testgate

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Result is the recorded outcome of one test case within a suite run.
type Result struct {
	Name    string
	Outcome Outcome
}

// Suite registers test cases and runs them strictly one at a time: a case's
// outcome is determined before the next case starts, so two cases'
// completion logic never interleaves. A failing or timed-out case is
// recorded and the run continues; the suite never aborts on a single
// case's failure.
//
// Suite implements Subject: observers receive CloudEvents for suite and
// per-case lifecycle transitions.
type Suite struct {
	name           string
	logger         Logger
	gate           *Gate
	gatePolicy     DoubleCompletionPolicy
	defaultTimeout time.Duration

	mu    sync.RWMutex
	cases []*TestCase

	observerMu sync.RWMutex
	observers  []observerEntry

	// runMu serializes suite runs so scheduled, watched, and direct runs
	// never overlap.
	runMu sync.Mutex

	// resultMu guards the retained results separately from runMu so
	// Results never waits on a run in flight.
	resultMu    sync.Mutex
	lastResults []Result
	lastRunID   string
}

type observerEntry struct {
	observer     Observer
	eventTypes   []string
	registeredAt time.Time
}

// SuiteOption configures a Suite.
type SuiteOption func(*Suite)

// WithSuiteName sets the suite's name, used as the event source.
func WithSuiteName(name string) SuiteOption {
	return func(s *Suite) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the structured logger the suite and its gate log through.
func WithLogger(logger Logger) SuiteOption {
	return func(s *Suite) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultTimeout sets the bounded wait applied to cases registered
// without a per-case override.
func WithDefaultTimeout(d time.Duration) SuiteOption {
	return func(s *Suite) {
		if d > 0 {
			s.defaultTimeout = d
		}
	}
}

// WithSuiteDoubleCompletionPolicy sets the gate policy for completion
// handles invoked after settlement.
func WithSuiteDoubleCompletionPolicy(policy DoubleCompletionPolicy) SuiteOption {
	return func(s *Suite) {
		s.gatePolicy = policy
	}
}

// NewSuite creates a suite with the default timeout and report policy.
func NewSuite(opts ...SuiteOption) *Suite {
	s := &Suite{
		name:           "testgate",
		logger:         NoopLogger{},
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = NewGate(
		WithGateLogger(s.logger),
		WithDoubleCompletionPolicy(s.gatePolicy),
	)
	return s
}

// NewSuiteFromConfig creates a suite from a validated SuiteConfig.
func NewSuiteFromConfig(cfg *SuiteConfig, opts ...SuiteOption) (*Suite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("suite config invalid: %w", err)
	}
	policy, err := ParseDoubleCompletionPolicy(cfg.DoubleCompletionPolicy)
	if err != nil {
		return nil, fmt.Errorf("suite config invalid: %w", err)
	}
	base := []SuiteOption{
		WithSuiteName(cfg.Name),
		WithDefaultTimeout(cfg.DefaultTimeout.Std()),
		WithSuiteDoubleCompletionPolicy(policy),
	}
	return NewSuite(append(base, opts...)...), nil
}

// Name returns the suite's name.
func (s *Suite) Name() string {
	return s.name
}

// Test registers a test case. The body may be any of the supported shapes
// (see NewTestCase); the shape is resolved here, once, and an unsupported
// shape is rejected immediately rather than at run time.
func (s *Suite) Test(name string, body any, opts ...TestOption) error {
	defaults := []TestOption{WithTimeout(s.defaultTimeout)}
	tc, err := NewTestCase(name, body, append(defaults, opts...)...)
	if err != nil {
		return fmt.Errorf("failed to register test %q: %w", name, err)
	}

	s.mu.Lock()
	s.cases = append(s.cases, tc)
	s.mu.Unlock()

	s.logger.Debug("Registered test case", "test", name, "kind", tc.Kind.String(), "timeout", tc.Timeout)
	s.emit(context.Background(), EventTypeTestRegistered, map[string]interface{}{
		"test": name,
		"kind": tc.Kind.String(),
	})
	return nil
}

// Run executes every registered case in registration order and returns one
// Result per case. Cancelling ctx fails the remaining cases' waits but
// still yields a terminal outcome for each.
func (s *Suite) Run(ctx context.Context) []Result {
	if ctx == nil {
		ctx = context.Background()
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	runID := generateEventID()
	s.mu.RLock()
	cases := slices.Clone(s.cases)
	s.mu.RUnlock()

	s.logger.Info("Suite run started", "suite", s.name, "runId", runID, "cases", len(cases))
	s.emit(ctx, EventTypeSuiteStarted, map[string]interface{}{
		"runId": runID,
		"cases": len(cases),
	})

	results := make([]Result, 0, len(cases))
	passed, failed, timedOut := 0, 0, 0
	for _, tc := range cases {
		s.emit(ctx, EventTypeTestStarted, map[string]interface{}{
			"runId": runID,
			"test":  tc.Name,
		})

		outcome := s.gate.Run(ctx, tc)
		results = append(results, Result{Name: tc.Name, Outcome: outcome})

		data := map[string]interface{}{
			"runId":      runID,
			"test":       tc.Name,
			"durationMs": outcome.Duration.Milliseconds(),
		}
		switch outcome.Status {
		case StatusPassed:
			passed++
			s.emit(ctx, EventTypeTestPassed, data)
		case StatusTimedOut:
			timedOut++
			data["reason"] = outcome.Reason.Error()
			s.emit(ctx, EventTypeTestTimedOut, data)
		case StatusFailed, StatusPending:
			failed++
			if outcome.Reason != nil {
				data["reason"] = outcome.Reason.Error()
			}
			s.emit(ctx, EventTypeTestFailed, data)
		}
	}

	s.logger.Info("Suite run completed", "suite", s.name, "runId", runID,
		"passed", passed, "failed", failed, "timedOut", timedOut)
	s.emit(ctx, EventTypeSuiteCompleted, map[string]interface{}{
		"runId":    runID,
		"passed":   passed,
		"failed":   failed,
		"timedOut": timedOut,
	})

	s.resultMu.Lock()
	s.lastResults = results
	s.lastRunID = runID
	s.resultMu.Unlock()
	return results
}

// Results returns the results of the most recent completed run. It does
// not wait for a run in flight; callers such as the status server see the
// previous run's results until the current one completes.
func (s *Suite) Results() (string, []Result) {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	return s.lastRunID, slices.Clone(s.lastResults)
}

// Len returns the number of registered cases.
func (s *Suite) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// RegisterObserver implements Subject. Observers can filter by event type;
// an empty filter receives all events.
func (s *Suite) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrNilObserver
	}
	s.observerMu.Lock()
	defer s.observerMu.Unlock()

	// Re-registration replaces the previous filter.
	for i, entry := range s.observers {
		if entry.observer.ObserverID() == observer.ObserverID() {
			s.observers[i] = observerEntry{observer: observer, eventTypes: eventTypes, registeredAt: entry.registeredAt}
			return nil
		}
	}
	s.observers = append(s.observers, observerEntry{
		observer:     observer,
		eventTypes:   eventTypes,
		registeredAt: time.Now(),
	})
	return nil
}

// UnregisterObserver implements Subject.
func (s *Suite) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrNilObserver
	}
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observers = slices.DeleteFunc(s.observers, func(entry observerEntry) bool {
		return entry.observer.ObserverID() == observer.ObserverID()
	})
	return nil
}

// NotifyObservers implements Subject. Observer errors are logged and never
// affect test outcomes or stop delivery to later observers.
func (s *Suite) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	s.observerMu.RLock()
	entries := slices.Clone(s.observers)
	s.observerMu.RUnlock()

	for _, entry := range entries {
		if !entry.wants(event.Type()) {
			continue
		}
		if err := entry.observer.OnEvent(ctx, event); err != nil {
			s.logger.Error("Observer failed to handle event",
				"observer", entry.observer.ObserverID(), "eventType", event.Type(), "error", err)
		}
	}
	return nil
}

// GetObservers implements Subject.
func (s *Suite) GetObservers() []ObserverInfo {
	s.observerMu.RLock()
	defer s.observerMu.RUnlock()

	infos := make([]ObserverInfo, 0, len(s.observers))
	for _, entry := range s.observers {
		infos = append(infos, ObserverInfo{
			ID:           entry.observer.ObserverID(),
			EventTypes:   slices.Clone(entry.eventTypes),
			RegisteredAt: entry.registeredAt,
		})
	}
	return infos
}

func (entry observerEntry) wants(eventType string) bool {
	if len(entry.eventTypes) == 0 {
		return true
	}
	return slices.Contains(entry.eventTypes, eventType)
}

func (s *Suite) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	event := NewCloudEvent(eventType, "testgate/"+s.name, data, nil)
	if err := s.NotifyObservers(ctx, event); err != nil {
		s.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}
