// Observer pattern interfaces for event-driven visibility into suite
// execution. Events use the CloudEvents specification for standardized
// format and better interoperability with external systems.
package testgate

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of
// suite and test case events. Observers register with a Subject (typically
// a Suite) and are called synchronously between test cases, so they should
// handle events quickly.
type Observer interface {
	// OnEvent is called when an event occurs that the observer is
	// interested in.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer, used for
	// registration tracking and debugging.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed.
type Subject interface {
	// RegisterObserver adds an observer to receive notifications.
	// Observers can optionally filter events by type using the eventTypes
	// parameter; an empty list means all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent: unregistering an
	// observer that was never registered is not an error.
	UnregisterObserver(observer Observer) error

	// NotifyObservers sends an event to all registered observers.
	// Observer errors are logged, never propagated into test outcomes.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	// ID is the unique identifier of the observer
	ID string `json:"id"`

	// EventTypes are the event types this observer is subscribed to.
	// Empty slice means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt indicates when the observer was registered
	RegisteredAt time.Time `json:"registeredAt"`
}

// EventType constants for suite and test case events.
// Following CloudEvents specification, these use reverse domain notation.
const (
	// Suite lifecycle events
	EventTypeSuiteStarted   = "com.testgate.suite.started"
	EventTypeSuiteCompleted = "com.testgate.suite.completed"

	// Per-case events
	EventTypeTestRegistered = "com.testgate.test.registered"
	EventTypeTestStarted    = "com.testgate.test.started"
	EventTypeTestPassed     = "com.testgate.test.passed"
	EventTypeTestFailed     = "com.testgate.test.failed"
	EventTypeTestTimedOut   = "com.testgate.test.timed_out"

	// Trigger events
	EventTypeWatchTriggered    = "com.testgate.watch.triggered"
	EventTypeScheduleTriggered = "com.testgate.schedule.triggered"
)

// FunctionalObserver provides a simple way to create observers using
// functions, without defining full structs.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer that delegates to handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
