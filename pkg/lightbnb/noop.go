package lightbnb

import "context"

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// UserCreated does nothing and returns nil
func (n *NoopEventSink) UserCreated(ctx context.Context, user *User) error {
	return nil
}

// PropertyCreated does nothing and returns nil
func (n *NoopEventSink) PropertyCreated(ctx context.Context, property *Property) error {
	return nil
}
