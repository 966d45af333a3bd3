package interfaces

// EventPublisher publishes domain events to interested consumers. Publishing
// happens after locks are released and is best effort; a publish failure
// never affects a committed transfer.
type EventPublisher interface {
	Publish(topic string, event any) error
}
