package publisher

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream under the given field key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher drops every message. It is used when no Redis server is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(key string, message []byte) error { return nil }

func (NopPublisher) TrimStreams() error { return nil }

func (NopPublisher) Close() error { return nil }
