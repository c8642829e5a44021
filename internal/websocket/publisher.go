package websocket

// EventPublisher is the services' view of the hub. Services publish domain
// events without knowing whether anyone is listening.
type EventPublisher interface {
	// Publish sends an event to every client in the workspace
	Publish(workspaceID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting to the workspace
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// NoOpPublisher discards events. Used in tests and when the hub is disabled.
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(workspaceID int32, event Event) {}
