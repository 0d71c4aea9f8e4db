package service

// Notifier publishes stock-change events to observability collaborators
// (the websocket hub in production, a recorder in tests). Publishing is
// fire-and-forget; it never participates in a unit of work.
type Notifier interface {
	BroadcastJSON(payload interface{})
}
