package chainrpc

import "context"

// EventClient defines the marketplace WebSocket subscription interface.
type EventClient interface {
	// SubscribeExecutions subscribes to execution events matching the filter.
	SubscribeExecutions(ctx context.Context, filter ExecutionFilter) (<-chan ExecutionEvent, error)

	// Close closes the WebSocket connection.
	Close() error
}

// ExecutionFilter defines a subscription filter for execution events.
type ExecutionFilter struct {
	// EntryPoints limits events to these entry point labels. Empty matches all.
	EntryPoints []string
}

// ExecutionEvent represents one entry point execution observed on the node.
type ExecutionEvent struct {
	EntryPoint   string
	Status       string
	RevertReason string
	OrderHashes  []string
	BlockHeight  int64
}
