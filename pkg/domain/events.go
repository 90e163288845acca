package domain

import (
	"context"
	"time"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	FlowID    string    `json:"flow_id"`
}

// RouteEvent is emitted once per handled inbound event.
type RouteEvent struct {
	EventBase
	ConversationID string        `json:"conversation_id"`
	Kind           EventKind     `json:"kind"`
	Route          Route         `json:"route"`
	Actions        int           `json:"actions"`
	PendingNodeID  string        `json:"pending_node_id,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// NodeEvent is emitted for every node executed during a traversal.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	NodeKind Kind   `json:"node_kind"`
}

// DeliveryEvent is emitted for every action handed to the transport.
type DeliveryEvent struct {
	EventBase
	ConversationID string     `json:"conversation_id"`
	Action         ActionType `json:"action"`
	Err            error      `json:"-"`
}

// LifecycleHooks defines callbacks for observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnRoute     func(context.Context, *RouteEvent)
	OnNodeVisit func(context.Context, *NodeEvent)
	OnDelivery  func(context.Context, *DeliveryEvent)
}
