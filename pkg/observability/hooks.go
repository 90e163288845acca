package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/botflow/pkg/domain"
)

// Merge combines hooks so that each event reaches every non-nil callback,
// in argument order.
func Merge(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var route []func(context.Context, *domain.RouteEvent)
	var visit []func(context.Context, *domain.NodeEvent)
	var delivery []func(context.Context, *domain.DeliveryEvent)
	for _, h := range hooks {
		if h.OnRoute != nil {
			route = append(route, h.OnRoute)
		}
		if h.OnNodeVisit != nil {
			visit = append(visit, h.OnNodeVisit)
		}
		if h.OnDelivery != nil {
			delivery = append(delivery, h.OnDelivery)
		}
	}

	var out domain.LifecycleHooks
	if len(route) > 0 {
		out.OnRoute = func(ctx context.Context, e *domain.RouteEvent) {
			for _, fn := range route {
				fn(ctx, e)
			}
		}
	}
	if len(visit) > 0 {
		out.OnNodeVisit = func(ctx context.Context, e *domain.NodeEvent) {
			for _, fn := range visit {
				fn(ctx, e)
			}
		}
	}
	if len(delivery) > 0 {
		out.OnDelivery = func(ctx context.Context, e *domain.DeliveryEvent) {
			for _, fn := range delivery {
				fn(ctx, e)
			}
		}
	}
	return out
}

// LogHooks writes every lifecycle event to logger: routes at Info, node
// visits at Debug, failed deliveries at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.InfoContext(ctx, "route",
				"flow_id", e.FlowID,
				"conversation_id", e.ConversationID,
				"kind", e.Kind,
				"route", e.Route,
				"actions", e.Actions,
				"pending_node_id", e.PendingNodeID,
				"duration", e.Duration,
			)
		},
		OnNodeVisit: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_visit", "flow_id", e.FlowID, "node_id", e.NodeID, "type", e.NodeKind)
		},
		OnDelivery: func(ctx context.Context, e *domain.DeliveryEvent) {
			if e.Err == nil {
				return
			}
			logger.WarnContext(ctx, "delivery_failed",
				"flow_id", e.FlowID,
				"conversation_id", e.ConversationID,
				"action", e.Action,
				"err", e.Err,
			)
		},
	}
}
