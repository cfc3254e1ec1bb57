package interfaces

import (
	"context"

	"relampago-bridge/internal/entities"
)

// Messenger is the messaging-client send surface consumed by the router and
// the relay endpoints. Chat identifiers use the "<digits>@c.us" form; the
// implementation owns the mapping to its own addressing scheme.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) error
	SendLocation(ctx context.Context, chatID string, lat, lon float64, name string) error
	IsReady() bool
}

// Backend is the order-management service this bridge forwards to.
type Backend interface {
	NotifyChat(ctx context.Context, message, chatID string) (*entities.BackendReply, error)
	NotifyLocation(ctx context.Context, chatID string, lat, lon float64) (*entities.BackendReply, error)
	ResolveOrderAction(ctx context.Context, orderID, action string) (*entities.OrderActionResult, error)
}

// LifecycleNotifier receives session lifecycle signals for live viewers.
type LifecycleNotifier interface {
	PublishQR(code string)
	PublishEvent(name string)
}
