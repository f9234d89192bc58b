package event

import "time"

const (
	OrderItemsTopic            = "orders.items"
	EventOrderItemCreated      = "order.item.created"
	EventOrderItemUpdated      = "order.item.updated"
	EventOrderItemCancelled    = "order.item.cancelled"
	EventOrderItemStatusChange = "order.item.status_changed"

	KDSNotificationsTopic = "kds.notifications"
	EventKDSNotification  = "kds.notification"
)

// OrderItemEvent is published by the order service on every mutation to
// an order item. The KDS treats any of these as "re-fetch now" rather
// than applying the payload as a diff; the denormalized fields exist so
// a station can decide relevance (and rush routing) without a fetch.
type OrderItemEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderID     string    `json:"order_id"`
	OrderItemID string    `json:"order_item_id"`
	StationID   string    `json:"station_id,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Status      string    `json:"status,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsRush      bool      `json:"is_rush,omitempty"`

	// Items that never hit a prep station (e.g. bottled drinks) carry
	// RequiresProduction=false and are ignored by the KDS.
	RequiresProduction bool `json:"requires_production"`

	// Denormalized data for display purposes
	ItemName   string `json:"item_name,omitempty"`
	TableLabel string `json:"table_label,omitempty"`
}

// KDSNotificationEvent mirrors every audio/visual notification a
// station dispatches, so wall displays and secondary screens can react
// without sharing the station's in-process state.
type KDSNotificationEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	StationID      string    `json:"station_id"`
	Category       string    `json:"category"`
	ItemID         string    `json:"item_id,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
	ItemName       string    `json:"item_name,omitempty"`
	TableLabel     string    `json:"table_label,omitempty"`
	OverdueMinutes int       `json:"overdue_minutes,omitempty"`
	IsRush         bool      `json:"is_rush,omitempty"`
}
