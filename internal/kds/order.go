package kds

import (
	"time"

	"github.com/google/uuid"

	"github.com/oscartejera/josephine-kds/pkg/enums/prepstatus"
)

type OrderID = uuid.UUID
type ItemID = uuid.UUID

// Order is a guest check routed to a prep station. It is created by
// the order service when a ticket is sent and drops out of the active
// list once none of its items are pending or preparing.
type Order struct {
	ID         OrderID   `bson:"_id" json:"id"`
	StationID  string    `bson:"station_id" json:"station_id"`
	TableLabel string    `bson:"table_label" json:"table_label"`
	OpenedAt   time.Time `bson:"opened_at" json:"opened_at"`
	Items      []Item    `bson:"items" json:"items"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Item is a single ticket line.
type Item struct {
	ID          ItemID  `bson:"_id" json:"id"`
	OrderID     OrderID `bson:"order_id" json:"order_id"`
	Name        string  `bson:"name" json:"name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Notes       string  `bson:"notes,omitempty" json:"notes,omitempty"`
	Destination string  `bson:"destination" json:"destination"`
	Status      string  `bson:"status" json:"status"`

	SentAt        *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	PrepStartedAt *time.Time `bson:"prep_started_at,omitempty" json:"prep_started_at,omitempty"`
	ReadyAt       *time.Time `bson:"ready_at,omitempty" json:"ready_at,omitempty"`

	// ThresholdOverride replaces the destination threshold (minutes)
	// for this item alone when set.
	ThresholdOverride *int `bson:"threshold_override,omitempty" json:"threshold_override,omitempty"`
	IsRush            bool `bson:"is_rush" json:"is_rush"`
}

// ActiveItems returns the items still on the board (pending or
// preparing), in ticket order.
func (o *Order) ActiveItems() []*Item {
	result := make([]*Item, 0, len(o.Items))
	for i := range o.Items {
		if prepstatus.IsActive(o.Items[i].Status) {
			result = append(result, &o.Items[i])
		}
	}
	return result
}

// FindItem locates an item by ID across an order list. Returns nils
// when the item is no longer in the snapshot; callers treat that as a
// no-op, not an error.
func FindItem(orders []Order, id ItemID) (*Order, *Item) {
	for i := range orders {
		for j := range orders[i].Items {
			if orders[i].Items[j].ID == id {
				return &orders[i], &orders[i].Items[j]
			}
		}
	}
	return nil, nil
}
