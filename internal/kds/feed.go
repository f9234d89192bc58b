package kds

import (
	"context"
	"time"
)

// StatusTimestamps carries the timestamp side effects of a status
// transition to the order service, which owns the persisted truth.
type StatusTimestamps struct {
	PrepStartedAt *time.Time `json:"prep_started_at,omitempty"`
	ReadyAt       *time.Time `json:"ready_at,omitempty"`
}

// OrderFeed is the external order-data collaborator. The station never
// blocks its interaction model on write-back results; a failed write is
// logged and the next feed snapshot is the authoritative correction.
type OrderFeed interface {
	ListActiveOrders(ctx context.Context, stationID string) ([]Order, error)
	SetItemStatus(ctx context.Context, itemID ItemID, status string, ts StatusTimestamps) error
	CompleteOrder(ctx context.Context, orderID OrderID) error
}

// SettingsStore persists per-station operator settings. Loads never
// fail: a missing or malformed stored value yields the compiled-in
// defaults.
type SettingsStore interface {
	LoadAlertSettings() AlertSettings
	SaveAlertSettings(AlertSettings) error
	LoadSoundSettings() SoundSettings
	SaveSoundSettings(SoundSettings) error
}
