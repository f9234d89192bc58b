package kds

import (
	"context"
	"encoding/json"
	"time"

	aqm "github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/oscartejera/josephine-kds/pkg/enums/destination"
	"github.com/oscartejera/josephine-kds/pkg/event"
)

const (
	CategoryKitchen  = "kitchen"
	CategoryBar      = "bar"
	CategoryRush     = "rush"
	CategoryNewOrder = "newOrder"
)

var SoundCategories = []string{CategoryKitchen, CategoryBar, CategoryRush, CategoryNewOrder}

type SoundConfig struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
}

// SoundSettings maps an event category to its playback configuration.
// Owned by the dispatcher and persisted separately from AlertSettings.
type SoundSettings map[string]SoundConfig

func DefaultSoundSettings() SoundSettings {
	settings := make(SoundSettings, len(SoundCategories))
	for _, c := range SoundCategories {
		settings[c] = SoundConfig{Enabled: true, Volume: 0.8}
	}
	return settings
}

// Player renders a category as audio on the station hardware. Sound
// file formats and actual playback live outside this core.
type Player interface {
	Play(category string, volume float64) error
}

// NopPlayer is used when the station has no local audio; the mirrored
// notification event is still published.
type NopPlayer struct{}

func (NopPlayer) Play(string, float64) error { return nil }

// AlertCategory routes an alert to its sound category: the item's
// normalized destination unless it is rushed, in which case rush wins
// regardless of destination.
func AlertCategory(dest string, isRush bool) string {
	if isRush {
		return CategoryRush
	}
	return destination.Normalize(dest)
}

// NewOrderCategory routes a new-order event; a coinciding rush
// condition takes precedence over newOrder.
func NewOrderCategory(isRush bool) string {
	if isRush {
		return CategoryRush
	}
	return CategoryNewOrder
}

// SoundDispatcher maps engine events to audible/visual notifications.
// Playback and publish failures are logged and swallowed; they never
// propagate to the state machine. Not goroutine-safe; the owning
// session serializes access.
type SoundDispatcher struct {
	stationID string
	settings  SoundSettings
	player    Player
	publisher events.Publisher
	store     SettingsStore
	logger    aqm.Logger
}

func NewSoundDispatcher(stationID string, settings SoundSettings, player Player, publisher events.Publisher, store SettingsStore, logger aqm.Logger) *SoundDispatcher {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if player == nil {
		player = NopPlayer{}
	}
	if settings == nil {
		settings = DefaultSoundSettings()
	}
	return &SoundDispatcher{
		stationID: stationID,
		settings:  settings,
		player:    player,
		publisher: publisher,
		store:     store,
		logger:    logger,
	}
}

// DispatchAlert plays the routed category for an overdue alert and
// mirrors it as a notification event.
func (d *SoundDispatcher) DispatchAlert(ctx context.Context, alert Alert) {
	category := AlertCategory(alert.Destination, alert.IsRush)
	d.dispatch(ctx, category, event.KDSNotificationEvent{
		EventType:      event.EventKDSNotification,
		OccurredAt:     time.Now().UTC(),
		StationID:      d.stationID,
		Category:       category,
		ItemID:         alert.ItemID.String(),
		OrderID:        alert.OrderID.String(),
		ItemName:       alert.ItemName,
		TableLabel:     alert.TableLabel,
		OverdueMinutes: alert.OverdueMinutes,
		IsRush:         alert.IsRush,
	})
}

// DispatchNewOrder plays the new-order chime (or rush, when the ticket
// carries a rushed item).
func (d *SoundDispatcher) DispatchNewOrder(ctx context.Context, isRush bool, tableLabel string) {
	category := NewOrderCategory(isRush)
	d.dispatch(ctx, category, event.KDSNotificationEvent{
		EventType:  event.EventKDSNotification,
		OccurredAt: time.Now().UTC(),
		StationID:  d.stationID,
		Category:   category,
		TableLabel: tableLabel,
		IsRush:     isRush,
	})
}

func (d *SoundDispatcher) dispatch(ctx context.Context, category string, evt event.KDSNotificationEvent) {
	cfg, ok := d.settings[category]
	if !ok || !cfg.Enabled {
		return
	}

	if err := d.player.Play(category, cfg.Volume); err != nil {
		d.logger.Errorf("Failed to play %s sound: %v", category, err)
	}

	if d.publisher == nil {
		return
	}
	eventBytes, _ := json.Marshal(evt)
	if err := d.publisher.Publish(ctx, event.KDSNotificationsTopic, eventBytes); err != nil {
		d.logger.Errorf("Failed to publish notification event: %v", err)
	}
}

// TestSound plays a category for the configuration screen, bypassing
// the enablement check.
func (d *SoundDispatcher) TestSound(category string) {
	volume := 0.8
	if cfg, ok := d.settings[category]; ok {
		volume = cfg.Volume
	}
	if err := d.player.Play(category, volume); err != nil {
		d.logger.Errorf("Failed to play test sound %s: %v", category, err)
	}
}

func (d *SoundDispatcher) Settings() SoundSettings {
	out := make(SoundSettings, len(d.settings))
	for k, v := range d.settings {
		out[k] = v
	}
	return out
}

// UpdateSettings merges per-category configs and persists immediately.
func (d *SoundDispatcher) UpdateSettings(patch SoundSettings) SoundSettings {
	for category, cfg := range patch {
		d.settings[category] = cfg
	}
	if d.store != nil {
		if err := d.store.SaveSoundSettings(d.settings); err != nil {
			d.logger.Errorf("Failed to persist sound settings: %v", err)
		}
	}
	return d.Settings()
}
