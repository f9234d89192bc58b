package kds

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oscartejera/josephine-kds/pkg/event"
)

func TestAlertCategoryRouting(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		isRush      bool
		want        string
	}{
		{name: "kitchenAlert", destination: "kitchen", want: CategoryKitchen},
		{name: "barAlert", destination: "bar", want: CategoryBar},
		{name: "deprecatedPrepMapsToKitchen", destination: "prep", want: CategoryKitchen},
		{name: "rushBeatsKitchen", destination: "kitchen", isRush: true, want: CategoryRush},
		{name: "rushBeatsBar", destination: "bar", isRush: true, want: CategoryRush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlertCategory(tt.destination, tt.isRush); got != tt.want {
				t.Errorf("AlertCategory(%q, %v) = %v, want %v", tt.destination, tt.isRush, got, tt.want)
			}
		})
	}
}

func TestNewOrderCategoryRushPrecedence(t *testing.T) {
	if got := NewOrderCategory(false); got != CategoryNewOrder {
		t.Errorf("NewOrderCategory(false) = %v, want %v", got, CategoryNewOrder)
	}
	if got := NewOrderCategory(true); got != CategoryRush {
		t.Errorf("NewOrderCategory(true) = %v, want %v", got, CategoryRush)
	}
}

func TestDispatchAlertPlaysAndPublishes(t *testing.T) {
	player := &MockPlayer{}
	publisher := &MockPublisher{}
	dispatcher := NewSoundDispatcher("expo", DefaultSoundSettings(), player, publisher, nil, nil)

	alert := Alert{
		ID:             "a-1",
		ItemID:         uuid.New(),
		OrderID:        uuid.New(),
		ItemName:       "Risotto",
		TableLabel:     "T4",
		Destination:    "bar",
		OverdueMinutes: 3,
		TriggeredAt:    time.Now(),
	}
	dispatcher.DispatchAlert(context.Background(), alert)

	if len(player.Played) != 1 || player.Played[0] != CategoryBar {
		t.Errorf("Played = %v, want [%s]", player.Played, CategoryBar)
	}
	if len(publisher.PublishedEvents) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.PublishedEvents))
	}
	if publisher.PublishedEvents[0].Topic != event.KDSNotificationsTopic {
		t.Errorf("topic = %v, want %v", publisher.PublishedEvents[0].Topic, event.KDSNotificationsTopic)
	}

	var evt event.KDSNotificationEvent
	if err := json.Unmarshal(publisher.PublishedEvents[0].Data, &evt); err != nil {
		t.Fatalf("cannot decode notification event: %v", err)
	}
	if evt.Category != CategoryBar || evt.OverdueMinutes != 3 || evt.StationID != "expo" {
		t.Errorf("event = %+v, want bar category, 3 overdue minutes, expo station", evt)
	}
}

func TestDispatchSkipsDisabledCategory(t *testing.T) {
	player := &MockPlayer{}
	publisher := &MockPublisher{}
	settings := DefaultSoundSettings()
	settings[CategoryKitchen] = SoundConfig{Enabled: false, Volume: 0.8}
	dispatcher := NewSoundDispatcher("expo", settings, player, publisher, nil, nil)

	dispatcher.DispatchAlert(context.Background(), Alert{Destination: "kitchen"})

	if len(player.Played) != 0 {
		t.Errorf("Played = %v, want nothing for a disabled category", player.Played)
	}
	if len(publisher.PublishedEvents) != 0 {
		t.Errorf("published %d events, want 0", len(publisher.PublishedEvents))
	}
}

func TestDispatchSwallowsPlaybackErrors(t *testing.T) {
	player := &MockPlayer{PlayErr: errors.New("no audio device")}
	publisher := &MockPublisher{}
	dispatcher := NewSoundDispatcher("expo", DefaultSoundSettings(), player, publisher, nil, nil)

	// Must not panic and must still publish the mirrored event.
	dispatcher.DispatchNewOrder(context.Background(), false, "T1")

	if len(publisher.PublishedEvents) != 1 {
		t.Errorf("published %d events, want 1 despite playback failure", len(publisher.PublishedEvents))
	}
}

func TestTestSoundBypassesEnablement(t *testing.T) {
	player := &MockPlayer{}
	settings := DefaultSoundSettings()
	settings[CategoryRush] = SoundConfig{Enabled: false, Volume: 0.3}
	dispatcher := NewSoundDispatcher("expo", settings, player, nil, nil, nil)

	dispatcher.TestSound(CategoryRush)

	if len(player.Played) != 1 || player.Played[0] != CategoryRush {
		t.Errorf("Played = %v, want [%s] even when disabled", player.Played, CategoryRush)
	}
}

func TestUpdateSoundSettingsMergesAndPersists(t *testing.T) {
	store := NewMockSettingsStore()
	dispatcher := NewSoundDispatcher("expo", DefaultSoundSettings(), nil, nil, store, nil)

	got := dispatcher.UpdateSettings(SoundSettings{
		CategoryBar: {Enabled: false, Volume: 0.2},
	})

	if cfg := got[CategoryBar]; cfg.Enabled || cfg.Volume != 0.2 {
		t.Errorf("bar config = %+v, want disabled at 0.2", cfg)
	}
	if cfg := got[CategoryKitchen]; !cfg.Enabled {
		t.Errorf("kitchen config = %+v, want untouched default", cfg)
	}
	if store.SoundSaves != 1 {
		t.Errorf("settings persisted %d times, want 1", store.SoundSaves)
	}
}

func TestSettingsReturnsCopy(t *testing.T) {
	dispatcher := NewSoundDispatcher("expo", DefaultSoundSettings(), nil, nil, nil, nil)

	snapshot := dispatcher.Settings()
	snapshot[CategoryKitchen] = SoundConfig{Enabled: false}

	if cfg := dispatcher.Settings()[CategoryKitchen]; !cfg.Enabled {
		t.Error("mutating the returned snapshot changed dispatcher state")
	}
}
