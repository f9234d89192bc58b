package kds

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oscartejera/josephine-kds/pkg/enums/prepstatus"
)

// MockOrderFeed is a test mock for OrderFeed. ListActiveOrders hands
// out deep copies, like a real fetch would.
type MockOrderFeed struct {
	Orders         []Order
	ListErr        error
	SetStatusCalls []SetStatusCall
	CompleteCalls  []OrderID
	SetStatusErr   error
	CompleteErr    error
}

type SetStatusCall struct {
	ItemID ItemID
	Status string
	TS     StatusTimestamps
}

func NewMockOrderFeed(orders ...Order) *MockOrderFeed {
	return &MockOrderFeed{Orders: orders}
}

func (m *MockOrderFeed) ListActiveOrders(ctx context.Context, stationID string) ([]Order, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]Order, len(m.Orders))
	for i, o := range m.Orders {
		items := make([]Item, len(o.Items))
		copy(items, o.Items)
		o.Items = items
		out[i] = o
	}
	return out, nil
}

func (m *MockOrderFeed) SetItemStatus(ctx context.Context, itemID ItemID, status string, ts StatusTimestamps) error {
	m.SetStatusCalls = append(m.SetStatusCalls, SetStatusCall{ItemID: itemID, Status: status, TS: ts})
	return m.SetStatusErr
}

func (m *MockOrderFeed) CompleteOrder(ctx context.Context, orderID OrderID) error {
	m.CompleteCalls = append(m.CompleteCalls, orderID)
	return m.CompleteErr
}

// MockSettingsStore is a test mock for SettingsStore.
type MockSettingsStore struct {
	Alert      AlertSettings
	Sound      SoundSettings
	AlertSaves int
	SoundSaves int
	SaveErr    error
}

func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{
		Alert: DefaultAlertSettings(),
		Sound: DefaultSoundSettings(),
	}
}

func (m *MockSettingsStore) LoadAlertSettings() AlertSettings { return m.Alert }

func (m *MockSettingsStore) SaveAlertSettings(s AlertSettings) error {
	m.AlertSaves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Alert = s
	return nil
}

func (m *MockSettingsStore) LoadSoundSettings() SoundSettings { return m.Sound }

func (m *MockSettingsStore) SaveSoundSettings(s SoundSettings) error {
	m.SoundSaves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Sound = s
	return nil
}

// MockPlayer records played categories.
type MockPlayer struct {
	Played  []string
	PlayErr error
}

func (m *MockPlayer) Play(category string, volume float64) error {
	m.Played = append(m.Played, category)
	return m.PlayErr
}

// MockPublisher is a test mock for events.Publisher.
type MockPublisher struct {
	PublishedEvents []PublishedEvent
	PublishErr      error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}

// Test data helpers

func testItem(orderID OrderID, status string) Item {
	now := time.Now()
	sent := now.Add(-2 * time.Minute)
	item := Item{
		ID:          uuid.New(),
		OrderID:     orderID,
		Name:        "Risotto",
		Quantity:    1,
		Destination: "kitchen",
		Status:      status,
		SentAt:      &sent,
	}
	if status == prepstatus.Statuses.Preparing.Code() {
		started := now.Add(-time.Minute)
		item.PrepStartedAt = &started
	}
	if prepstatus.IsDone(status) {
		ready := now
		item.ReadyAt = &ready
	}
	return item
}

func testOrder(table string, statuses ...string) Order {
	orderID := uuid.New()
	items := make([]Item, 0, len(statuses))
	for _, st := range statuses {
		items = append(items, testItem(orderID, st))
	}
	return Order{
		ID:         orderID,
		StationID:  "expo",
		TableLabel: table,
		OpenedAt:   time.Now().Add(-5 * time.Minute),
		Items:      items,
	}
}

func minutesAgo(m int) *time.Time {
	t := time.Now().Add(-time.Duration(m) * time.Minute)
	return &t
}

func intPtr(v int) *int { return &v }
