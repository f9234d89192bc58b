package kds

import (
	"fmt"
	"math"
	"time"

	aqm "github.com/appetiteclub/apt"

	"github.com/oscartejera/josephine-kds/pkg/enums/destination"
	"github.com/oscartejera/josephine-kds/pkg/enums/prepstatus"
)

const (
	DefaultKitchenThreshold = 10
	DefaultBarThreshold     = 18

	msPerMinute = 60_000
)

// AlertSettings maps a destination to its service-time threshold in
// minutes. Loaded once at station start, persisted on every change.
type AlertSettings struct {
	Kitchen int `json:"kitchen"`
	Bar     int `json:"bar"`
}

func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		Kitchen: DefaultKitchenThreshold,
		Bar:     DefaultBarThreshold,
	}
}

// Threshold returns the minutes threshold for a raw destination code,
// folding the deprecated "prep" value into kitchen.
func (s AlertSettings) Threshold(dest string) int {
	if destination.Normalize(dest) == destination.Destinations.Bar.Code() {
		return s.Bar
	}
	return s.Kitchen
}

// AlertSettingsPatch is a shallow merge over AlertSettings; nil fields
// keep the current value.
type AlertSettingsPatch struct {
	Kitchen *int `json:"kitchen,omitempty"`
	Bar     *int `json:"bar,omitempty"`
}

// OverdueInfo is the continuous indicator for UI badges. Its reference
// time is sent_at: an item idling unclaimed is flagged even before an
// operator starts it.
type OverdueInfo struct {
	ElapsedMinutes  int  `json:"elapsed_minutes"`
	OverdueMinutes  int  `json:"overdue_minutes"`
	ProgressPercent int  `json:"progress_percent"`
	IsOverdue       bool `json:"is_overdue"`
	IsWarning       bool `json:"is_warning"`
}

// Alert is derived on every scan, never persisted. Its identity is
// <item id>-<threshold multiple>, so the same item re-triggers at each
// new multiple even after earlier dismissals.
type Alert struct {
	ID             string    `json:"id"`
	ItemID         ItemID    `json:"item_id"`
	OrderID        OrderID   `json:"order_id"`
	ItemName       string    `json:"item_name"`
	TableLabel     string    `json:"table_label"`
	Destination    string    `json:"destination"`
	OverdueMinutes int       `json:"overdue_minutes"`
	IsRush         bool      `json:"is_rush"`
	TriggeredAt    time.Time `json:"triggered_at"`
}

// AlertEngine owns the alert settings, the live alert list, the
// dismissed-alert set and the single-fire notification guard for one
// station session. It is not goroutine-safe; the owning session
// serializes access.
type AlertEngine struct {
	settings  AlertSettings
	alerts    []Alert
	dismissed map[string]struct{}
	notified  map[string]struct{}
	store     SettingsStore
	logger    aqm.Logger
}

func NewAlertEngine(settings AlertSettings, store SettingsStore, logger aqm.Logger) *AlertEngine {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &AlertEngine{
		settings:  settings,
		dismissed: make(map[string]struct{}),
		notified:  make(map[string]struct{}),
		store:     store,
		logger:    logger,
	}
}

// ItemThreshold returns the effective threshold in minutes: the item
// override when present, otherwise the destination setting.
func (e *AlertEngine) ItemThreshold(item *Item) int {
	if item.ThresholdOverride != nil {
		return *item.ThresholdOverride
	}
	return e.settings.Threshold(item.Destination)
}

// OverdueInfo computes the continuous indicator for an item. Ready and
// served items always return the zero value.
func (e *AlertEngine) OverdueInfo(item *Item, now time.Time) OverdueInfo {
	if prepstatus.IsDone(item.Status) {
		return OverdueInfo{}
	}

	ref := now
	if item.SentAt != nil {
		ref = *item.SentAt
	}

	elapsedMs := now.Sub(ref).Milliseconds()
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	elapsed := int(elapsedMs / msPerMinute)

	threshold := e.ItemThreshold(item)
	thresholdMs := int64(threshold) * msPerMinute

	info := OverdueInfo{ElapsedMinutes: elapsed}
	if thresholdMs > 0 {
		info.ProgressPercent = int(math.Round(float64(elapsedMs) / float64(thresholdMs) * 100))
	}
	if elapsed >= threshold {
		info.IsOverdue = true
		info.OverdueMinutes = elapsed - threshold
	}
	info.IsWarning = info.ProgressPercent >= 50 && info.ProgressPercent < 100
	return info
}

// Scan is the discrete alert pass. Its reference time is
// prep_started_at: only items actively being prepared generate alerts,
// and an item still pending is skipped no matter how long it has sat.
// The live alert list is fully replaced; toNotify holds the subset
// crossing the single-fire notification guard for the first time.
func (e *AlertEngine) Scan(orders []Order, now time.Time) (alerts, toNotify []Alert) {
	alerts = make([]Alert, 0)
	stillPreparing := make(map[string]struct{})

	for i := range orders {
		order := &orders[i]
		for j := range order.Items {
			item := &order.Items[j]
			if item.Status != prepstatus.Statuses.Preparing.Code() || item.PrepStartedAt == nil {
				continue
			}
			stillPreparing[notifyKey(item.ID)] = struct{}{}

			elapsed := int(now.Sub(*item.PrepStartedAt).Milliseconds() / msPerMinute)
			threshold := e.ItemThreshold(item)
			if threshold < 1 {
				// A zero threshold means everything is late; alert on
				// every elapsed minute rather than divide by zero.
				threshold = 1
			}
			if elapsed < threshold {
				continue
			}

			alert := Alert{
				ID:             fmt.Sprintf("%s-%d", item.ID, elapsed/threshold),
				ItemID:         item.ID,
				OrderID:        order.ID,
				ItemName:       item.Name,
				TableLabel:     order.TableLabel,
				Destination:    destination.Normalize(item.Destination),
				OverdueMinutes: elapsed - threshold,
				IsRush:         item.IsRush,
				TriggeredAt:    now,
			}

			if _, ok := e.dismissed[alert.ID]; !ok {
				alerts = append(alerts, alert)
			}

			key := notifyKey(item.ID)
			if _, ok := e.notified[key]; !ok {
				e.notified[key] = struct{}{}
				toNotify = append(toNotify, alert)
			}
		}
	}

	// Items that left preparing (served, reassigned, recalled) give up
	// their guard entry so a later breach re-notifies.
	for key := range e.notified {
		if _, ok := stillPreparing[key]; !ok {
			delete(e.notified, key)
		}
	}

	e.alerts = alerts
	return alerts, toNotify
}

func notifyKey(id ItemID) string {
	return fmt.Sprintf("%s-overdue", id)
}

// Alerts returns the live alert list from the most recent scan.
func (e *AlertEngine) Alerts() []Alert {
	out := make([]Alert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// Dismiss suppresses one alert identity. The next threshold multiple
// of the same item generates a new identity and fires again.
func (e *AlertEngine) Dismiss(alertID string) {
	e.dismissed[alertID] = struct{}{}
	for i := range e.alerts {
		if e.alerts[i].ID == alertID {
			e.alerts = append(e.alerts[:i], e.alerts[i+1:]...)
			break
		}
	}
}

// DismissAll suppresses every currently live alert.
func (e *AlertEngine) DismissAll() {
	for _, a := range e.alerts {
		e.dismissed[a.ID] = struct{}{}
	}
	e.alerts = e.alerts[:0]
}

func (e *AlertEngine) Settings() AlertSettings {
	return e.settings
}

// UpdateSettings applies a shallow merge and persists immediately.
// Persist failures are logged; the in-memory settings stay applied.
func (e *AlertEngine) UpdateSettings(patch AlertSettingsPatch) AlertSettings {
	if patch.Kitchen != nil {
		e.settings.Kitchen = *patch.Kitchen
	}
	if patch.Bar != nil {
		e.settings.Bar = *patch.Bar
	}
	if e.store != nil {
		if err := e.store.SaveAlertSettings(e.settings); err != nil {
			e.logger.Errorf("Failed to persist alert settings: %v", err)
		}
	}
	return e.settings
}
