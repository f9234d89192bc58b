package kds

import (
	"context"
	"sync"
	"time"

	aqm "github.com/appetiteclub/apt"
)

const (
	DefaultScanInterval  = 30 * time.Second
	DefaultSweepInterval = 5 * time.Second
)

// SessionConfig tunes the session timers. Zero values take the
// defaults.
type SessionConfig struct {
	ScanInterval  time.Duration
	SweepInterval time.Duration
}

// StationSession owns all mutable state of one KDS station: the order
// snapshot, the alert engine, the sound dispatcher, the selection
// cursor and the recall stack. Ticker callbacks, push updates from the
// order feed and operator input all serialize through one mutex, so
// the de-duplication sets in the engine need no locking of their own.
//
// State is scoped to one station login; a new session is built on
// station reload.
type StationSession struct {
	mu        sync.Mutex
	stationID string
	feed      OrderFeed
	engine    *AlertEngine
	sounds    *SoundDispatcher
	nav       Navigator
	recall    RecallStack
	orders    []Order
	keymap    map[string]string
	logger    aqm.Logger

	scanInterval  time.Duration
	sweepInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewStationSession(stationID string, feed OrderFeed, engine *AlertEngine, sounds *SoundDispatcher, cfg SessionConfig, logger aqm.Logger) *StationSession {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = DefaultScanInterval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &StationSession{
		stationID:     stationID,
		feed:          feed,
		engine:        engine,
		sounds:        sounds,
		keymap:        DefaultKeymap(),
		logger:        logger,
		scanInterval:  cfg.ScanInterval,
		sweepInterval: cfg.SweepInterval,
	}
}

// Start performs the initial fetch and launches the scan and sweep
// timers. A failed initial fetch is not fatal: the board starts empty
// and the next push or tick retries.
func (s *StationSession) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Errorf("Initial order fetch failed, starting with empty board: %v", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)

	s.logger.Infof("Station session %s started (scan %s, sweep %s)", s.stationID, s.scanInterval, s.sweepInterval)
	return nil
}

// Stop tears down both timers. Leaving them running would leak ticks
// against a stale order list.
func (s *StationSession) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		s.logger.Infof("Station session %s stopped", s.stationID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StationSession) run(ctx context.Context) {
	defer close(s.done)

	scan := time.NewTicker(s.scanInterval)
	defer scan.Stop()
	sweep := time.NewTicker(s.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-scan.C:
			s.ScanNow(ctx)
		case <-sweep.C:
			s.mu.Lock()
			s.recall.Sweep(time.Now())
			s.mu.Unlock()
		}
	}
}

// ScanNow runs one discrete alert pass over the current snapshot and
// dispatches first-fire notifications.
func (s *StationSession) ScanNow(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, toNotify := s.engine.Scan(s.orders, time.Now())
	for _, alert := range toNotify {
		s.sounds.DispatchAlert(ctx, alert)
	}
}

// Refresh replaces the order snapshot from the feed and re-clamps the
// cursor. Push updates call this: an upstream change means "re-fetch
// now", never a diff. On fetch failure the previous snapshot stays.
func (s *StationSession) Refresh(ctx context.Context) error {
	orders, err := s.feed.ListActiveOrders(ctx, s.stationID)
	if err != nil {
		s.logger.Errorf("Failed to refresh orders for station %s: %v", s.stationID, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
	s.nav.Revalidate(s.orders)
	return nil
}

// BumpItem advances the item under the cursor one step, records the
// undo entry, and writes the transition back optimistically. With
// nothing selected it is a no-op.
func (s *StationSession) BumpItem(ctx context.Context) bool {
	s.mu.Lock()
	order := s.nav.SelectedOrder(s.orders)
	item := s.nav.SelectedItem(s.orders)
	if order == nil || item == nil {
		s.mu.Unlock()
		return false
	}

	now := time.Now()
	previous, changed := Advance(item, now)
	if !changed {
		s.mu.Unlock()
		return false
	}

	s.recall.Push(RecallEntry{
		ItemID:         item.ID,
		PreviousStatus: previous,
		NewStatus:      item.Status,
		ItemLabel:      item.Name,
		TableLabel:     order.TableLabel,
		CreatedAt:      now,
	})

	// A bump to ready shrinks the active set; re-clamp keeps the
	// cursor in bounds.
	s.nav.Revalidate(s.orders)

	itemID, status := item.ID, item.Status
	ts := StatusTimestamps{PrepStartedAt: item.PrepStartedAt, ReadyAt: item.ReadyAt}
	s.mu.Unlock()

	if err := s.feed.SetItemStatus(ctx, itemID, status, ts); err != nil {
		s.logger.Errorf("Failed to persist status for item %s (kept locally, next push reconciles): %v", itemID, err)
	}
	return true
}

// BumpAll completes every active item of the order under the cursor.
// No undo entries are recorded: whole-order completion is not
// recallable. The cursor moves to a neighboring order if one exists.
func (s *StationSession) BumpAll(ctx context.Context) bool {
	s.mu.Lock()
	order := s.nav.SelectedOrder(s.orders)
	if order == nil {
		s.mu.Unlock()
		return false
	}

	completed := CompleteAll(order, time.Now())
	s.nav.MoveToNeighbor(s.orders)
	s.nav.Revalidate(s.orders)
	orderID := order.ID
	s.mu.Unlock()

	if completed == 0 {
		return false
	}

	if err := s.feed.CompleteOrder(ctx, orderID); err != nil {
		s.logger.Errorf("Failed to persist completion of order %s (kept locally, next push reconciles): %v", orderID, err)
	}
	return true
}

// Recall pops the most recent bump and reverts it. Empty stack or an
// item that already left the feed snapshot is a no-op; the popped
// entry is forfeited either way.
func (s *StationSession) Recall(ctx context.Context) bool {
	s.mu.Lock()
	entry, ok := s.recall.Pop()
	if !ok {
		s.mu.Unlock()
		return false
	}

	_, item := FindItem(s.orders, entry.ItemID)
	if item == nil {
		s.mu.Unlock()
		s.logger.Infof("Recall target %s no longer on the board, skipping", entry.ItemID)
		return false
	}

	Revert(item, entry.PreviousStatus)
	s.nav.Revalidate(s.orders)

	itemID, status := item.ID, item.Status
	ts := StatusTimestamps{PrepStartedAt: item.PrepStartedAt, ReadyAt: item.ReadyAt}
	s.mu.Unlock()

	if err := s.feed.SetItemStatus(ctx, itemID, status, ts); err != nil {
		s.logger.Errorf("Failed to persist recall for item %s (kept locally, next push reconciles): %v", itemID, err)
	}
	return true
}

// ClearRecall forgets the undo history without reverting anything.
func (s *StationSession) ClearRecall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recall.Clear()
}

func (s *StationSession) NavigateCard(delta int) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.NavigateCard(delta, s.orders)
	return s.nav.Current()
}

func (s *StationSession) NavigateItem(delta int) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.NavigateItem(delta, s.orders)
	return s.nav.Current()
}

func (s *StationSession) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

func (s *StationSession) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Alerts()
}

func (s *StationSession) DismissAlert(alertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Dismiss(alertID)
}

func (s *StationSession) DismissAllAlerts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.DismissAll()
}

func (s *StationSession) AlertSettings() AlertSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Settings()
}

func (s *StationSession) UpdateAlertSettings(patch AlertSettingsPatch) AlertSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.UpdateSettings(patch)
}

func (s *StationSession) SoundSettings() SoundSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sounds.Settings()
}

func (s *StationSession) UpdateSoundSettings(patch SoundSettings) SoundSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sounds.UpdateSettings(patch)
}

func (s *StationSession) TestSound(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds.TestSound(category)
}

// NotifyNewOrder fires the new-order chime; a rush item on the ticket
// takes precedence over the plain newOrder category.
func (s *StationSession) NotifyNewOrder(ctx context.Context, isRush bool, tableLabel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds.DispatchNewOrder(ctx, isRush, tableLabel)
}

func (s *StationSession) RecallEntries() []RecallEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recall.Entries()
}

// BoardItem is an item annotated with its continuous overdue
// indicator, so the UI never computes thresholds itself.
type BoardItem struct {
	Item
	Overdue OverdueInfo `json:"overdue"`
}

type BoardOrder struct {
	ID         OrderID     `json:"id"`
	TableLabel string      `json:"table_label"`
	OpenedAt   time.Time   `json:"opened_at"`
	Items      []BoardItem `json:"items"`
}

// BoardSnapshot is everything the station UI needs for one render.
type BoardSnapshot struct {
	StationID   string       `json:"station_id"`
	Orders      []BoardOrder `json:"orders"`
	Selection   Selection    `json:"selection"`
	Alerts      []Alert      `json:"alerts"`
	RecallDepth int          `json:"recall_depth"`
	RecallTop   *RecallEntry `json:"recall_top,omitempty"`
}

func (s *StationSession) Board() BoardSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	snapshot := BoardSnapshot{
		StationID:   s.stationID,
		Orders:      make([]BoardOrder, 0, len(s.orders)),
		Selection:   s.nav.Current(),
		Alerts:      s.engine.Alerts(),
		RecallDepth: s.recall.Len(),
	}

	if top, ok := s.recall.Peek(); ok {
		snapshot.RecallTop = &top
	}

	for i := range s.orders {
		order := &s.orders[i]
		bo := BoardOrder{
			ID:         order.ID,
			TableLabel: order.TableLabel,
			OpenedAt:   order.OpenedAt,
			Items:      make([]BoardItem, 0, len(order.Items)),
		}
		for j := range order.Items {
			item := order.Items[j]
			bo.Items = append(bo.Items, BoardItem{
				Item:    item,
				Overdue: s.engine.OverdueInfo(&item, now),
			})
		}
		snapshot.Orders = append(snapshot.Orders, bo)
	}
	return snapshot
}
