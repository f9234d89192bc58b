package events

import (
	"context"
	"encoding/json"
	"fmt"

	aqm "github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/oscartejera/josephine-kds/internal/kds"
	"github.com/oscartejera/josephine-kds/pkg/event"
)

// OrderFeedSubscriber turns order-item push events into session
// refreshes. The payload is never applied as a diff: any relevant
// event means "re-fetch now", and the fetched snapshot supersedes
// whatever the station held.
type OrderFeedSubscriber struct {
	subscriber events.Subscriber
	session    *kds.StationSession
	stationID  string
	logger     aqm.Logger
}

func NewOrderFeedSubscriber(
	subscriber events.Subscriber,
	session *kds.StationSession,
	stationID string,
	logger aqm.Logger,
) *OrderFeedSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &OrderFeedSubscriber{
		subscriber: subscriber,
		session:    session,
		stationID:  stationID,
		logger:     logger,
	}
}

func (s *OrderFeedSubscriber) Start(ctx context.Context) error {
	s.logger.Infof("Starting OrderFeedSubscriber for topic: %s", event.OrderItemsTopic)

	if err := s.subscriber.Subscribe(ctx, event.OrderItemsTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderItemsTopic, err)
	}

	s.logger.Info("OrderFeedSubscriber started successfully")
	return nil
}

func (s *OrderFeedSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderItemEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal event: %v", err)
		return nil
	}

	if !evt.RequiresProduction {
		return nil
	}

	if evt.StationID != "" && evt.StationID != s.stationID {
		return nil
	}

	if err := s.session.Refresh(ctx); err != nil {
		// Already logged by the session; the stale snapshot stands
		// until the next push or scan-consumer fetch.
		return nil
	}

	if evt.EventType == event.EventOrderItemCreated {
		s.session.NotifyNewOrder(ctx, evt.IsRush, evt.TableLabel)
	}

	return nil
}
