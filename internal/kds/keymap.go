package kds

import (
	"context"
	"strings"
)

const (
	ActionBumpItem    = "bump_item"
	ActionBumpOrder   = "bump_order"
	ActionRecall      = "recall"
	ActionClearRecall = "clear_recall"
	ActionPrevCard    = "prev_card"
	ActionNextCard    = "next_card"
	ActionPrevItem    = "prev_item"
	ActionNextItem    = "next_item"
)

// DefaultKeymap is the operator binding table. Keys arrive as the
// lowercased key names the UI reports; " " and "space" are aliases.
func DefaultKeymap() map[string]string {
	return map[string]string{
		" ":      ActionBumpItem,
		"space":  ActionBumpItem,
		"enter":  ActionBumpItem,
		"b":      ActionBumpOrder,
		"r":      ActionRecall,
		"escape": ActionClearRecall,
		"left":   ActionPrevCard,
		"right":  ActionNextCard,
		"up":     ActionPrevItem,
		"down":   ActionNextItem,
	}
}

// HandleKey translates a key event into the same operations any other
// caller uses; there is no separate keyboard code path. Input is
// ignored while focus sits in a text-editing control so normal typing
// is never intercepted. Returns the action taken, or handled=false for
// unbound keys.
func (s *StationSession) HandleKey(ctx context.Context, key string, editing bool) (action string, handled bool) {
	if editing {
		return "", false
	}

	action, ok := s.keymap[strings.ToLower(key)]
	if !ok {
		return "", false
	}

	switch action {
	case ActionBumpItem:
		s.BumpItem(ctx)
	case ActionBumpOrder:
		s.BumpAll(ctx)
	case ActionRecall:
		s.Recall(ctx)
	case ActionClearRecall:
		s.ClearRecall()
	case ActionPrevCard:
		s.NavigateCard(-1)
	case ActionNextCard:
		s.NavigateCard(1)
	case ActionPrevItem:
		s.NavigateItem(-1)
	case ActionNextItem:
		s.NavigateItem(1)
	}
	return action, true
}
