package kds

import (
	"time"

	"github.com/oscartejera/josephine-kds/pkg/enums/prepstatus"
)

// Advance moves an item one step forward (pending→preparing or
// preparing→ready) and applies the timestamp side effect for the step.
// Ready and served items are left untouched and reported as unchanged.
func Advance(item *Item, now time.Time) (previous string, changed bool) {
	next, ok := prepstatus.Next(item.Status)
	if !ok {
		return item.Status, false
	}

	previous = item.Status
	item.Status = next

	switch next {
	case prepstatus.Statuses.Preparing.Code():
		t := now
		item.PrepStartedAt = &t
	case prepstatus.Statuses.Ready.Code():
		t := now
		item.ReadyAt = &t
	}

	return previous, true
}

// Revert restores an item to a captured previous status, clearing the
// timestamp that the forward step had set. Only Recall calls this.
func Revert(item *Item, previousStatus string) {
	switch item.Status {
	case prepstatus.Statuses.Preparing.Code():
		item.PrepStartedAt = nil
	case prepstatus.Statuses.Ready.Code():
		item.ReadyAt = nil
	}
	item.Status = previousStatus
}

// CompleteAll forces every pending or preparing item in the order to
// ready with ready_at set, bypassing the single-step rule. This is the
// semantics of bumping a whole order; it is intentionally not undoable.
func CompleteAll(order *Order, now time.Time) int {
	completed := 0
	for i := range order.Items {
		item := &order.Items[i]
		if !prepstatus.IsActive(item.Status) {
			continue
		}
		item.Status = prepstatus.Statuses.Ready.Code()
		t := now
		item.ReadyAt = &t
		completed++
	}
	return completed
}
