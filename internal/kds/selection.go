package kds

// Selection is the 2D cursor over the active items of the current
// order. It only ever points into items whose status is pending or
// preparing.
type Selection struct {
	OrderIndex int `json:"order_index"`
	ItemIndex  int `json:"item_index"`
}

// Navigator maintains the selection cursor and re-clamps it whenever
// the order list changes. Not goroutine-safe; the owning session
// serializes access.
type Navigator struct {
	sel Selection
}

func (n *Navigator) Current() Selection {
	return n.sel
}

// NavigateCard moves the order cursor by delta, clamped to the order
// list, and resets the item cursor to the top of the card.
func (n *Navigator) NavigateCard(delta int, orders []Order) {
	if len(orders) == 0 {
		n.sel = Selection{}
		return
	}
	n.sel.OrderIndex = clamp(n.sel.OrderIndex+delta, 0, len(orders)-1)
	n.sel.ItemIndex = 0
}

// NavigateItem moves the item cursor by delta within the current
// order's active items.
func (n *Navigator) NavigateItem(delta int, orders []Order) {
	if len(orders) == 0 {
		n.sel = Selection{}
		return
	}
	n.sel.OrderIndex = clamp(n.sel.OrderIndex, 0, len(orders)-1)
	active := orders[n.sel.OrderIndex].ActiveItems()
	if len(active) == 0 {
		n.sel.ItemIndex = 0
		return
	}
	n.sel.ItemIndex = clamp(n.sel.ItemIndex+delta, 0, len(active)-1)
}

// MoveToNeighbor advances the cursor to an adjacent order after a
// whole-order bump, preferring the next card.
func (n *Navigator) MoveToNeighbor(orders []Order) {
	if n.sel.OrderIndex+1 < len(orders) {
		n.sel.OrderIndex++
	} else if n.sel.OrderIndex > 0 {
		n.sel.OrderIndex--
	}
	n.sel.ItemIndex = 0
}

// Revalidate re-clamps both indices against a fresh order list. With
// no orders the cursor resets to the origin; with a selected order
// whose active items all left, the item cursor clamps to 0 rather than
// being left invalid.
func (n *Navigator) Revalidate(orders []Order) {
	if len(orders) == 0 {
		n.sel = Selection{}
		return
	}
	n.sel.OrderIndex = clamp(n.sel.OrderIndex, 0, len(orders)-1)
	active := orders[n.sel.OrderIndex].ActiveItems()
	if len(active) == 0 {
		n.sel.ItemIndex = 0
		return
	}
	n.sel.ItemIndex = clamp(n.sel.ItemIndex, 0, len(active)-1)
}

// SelectedOrder returns the order under the cursor, or nil with no
// orders on the board.
func (n *Navigator) SelectedOrder(orders []Order) *Order {
	if len(orders) == 0 {
		return nil
	}
	return &orders[clamp(n.sel.OrderIndex, 0, len(orders)-1)]
}

// SelectedItem returns the active item under the cursor, or nil when
// the current order has no active items.
func (n *Navigator) SelectedItem(orders []Order) *Item {
	order := n.SelectedOrder(orders)
	if order == nil {
		return nil
	}
	active := order.ActiveItems()
	if len(active) == 0 {
		return nil
	}
	return active[clamp(n.sel.ItemIndex, 0, len(active)-1)]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
