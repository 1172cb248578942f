// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

import (
	"log/slog"
	"sync"

	"github.com/shopcore/shopcore/internal/ledger"
)

// Notifier broadcasts non-cancelable post-action notifications to all
// registered listeners. A panicking listener is logged and does not
// prevent the remaining listeners from running.
type Notifier struct {
	mu              sync.RWMutex
	itemRegistered  []func(ItemDefinition)
	itemPurchased   []func(Player, ItemDefinition)
	itemSold        []func(Player, ItemDefinition)
	itemToggled     []func(Player, ItemDefinition, bool)
	itemExpired     []func(Player, ItemDefinition)
	ledgerRecorded  []func(ledger.Entry)
}

// NewNotifier creates a notifier with no listeners.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnItemRegistered registers a listener for successful registrations.
func (n *Notifier) OnItemRegistered(fn func(ItemDefinition)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.itemRegistered = append(n.itemRegistered, fn)
}

// OnItemPurchased registers a listener for completed purchases.
func (n *Notifier) OnItemPurchased(fn func(Player, ItemDefinition)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.itemPurchased = append(n.itemPurchased, fn)
}

// OnItemSold registers a listener for completed sales.
func (n *Notifier) OnItemSold(fn func(Player, ItemDefinition)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.itemSold = append(n.itemSold, fn)
}

// OnItemToggled registers a listener for enable/disable transitions.
func (n *Notifier) OnItemToggled(fn func(Player, ItemDefinition, bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.itemToggled = append(n.itemToggled, fn)
}

// OnItemExpired registers a listener for observed expirations.
func (n *Notifier) OnItemExpired(fn func(Player, ItemDefinition)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.itemExpired = append(n.itemExpired, fn)
}

// OnLedgerEntryRecorded registers a listener for appended ledger entries.
func (n *Notifier) OnLedgerEntryRecorded(fn func(ledger.Entry)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ledgerRecorded = append(n.ledgerRecorded, fn)
}

func (n *Notifier) emitItemRegistered(def ItemDefinition) {
	n.mu.RLock()
	listeners := n.itemRegistered
	n.mu.RUnlock()
	for _, fn := range listeners {
		notify("item_registered", func() { fn(def) })
	}
}

func (n *Notifier) emitItemPurchased(p Player, def ItemDefinition) {
	n.mu.RLock()
	listeners := n.itemPurchased
	n.mu.RUnlock()
	for _, fn := range listeners {
		notify("item_purchased", func() { fn(p, def) })
	}
}

func (n *Notifier) emitItemSold(p Player, def ItemDefinition) {
	n.mu.RLock()
	listeners := n.itemSold
	n.mu.RUnlock()
	for _, fn := range listeners {
		notify("item_sold", func() { fn(p, def) })
	}
}

func (n *Notifier) emitItemToggled(p Player, def ItemDefinition, enabled bool) {
	n.mu.RLock()
	listeners := n.itemToggled
	n.mu.RUnlock()
	for _, fn := range listeners {
		notify("item_toggled", func() { fn(p, def, enabled) })
	}
}

func (n *Notifier) emitItemExpired(p Player, def ItemDefinition) {
	n.mu.RLock()
	listeners := n.itemExpired
	n.mu.RUnlock()
	for _, fn := range listeners {
		notify("item_expired", func() { fn(p, def) })
	}
}

func (n *Notifier) emitLedgerEntryRecorded(entry ledger.Entry) {
	n.mu.RLock()
	listeners := n.ledgerRecorded
	n.mu.RUnlock()
	for _, fn := range listeners {
		notify("ledger_entry_recorded", func() { fn(entry) })
	}
}

func notify(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification listener panicked", "event", event, "panic", r)
		}
	}()
	fn()
}
