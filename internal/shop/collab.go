// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

// Economy is the external wallet service. Amounts are whole, non-negative
// integers in the active wallet's unit. Implementations must be safe for
// concurrent use per player.
type Economy interface {
	Balance(p Player, wallet string) int64
	Add(p Player, wallet string, amount int64)
	Subtract(p Player, wallet string, amount int64)
	HasSufficientFunds(p Player, wallet string, amount int64) bool
	SetBalance(p Player, wallet string, amount int64)
	EnsureWallet(kind string)
}

// AttributeStore is the external per-player durable key/value store used
// to persist ownership, enabled state, and expiration timestamps.
type AttributeStore interface {
	GetBool(p Player, key string, def bool) bool
	GetInt64(p Player, key string, def int64) int64
	SetBool(p Player, key string, value bool)
	SetInt64(p Player, key string, value int64)
	Unset(p Player, key string)
	// Save flushes pending mutations for the player. The engine calls it
	// after every mutating batch.
	Save(p Player) error
}

// MessageSink delivers a localized message to a player. The key is a
// translation identifier with positional arguments; sinks should print
// unknown keys verbatim so hook handlers can pass plain text through.
type MessageSink func(p Player, key string, args ...any)

// Message keys surfaced by the engine.
const (
	MsgPurchaseSuccess     = "shop.purchase.success"
	MsgInsufficientCredits = "shop.purchase.insufficient_credits"
	MsgSellSuccess         = "shop.sell.success"
	MsgItemExpired         = "shop.item.expired"
	MsgItemToggledOn       = "shop.item.enabled"
	MsgItemToggledOff      = "shop.item.disabled"
)

// Attribute keys used by the engine, one triple per tracked item.
const (
	attrPrefix       = "shopcore:item:"
	attrOwnedPart    = "owned"
	attrEnabledPart  = "enabled"
	attrExpireAtPart = "expireat"
)

func attrOwned(itemID string) string    { return attrPrefix + attrOwnedPart + ":" + itemID }
func attrEnabled(itemID string) string  { return attrPrefix + attrEnabledPart + ":" + itemID }
func attrExpireAt(itemID string) string { return attrPrefix + attrExpireAtPart + ":" + itemID }
