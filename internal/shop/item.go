// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

// Package shop contains the transactional core of the item economy:
// the item registry, the before-action hook pipeline, post-action
// notifications, and the transaction engine.
package shop

import (
	"strings"
	"time"
)

// ItemType classifies how an item behaves after purchase.
type ItemType uint8

const (
	// ItemPassive items are owned and toggled but have no duration.
	ItemPassive ItemType = iota
	// ItemConsumable items have only an economic effect; no state is persisted.
	ItemConsumable
	// ItemTemporary items expire Duration after purchase.
	ItemTemporary
	// ItemPermanent items are owned until sold.
	ItemPermanent
)

func (t ItemType) String() string {
	switch t {
	case ItemPassive:
		return "passive"
	case ItemConsumable:
		return "consumable"
	case ItemTemporary:
		return "temporary"
	case ItemPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Team restricts an item to one side of the match.
type Team uint8

const (
	TeamAny Team = iota
	TeamT
	TeamCT
)

func (t Team) String() string {
	switch t {
	case TeamAny:
		return "any"
	case TeamT:
		return "t"
	case TeamCT:
		return "ct"
	default:
		return "unknown"
	}
}

// Allows reports whether a player on the given team may use this item.
func (t Team) Allows(player Team) bool {
	return t == TeamAny || t == player
}

// Player identifies the acting player. The team is carried explicitly by
// the caller instead of being probed off an opaque controller object.
type Player struct {
	SteamID uint64
	Slot    int
	Name    string
	Team    Team
}

// ItemDefinition describes a purchasable item. Definitions are immutable
// once registered; the registry hands out copies.
type ItemDefinition struct {
	ID          string
	DisplayName string
	Category    string
	Price       float64
	SellPrice   *float64
	Duration    time.Duration // zero means permanent-until-sold
	Type        ItemType
	Team        Team
	Enabled     bool
	CanBeSold   bool
}

// Tracked reports whether ownership state is persisted for this item.
// Consumables only have an instantaneous economic effect.
func (d ItemDefinition) Tracked() bool {
	return d.Type != ItemConsumable
}

// NormalizeID canonicalizes an item id for lookups and storage keys.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (d ItemDefinition) valid() bool {
	if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Category) == "" {
		return false
	}
	if d.Price < 0 {
		return false
	}
	if d.SellPrice != nil && *d.SellPrice < 0 {
		return false
	}
	if d.Duration < 0 {
		return false
	}
	return true
}
