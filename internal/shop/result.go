// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

import "time"

// Status is the typed outcome of a transaction. Operations never return
// errors for these branches; the status carries the outcome.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusItemNotFound
	StatusItemDisabled
	StatusTeamNotAllowed
	StatusAlreadyOwned
	StatusNotOwned
	StatusNotSellable
	StatusInsufficientCredits
	StatusInvalidAmount
	StatusBlockedByModule
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusItemNotFound:
		return "item_not_found"
	case StatusItemDisabled:
		return "item_disabled"
	case StatusTeamNotAllowed:
		return "team_not_allowed"
	case StatusAlreadyOwned:
		return "already_owned"
	case StatusNotOwned:
		return "not_owned"
	case StatusNotSellable:
		return "not_sellable"
	case StatusInsufficientCredits:
		return "insufficient_credits"
	case StatusInvalidAmount:
		return "invalid_amount"
	case StatusBlockedByModule:
		return "blocked_by_module"
	default:
		return "unknown"
	}
}

// Result is the structured outcome of a purchase, sell, or credit
// operation.
type Result struct {
	Status  Status
	Message string
	Item    *ItemDefinition
	// Balance is the wallet balance after the operation.
	Balance int64
	// Delta is the credit change applied: negative for purchases and
	// removals, positive for sales and grants, zero on failure.
	Delta int64
	// ExpiresAt is set when a purchase armed a duration.
	ExpiresAt *time.Time
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

func failure(status Status, message string, item *ItemDefinition) Result {
	return Result{Status: status, Message: message, Item: item}
}
