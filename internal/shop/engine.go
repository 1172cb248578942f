// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shopcore/shopcore/internal/ledger"
	"github.com/shopcore/shopcore/internal/observability"
)

// DefaultWallet is the wallet kind used when none is configured.
const DefaultWallet = "credits"

// Settings are the engine's runtime-tunable knobs. They can be replaced
// atomically via ApplySettings on configuration reload.
type Settings struct {
	// Wallet is the economy wallet kind debited and credited.
	Wallet string
	// RefundRatio is applied to Price when an item has no explicit
	// SellPrice. Clamped to [0, 1].
	RefundRatio float64
	// SellEnabled globally gates selling.
	SellEnabled bool
	// ExpiryNotices controls whether players are told about lazily
	// observed expirations.
	ExpiryNotices bool
}

func (s Settings) normalized() Settings {
	if s.Wallet == "" {
		s.Wallet = DefaultWallet
	}
	s.RefundRatio = math.Min(math.Max(s.RefundRatio, 0), 1)
	return s
}

// Config holds the engine's collaborators. Registry, Economy, and
// Attributes are required; the rest default to inert implementations.
type Config struct {
	Registry   *Registry
	Hooks      *Hooks
	Notifier   *Notifier
	Economy    Economy
	Attributes AttributeStore
	Ledger     *ledger.Manager
	Messages   MessageSink
	Metrics    *observability.Metrics
	Settings   Settings
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine orchestrates registry, attribute store, economy, hooks, and
// ledger into purchase/sell/enable/disable operations. It holds no lock
// across calls into collaborators.
type Engine struct {
	registry   *Registry
	hooks      *Hooks
	notifier   *Notifier
	economy    Economy
	attributes AttributeStore
	ledger     *ledger.Manager
	messages   MessageSink
	metrics    *observability.Metrics
	now        func() time.Time

	mu       sync.RWMutex
	settings Settings
}

// NewEngine validates the configuration and builds an engine. A missing
// required collaborator is a fatal precondition: the core cannot function
// without it.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("shop engine requires a registry")
	}
	if cfg.Economy == nil {
		return nil, fmt.Errorf("shop engine requires an economy collaborator")
	}
	if cfg.Attributes == nil {
		return nil, fmt.Errorf("shop engine requires an attribute store")
	}
	if cfg.Hooks == nil {
		cfg.Hooks = NewHooks()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotifier()
	}
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.NewManager(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	settings := cfg.Settings.normalized()
	cfg.Economy.EnsureWallet(settings.Wallet)

	return &Engine{
		registry:   cfg.Registry,
		hooks:      cfg.Hooks,
		notifier:   cfg.Notifier,
		economy:    cfg.Economy,
		attributes: cfg.Attributes,
		ledger:     cfg.Ledger,
		messages:   cfg.Messages,
		metrics:    cfg.Metrics,
		now:        cfg.Now,
		settings:   settings,
	}, nil
}

// ApplySettings replaces the runtime settings, clamping the refund ratio.
// This is the configuration-reload entry point.
func (e *Engine) ApplySettings(s Settings) {
	s = s.normalized()
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
	e.economy.EnsureWallet(s.Wallet)
}

func (e *Engine) currentSettings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// PurchaseItem runs the purchase state transition for one player and item.
// It never returns an error; every outcome is a typed Result.
func (e *Engine) PurchaseItem(ctx context.Context, p Player, itemID string) Result {
	settings := e.currentSettings()

	def, ok := e.registry.Get(itemID)
	if !ok {
		e.metrics.RecordTransaction(ledger.ActionPurchase, StatusItemNotFound.String())
		return failure(StatusItemNotFound, fmt.Sprintf("item %q is not registered", NormalizeID(itemID)), nil)
	}
	if !def.Enabled {
		e.metrics.RecordTransaction(ledger.ActionPurchase, StatusItemDisabled.String())
		return failure(StatusItemDisabled, fmt.Sprintf("item %q is disabled", def.ID), &def)
	}
	if !def.Team.Allows(p.Team) {
		e.metrics.RecordTransaction(ledger.ActionPurchase, StatusTeamNotAllowed.String())
		return failure(StatusTeamNotAllowed, fmt.Sprintf("item %q is restricted to team %s", def.ID, def.Team), &def)
	}

	hctx := &HookContext{Player: p, Item: def}
	e.hooks.runPurchase(hctx)
	if hctx.IsBlocked() {
		e.metrics.RecordBlocked("before_purchase")
		return e.blockedResult(p, hctx, &def)
	}

	if def.Tracked() && e.IsItemOwned(p, def.ID) {
		e.metrics.RecordTransaction(ledger.ActionPurchase, StatusAlreadyOwned.String())
		return failure(StatusAlreadyOwned, fmt.Sprintf("item %q is already owned", def.ID), &def)
	}

	amount, ok := creditAmount(def.Price)
	if !ok {
		e.metrics.RecordTransaction(ledger.ActionPurchase, StatusInvalidAmount.String())
		return failure(StatusInvalidAmount, fmt.Sprintf("item %q has no valid credit price", def.ID), &def)
	}

	if !e.economy.HasSufficientFunds(p, settings.Wallet, amount) {
		e.notify(p, MsgInsufficientCredits, def.DisplayName, amount)
		e.metrics.RecordTransaction(ledger.ActionPurchase, StatusInsufficientCredits.String())
		return failure(StatusInsufficientCredits, fmt.Sprintf("not enough credits for item %q", def.ID), &def)
	}

	e.economy.Subtract(p, settings.Wallet, amount)
	balance := e.economy.Balance(p, settings.Wallet)

	var expiresAt *time.Time
	if def.Tracked() {
		e.attributes.SetBool(p, attrOwned(def.ID), true)
		e.attributes.SetBool(p, attrEnabled(def.ID), true)
		if def.Duration > 0 {
			exp := e.now().Add(def.Duration)
			e.attributes.SetInt64(p, attrExpireAt(def.ID), exp.Unix())
			expiresAt = &exp
		} else {
			e.attributes.Unset(p, attrExpireAt(def.ID))
		}
		e.save(p)
		e.notifier.emitItemToggled(p, def, true)
	}

	e.notifier.emitItemPurchased(p, def)
	e.recordLedger(ctx, p, ledger.ActionPurchase, amount, balance, &def)
	e.notify(p, MsgPurchaseSuccess, def.DisplayName, balance)
	e.metrics.RecordTransaction(ledger.ActionPurchase, StatusSuccess.String())

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("purchased %q", def.ID),
		Item:      &def,
		Balance:   balance,
		Delta:     -amount,
		ExpiresAt: expiresAt,
	}
}

// SellItem runs the sell state transition for one player and item.
func (e *Engine) SellItem(ctx context.Context, p Player, itemID string) Result {
	settings := e.currentSettings()

	def, ok := e.registry.Get(itemID)
	if !ok {
		e.metrics.RecordTransaction(ledger.ActionSell, StatusItemNotFound.String())
		return failure(StatusItemNotFound, fmt.Sprintf("item %q is not registered", NormalizeID(itemID)), nil)
	}
	if !settings.SellEnabled || !def.CanBeSold || !def.Tracked() {
		e.metrics.RecordTransaction(ledger.ActionSell, StatusNotSellable.String())
		return failure(StatusNotSellable, fmt.Sprintf("item %q cannot be sold", def.ID), &def)
	}

	hctx := &HookContext{Player: p, Item: def}
	e.hooks.runSell(hctx)
	if hctx.IsBlocked() {
		e.metrics.RecordBlocked("before_sell")
		return e.blockedResult(p, hctx, &def)
	}

	if !e.IsItemOwned(p, def.ID) {
		e.metrics.RecordTransaction(ledger.ActionSell, StatusNotOwned.String())
		return failure(StatusNotOwned, fmt.Sprintf("item %q is not owned", def.ID), &def)
	}

	amount := sellAmount(def, settings.RefundRatio)

	wasEnabled := e.attributes.GetBool(p, attrEnabled(def.ID), false)
	e.attributes.Unset(p, attrOwned(def.ID))
	e.attributes.Unset(p, attrEnabled(def.ID))
	e.attributes.Unset(p, attrExpireAt(def.ID))
	e.save(p)

	e.economy.Add(p, settings.Wallet, amount)
	balance := e.economy.Balance(p, settings.Wallet)

	if wasEnabled {
		e.notifier.emitItemToggled(p, def, false)
	}
	e.notifier.emitItemSold(p, def)
	e.recordLedger(ctx, p, ledger.ActionSell, amount, balance, &def)
	e.notify(p, MsgSellSuccess, def.DisplayName, balance)
	e.metrics.RecordTransaction(ledger.ActionSell, StatusSuccess.String())

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("sold %q", def.ID),
		Item:    &def,
		Balance: balance,
		Delta:   amount,
	}
}

// IsItemOwned reports whether the player currently owns the item.
// Expiration is lazy: a past expireAt is corrected here, as a side effect
// of the read, firing ItemToggled(false) and ItemExpired. There is no
// background timer; state that is never queried is never corrected.
func (e *Engine) IsItemOwned(p Player, itemID string) bool {
	itemID = NormalizeID(itemID)
	def, ok := e.registry.Get(itemID)
	if !ok {
		def = ItemDefinition{ID: itemID}
	}

	owned := e.attributes.GetBool(p, attrOwned(itemID), false)
	enabled := e.attributes.GetBool(p, attrEnabled(itemID), false)

	// Legacy data had only the enabled flag; lift it into ownership.
	if enabled && !owned {
		e.attributes.SetBool(p, attrOwned(itemID), true)
		e.save(p)
		owned = true
	}
	if !owned {
		return false
	}

	expireAt := e.attributes.GetInt64(p, attrExpireAt(itemID), 0)
	if expireAt == 0 || e.now().Unix() < expireAt {
		return true
	}

	// Observed an elapsed window: unown in place before reporting.
	e.attributes.Unset(p, attrOwned(itemID))
	e.attributes.Unset(p, attrEnabled(itemID))
	e.attributes.Unset(p, attrExpireAt(itemID))
	e.save(p)

	if enabled {
		e.notifier.emitItemToggled(p, def, false)
	}
	e.notifier.emitItemExpired(p, def)
	e.metrics.RecordExpiration()
	if e.currentSettings().ExpiryNotices {
		e.notify(p, MsgItemExpired, def.DisplayName)
	}
	return false
}

// IsItemEnabled reports whether the item is owned and currently enabled.
// It shares the lazy expiration semantics of IsItemOwned.
func (e *Engine) IsItemEnabled(p Player, itemID string) bool {
	if !e.IsItemOwned(p, itemID) {
		return false
	}
	return e.attributes.GetBool(p, attrEnabled(NormalizeID(itemID)), false)
}

// SetItemEnabled enables or disables an owned item. It returns true when
// the item ends up in the requested state, false when the item is not
// owned or a before-toggle hook blocked the change. Enabling an item
// whose duration window has already elapsed re-arms a fresh window; a
// still-running window is never extended.
func (e *Engine) SetItemEnabled(p Player, itemID string, enabled bool) bool {
	itemID = NormalizeID(itemID)
	def, ok := e.registry.Get(itemID)
	if !ok || !def.Tracked() {
		return false
	}

	owned := e.attributes.GetBool(p, attrOwned(itemID), false)
	current := e.attributes.GetBool(p, attrEnabled(itemID), false)
	if current && !owned {
		e.attributes.SetBool(p, attrOwned(itemID), true)
		owned = true
	}
	if !owned {
		return false
	}
	if current == enabled {
		return true
	}

	hctx := &HookContext{Player: p, Item: def}
	e.hooks.runToggle(hctx)
	if hctx.IsBlocked() {
		e.metrics.RecordBlocked("before_toggle")
		return false
	}

	e.attributes.SetBool(p, attrEnabled(itemID), enabled)
	if enabled && def.Duration > 0 {
		expireAt := e.attributes.GetInt64(p, attrExpireAt(itemID), 0)
		if expireAt > 0 && expireAt <= e.now().Unix() {
			e.attributes.SetInt64(p, attrExpireAt(itemID), e.now().Add(def.Duration).Unix())
		}
	}
	e.save(p)

	if enabled {
		e.notify(p, MsgItemToggledOn, def.DisplayName)
	} else {
		e.notify(p, MsgItemToggledOff, def.DisplayName)
	}
	e.notifier.emitItemToggled(p, def, enabled)
	return true
}

// GrantCredits adds credits to the player's wallet and ledgers the grant.
func (e *Engine) GrantCredits(ctx context.Context, p Player, amount int64) Result {
	settings := e.currentSettings()
	if amount <= 0 {
		e.metrics.RecordTransaction(ledger.ActionCreditsAdd, StatusInvalidAmount.String())
		return failure(StatusInvalidAmount, "grant amount must be positive", nil)
	}

	e.economy.Add(p, settings.Wallet, amount)
	balance := e.economy.Balance(p, settings.Wallet)
	e.recordLedger(ctx, p, ledger.ActionCreditsAdd, amount, balance, nil)
	e.metrics.RecordTransaction(ledger.ActionCreditsAdd, StatusSuccess.String())

	return Result{Status: StatusSuccess, Message: "credits granted", Balance: balance, Delta: amount}
}

// RemoveCredits subtracts credits from the player's wallet and ledgers
// the removal.
func (e *Engine) RemoveCredits(ctx context.Context, p Player, amount int64) Result {
	settings := e.currentSettings()
	if amount <= 0 {
		e.metrics.RecordTransaction(ledger.ActionCreditsSubtract, StatusInvalidAmount.String())
		return failure(StatusInvalidAmount, "removal amount must be positive", nil)
	}
	if !e.economy.HasSufficientFunds(p, settings.Wallet, amount) {
		e.metrics.RecordTransaction(ledger.ActionCreditsSubtract, StatusInsufficientCredits.String())
		return failure(StatusInsufficientCredits, "not enough credits to remove", nil)
	}

	e.economy.Subtract(p, settings.Wallet, amount)
	balance := e.economy.Balance(p, settings.Wallet)
	e.recordLedger(ctx, p, ledger.ActionCreditsSubtract, amount, balance, nil)
	e.metrics.RecordTransaction(ledger.ActionCreditsSubtract, StatusSuccess.String())

	return Result{Status: StatusSuccess, Message: "credits removed", Balance: balance, Delta: -amount}
}

func (e *Engine) blockedResult(p Player, hctx *HookContext, def *ItemDefinition) Result {
	message := hctx.Message()
	if key, args := hctx.MessageKey(); key != "" {
		e.notify(p, key, args...)
		if message == "" {
			message = key
		}
	} else if message != "" {
		e.notify(p, message)
	}
	return failure(StatusBlockedByModule, message, def)
}

func (e *Engine) recordLedger(ctx context.Context, p Player, action string, amount, balance int64, def *ItemDefinition) {
	entry := ledger.Entry{
		Timestamp:    e.now().Unix(),
		SteamID:      p.SteamID,
		PlayerID:     p.Slot,
		PlayerName:   p.Name,
		Action:       action,
		Amount:       amount,
		BalanceAfter: balance,
	}
	if def != nil {
		entry.ItemID = def.ID
		entry.ItemDisplayName = def.DisplayName
	}

	if err := e.ledger.Record(ctx, entry); err != nil {
		slog.Error("failed to record ledger entry",
			"action", action,
			"steam_id", p.SteamID,
			"error", err,
		)
		return
	}
	e.metrics.RecordLedgerEntry(e.ledger.Mode())
	e.notifier.emitLedgerEntryRecorded(entry)
}

func (e *Engine) notify(p Player, key string, args ...any) {
	if e.messages == nil {
		return
	}
	e.messages(p, key, args...)
}

func (e *Engine) save(p Player) {
	if err := e.attributes.Save(p); err != nil {
		slog.Error("failed to flush player attributes", "steam_id", p.SteamID, "error", err)
	}
}

// creditAmount converts a price to the economy's integral unit. Prices
// that are non-positive, non-integral, or out of range are rejected.
func creditAmount(price float64) (int64, bool) {
	if price <= 0 || price != math.Trunc(price) || price >= float64(math.MaxInt64) {
		return 0, false
	}
	return int64(price), true
}

// sellAmount is the explicit sell price when present, otherwise the price
// scaled by the refund ratio, rounded half away from zero.
func sellAmount(def ItemDefinition, refundRatio float64) int64 {
	if def.SellPrice != nil {
		return int64(math.Round(*def.SellPrice))
	}
	return int64(math.Round(def.Price * refundRatio))
}
