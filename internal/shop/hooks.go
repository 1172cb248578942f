// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

import (
	"log/slog"
	"sync"
)

// HookContext is passed through a before-action handler chain. A handler
// may block the in-flight operation; the first block is terminal for the
// invocation and later handlers do not run.
type HookContext struct {
	Player Player
	Item   ItemDefinition

	blocked     bool
	message     string
	messageKey  string
	messageArgs []any
}

// Block marks the operation blocked with a plain message. Calls after the
// first block are ignored.
func (c *HookContext) Block(message string) {
	if c.blocked {
		return
	}
	c.blocked = true
	c.message = message
}

// BlockKey marks the operation blocked with a translation key and
// positional arguments. Calls after the first block are ignored.
func (c *HookContext) BlockKey(key string, args ...any) {
	if c.blocked {
		return
	}
	c.blocked = true
	c.messageKey = key
	c.messageArgs = args
}

// IsBlocked reports whether a handler blocked the operation.
func (c *HookContext) IsBlocked() bool { return c.blocked }

// Message returns the plain block message, if any.
func (c *HookContext) Message() string { return c.message }

// MessageKey returns the translation key and arguments set by the
// blocking handler, if any.
func (c *HookContext) MessageKey() (string, []any) { return c.messageKey, c.messageArgs }

// HookFunc inspects a pending action and may block it via the context.
type HookFunc func(*HookContext)

// Hooks holds the ordered before-action handler chains. Handlers run in
// registration order; a panicking handler is logged and treated as not
// blocking.
type Hooks struct {
	mu             sync.RWMutex
	beforePurchase []HookFunc
	beforeSell     []HookFunc
	beforeToggle   []HookFunc
}

// NewHooks creates an empty hook pipeline.
func NewHooks() *Hooks {
	return &Hooks{}
}

// BeforePurchase appends a handler to the purchase chain.
func (h *Hooks) BeforePurchase(fn HookFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforePurchase = append(h.beforePurchase, fn)
}

// BeforeSell appends a handler to the sell chain.
func (h *Hooks) BeforeSell(fn HookFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeSell = append(h.beforeSell, fn)
}

// BeforeToggle appends a handler to the enable/disable chain.
func (h *Hooks) BeforeToggle(fn HookFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeToggle = append(h.beforeToggle, fn)
}

func (h *Hooks) runPurchase(ctx *HookContext) { h.run("before_purchase", h.snapshot(&h.beforePurchase), ctx) }
func (h *Hooks) runSell(ctx *HookContext)     { h.run("before_sell", h.snapshot(&h.beforeSell), ctx) }
func (h *Hooks) runToggle(ctx *HookContext)   { h.run("before_toggle", h.snapshot(&h.beforeToggle), ctx) }

func (h *Hooks) snapshot(chain *[]HookFunc) []HookFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HookFunc, len(*chain))
	copy(out, *chain)
	return out
}

func (h *Hooks) run(name string, chain []HookFunc, ctx *HookContext) {
	for _, fn := range chain {
		invokeHook(name, fn, ctx)
		if ctx.IsBlocked() {
			return
		}
	}
}

func invokeHook(name string, fn HookFunc, ctx *HookContext) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("hook handler panicked",
				"hook", name,
				"item", ctx.Item.ID,
				"steam_id", ctx.Player.SteamID,
				"panic", r,
			)
		}
	}()
	fn(ctx)
}
