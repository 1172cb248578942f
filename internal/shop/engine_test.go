// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/shopcore/internal/ledger"
	"github.com/shopcore/shopcore/internal/shop"
)

type fakeEconomy struct {
	balances map[string]int64
	wallets  []string
}

func newFakeEconomy() *fakeEconomy {
	return &fakeEconomy{balances: make(map[string]int64)}
}

func econKey(p shop.Player, wallet string) string {
	return fmt.Sprintf("%s|%d", wallet, p.SteamID)
}

func (f *fakeEconomy) Balance(p shop.Player, wallet string) int64 {
	return f.balances[econKey(p, wallet)]
}

func (f *fakeEconomy) Add(p shop.Player, wallet string, amount int64) {
	f.balances[econKey(p, wallet)] += amount
}

func (f *fakeEconomy) Subtract(p shop.Player, wallet string, amount int64) {
	f.balances[econKey(p, wallet)] -= amount
}

func (f *fakeEconomy) HasSufficientFunds(p shop.Player, wallet string, amount int64) bool {
	return f.balances[econKey(p, wallet)] >= amount
}

func (f *fakeEconomy) SetBalance(p shop.Player, wallet string, amount int64) {
	f.balances[econKey(p, wallet)] = amount
}

func (f *fakeEconomy) EnsureWallet(kind string) {
	f.wallets = append(f.wallets, kind)
}

type fakeAttrs struct {
	bools map[string]bool
	ints  map[string]int64
	saves int
}

func newFakeAttrs() *fakeAttrs {
	return &fakeAttrs{bools: make(map[string]bool), ints: make(map[string]int64)}
}

func attrKey(p shop.Player, key string) string {
	return fmt.Sprintf("%d|%s", p.SteamID, key)
}

func (f *fakeAttrs) GetBool(p shop.Player, key string, def bool) bool {
	if v, ok := f.bools[attrKey(p, key)]; ok {
		return v
	}
	return def
}

func (f *fakeAttrs) GetInt64(p shop.Player, key string, def int64) int64 {
	if v, ok := f.ints[attrKey(p, key)]; ok {
		return v
	}
	return def
}

func (f *fakeAttrs) SetBool(p shop.Player, key string, value bool) {
	f.bools[attrKey(p, key)] = value
}

func (f *fakeAttrs) SetInt64(p shop.Player, key string, value int64) {
	f.ints[attrKey(p, key)] = value
}

func (f *fakeAttrs) Unset(p shop.Player, key string) {
	delete(f.bools, attrKey(p, key))
	delete(f.ints, attrKey(p, key))
}

func (f *fakeAttrs) Save(p shop.Player) error {
	f.saves++
	return nil
}

type fixture struct {
	registry *shop.Registry
	hooks    *shop.Hooks
	notifier *shop.Notifier
	economy  *fakeEconomy
	attrs    *fakeAttrs
	mem      *ledger.MemoryStore
	engine   *shop.Engine
	clock    time.Time
	messages []string
}

func newFixture(t *testing.T, settings shop.Settings) *fixture {
	t.Helper()

	f := &fixture{
		hooks:    shop.NewHooks(),
		notifier: shop.NewNotifier(),
		economy:  newFakeEconomy(),
		attrs:    newFakeAttrs(),
		mem:      ledger.NewMemoryStore(100),
		clock:    time.Unix(1_700_000_000, 0),
	}
	f.registry = shop.NewRegistry(f.notifier)

	engine, err := shop.NewEngine(shop.Config{
		Registry:   f.registry,
		Hooks:      f.hooks,
		Notifier:   f.notifier,
		Economy:    f.economy,
		Attributes: f.attrs,
		Ledger:     ledger.NewManager(f.mem),
		Messages: func(p shop.Player, key string, args ...any) {
			f.messages = append(f.messages, key)
		},
		Settings: settings,
		Now:      func() time.Time { return f.clock },
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) entries(t *testing.T) []ledger.Entry {
	t.Helper()
	entries, err := f.mem.Recent(context.Background(), 100)
	require.NoError(t, err)
	return entries
}

var alice = shop.Player{SteamID: 76561198000000001, Slot: 3, Name: "alice", Team: shop.TeamCT}

func TestNewEngine_RequiredCollaborators(t *testing.T) {
	registry := shop.NewRegistry(nil)
	economy := newFakeEconomy()
	attrs := newFakeAttrs()

	tests := []struct {
		name string
		cfg  shop.Config
	}{
		{"missing registry", shop.Config{Economy: economy, Attributes: attrs}},
		{"missing economy", shop.Config{Registry: registry, Attributes: attrs}},
		{"missing attributes", shop.Config{Registry: registry, Economy: economy}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shop.NewEngine(tt.cfg)
			require.Error(t, err)
		})
	}

	t.Run("ensures wallet kind", func(t *testing.T) {
		_, err := shop.NewEngine(shop.Config{
			Registry:   registry,
			Economy:    economy,
			Attributes: attrs,
			Settings:   shop.Settings{Wallet: "gems"},
		})
		require.NoError(t, err)
		assert.Contains(t, economy.wallets, "gems")
	})
}

func TestEngine_PurchaseItem(t *testing.T) {
	ctx := context.Background()

	t.Run("permanent item end to end", func(t *testing.T) {
		f := newFixture(t, shop.Settings{SellEnabled: true})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "vip_pass", DisplayName: "VIP Pass", Category: "perks",
			Price: 500, Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 1000)

		var purchased, toggled int
		f.notifier.OnItemPurchased(func(p shop.Player, def shop.ItemDefinition) { purchased++ })
		f.notifier.OnItemToggled(func(p shop.Player, def shop.ItemDefinition, enabled bool) {
			toggled++
			assert.True(t, enabled)
		})

		res := f.engine.PurchaseItem(ctx, alice, "vip_pass")

		require.Equal(t, shop.StatusSuccess, res.Status)
		assert.EqualValues(t, 500, res.Balance)
		assert.EqualValues(t, -500, res.Delta)
		assert.Nil(t, res.ExpiresAt)
		assert.True(t, f.engine.IsItemOwned(alice, "vip_pass"))
		assert.True(t, f.engine.IsItemEnabled(alice, "vip_pass"))
		assert.Equal(t, 1, purchased)
		assert.Equal(t, 1, toggled)

		entries := f.entries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.ActionPurchase, entries[0].Action)
		assert.EqualValues(t, 500, entries[0].Amount)
		assert.EqualValues(t, 500, entries[0].BalanceAfter)
		assert.Equal(t, "vip_pass", entries[0].ItemID)
		assert.Equal(t, alice.SteamID, entries[0].SteamID)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		res := f.engine.PurchaseItem(ctx, alice, "ghost")
		assert.Equal(t, shop.StatusItemNotFound, res.Status)
	})

	t.Run("globally disabled item", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		def := shop.ItemDefinition{ID: "off", Category: "misc", Price: 10, Type: shop.ItemPermanent}
		require.True(t, f.registry.Register(def))
		res := f.engine.PurchaseItem(ctx, alice, "off")
		assert.Equal(t, shop.StatusItemDisabled, res.Status)
	})

	t.Run("team restriction", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "t_only", Category: "misc", Price: 10, Type: shop.ItemPermanent,
			Enabled: true, Team: shop.TeamT,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		res := f.engine.PurchaseItem(ctx, alice, "t_only")
		assert.Equal(t, shop.StatusTeamNotAllowed, res.Status)

		bob := alice
		bob.Team = shop.TeamT
		res = f.engine.PurchaseItem(ctx, bob, "t_only")
		assert.Equal(t, shop.StatusSuccess, res.Status)
	})

	t.Run("already owned", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "hat", Category: "misc", Price: 10, Type: shop.ItemPermanent, Enabled: true,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, "hat").Status)
		res := f.engine.PurchaseItem(ctx, alice, "hat")

		assert.Equal(t, shop.StatusAlreadyOwned, res.Status)
		assert.EqualValues(t, 90, f.economy.Balance(alice, shop.DefaultWallet), "balance unchanged by the rejected purchase")
	})

	t.Run("insufficient credits", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "boost", Category: "misc", Price: 100, Type: shop.ItemPermanent, Enabled: true,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 50)

		res := f.engine.PurchaseItem(ctx, alice, "boost")

		assert.Equal(t, shop.StatusInsufficientCredits, res.Status)
		assert.EqualValues(t, 50, f.economy.Balance(alice, shop.DefaultWallet))
		assert.Empty(t, f.entries(t), "no ledger entry for a failed purchase")
		assert.False(t, f.engine.IsItemOwned(alice, "boost"))
	})

	t.Run("invalid prices", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		free := shop.ItemDefinition{ID: "free", Category: "misc", Price: 0, Type: shop.ItemPermanent, Enabled: true}
		fractional := shop.ItemDefinition{ID: "frac", Category: "misc", Price: 9.5, Type: shop.ItemPermanent, Enabled: true}
		require.True(t, f.registry.Register(free))
		require.True(t, f.registry.Register(fractional))
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		assert.Equal(t, shop.StatusInvalidAmount, f.engine.PurchaseItem(ctx, alice, "free").Status)
		assert.Equal(t, shop.StatusInvalidAmount, f.engine.PurchaseItem(ctx, alice, "frac").Status)
	})

	t.Run("blocked by hook", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "jet", DisplayName: "Jet", Category: "misc", Price: 6000,
			Type: shop.ItemPermanent, Enabled: true,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 10000)

		var laterRan bool
		f.hooks.BeforePurchase(func(hc *shop.HookContext) {
			if hc.Item.Price > 5000 {
				hc.Block("too expensive for you")
			}
		})
		f.hooks.BeforePurchase(func(hc *shop.HookContext) { laterRan = true })

		var purchased bool
		f.notifier.OnItemPurchased(func(p shop.Player, def shop.ItemDefinition) { purchased = true })

		res := f.engine.PurchaseItem(ctx, alice, "jet")

		assert.Equal(t, shop.StatusBlockedByModule, res.Status)
		assert.Equal(t, "too expensive for you", res.Message)
		assert.EqualValues(t, 10000, f.economy.Balance(alice, shop.DefaultWallet))
		assert.False(t, laterRan, "handlers after the blocking one must not run")
		assert.False(t, purchased, "no purchase notification when blocked")
		assert.Empty(t, f.entries(t))
	})

	t.Run("consumable has no persisted state", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "nade", Category: "misc", Price: 25, Type: shop.ItemConsumable, Enabled: true,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, "nade").Status)
		assert.False(t, f.engine.IsItemOwned(alice, "nade"))

		// A consumable can be bought again immediately.
		require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, "nade").Status)
		assert.EqualValues(t, 50, f.economy.Balance(alice, shop.DefaultWallet))
		assert.Len(t, f.entries(t), 2)
	})

	t.Run("temporary item arms expiry", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "boost", Category: "misc", Price: 100, Type: shop.ItemTemporary,
			Duration: time.Hour, Enabled: true,
		}))
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		res := f.engine.PurchaseItem(ctx, alice, "boost")

		require.Equal(t, shop.StatusSuccess, res.Status)
		require.NotNil(t, res.ExpiresAt)
		assert.Equal(t, f.clock.Add(time.Hour).Unix(), res.ExpiresAt.Unix())
	})
}

func TestEngine_SellItem(t *testing.T) {
	ctx := context.Background()

	buy := func(t *testing.T, f *fixture, def shop.ItemDefinition, balance int64) {
		t.Helper()
		require.True(t, f.registry.Register(def))
		f.economy.SetBalance(alice, shop.DefaultWallet, balance)
		require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, def.ID).Status)
	}

	t.Run("refund ratio applies without explicit sell price", func(t *testing.T) {
		f := newFixture(t, shop.Settings{SellEnabled: true, RefundRatio: 0.5})
		buy(t, f, shop.ItemDefinition{
			ID: "vip_pass", Category: "perks", Price: 500,
			Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
		}, 1000)

		res := f.engine.SellItem(ctx, alice, "vip_pass")

		require.Equal(t, shop.StatusSuccess, res.Status)
		assert.EqualValues(t, 250, res.Delta)
		assert.EqualValues(t, 750, res.Balance)
		assert.False(t, f.engine.IsItemOwned(alice, "vip_pass"))

		entries := f.entries(t)
		require.Len(t, entries, 2)
		assert.Equal(t, ledger.ActionSell, entries[0].Action, "sell entry is newest")
		assert.EqualValues(t, 250, entries[0].Amount)
	})

	t.Run("explicit sell price credits exactly", func(t *testing.T) {
		f := newFixture(t, shop.Settings{SellEnabled: true, RefundRatio: 0.5})
		sell := 400.0
		buy(t, f, shop.ItemDefinition{
			ID: "skin", Category: "cosmetics", Price: 500, SellPrice: &sell,
			Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
		}, 1000)

		res := f.engine.SellItem(ctx, alice, "skin")

		require.Equal(t, shop.StatusSuccess, res.Status)
		assert.EqualValues(t, 400, res.Delta)
	})

	t.Run("not sellable variants", func(t *testing.T) {
		t.Run("selling globally disabled", func(t *testing.T) {
			f := newFixture(t, shop.Settings{SellEnabled: false})
			buy(t, f, shop.ItemDefinition{
				ID: "hat", Category: "misc", Price: 100,
				Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
			}, 100)
			assert.Equal(t, shop.StatusNotSellable, f.engine.SellItem(ctx, alice, "hat").Status)
		})

		t.Run("item not sellable", func(t *testing.T) {
			f := newFixture(t, shop.Settings{SellEnabled: true})
			buy(t, f, shop.ItemDefinition{
				ID: "hat", Category: "misc", Price: 100,
				Type: shop.ItemPermanent, Enabled: true,
			}, 100)
			assert.Equal(t, shop.StatusNotSellable, f.engine.SellItem(ctx, alice, "hat").Status)
		})

		t.Run("consumable not sellable", func(t *testing.T) {
			f := newFixture(t, shop.Settings{SellEnabled: true})
			require.True(t, f.registry.Register(shop.ItemDefinition{
				ID: "nade", Category: "misc", Price: 25,
				Type: shop.ItemConsumable, Enabled: true, CanBeSold: true,
			}))
			assert.Equal(t, shop.StatusNotSellable, f.engine.SellItem(ctx, alice, "nade").Status)
		})
	})

	t.Run("not owned", func(t *testing.T) {
		f := newFixture(t, shop.Settings{SellEnabled: true})
		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "hat", Category: "misc", Price: 100,
			Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
		}))
		assert.Equal(t, shop.StatusNotOwned, f.engine.SellItem(ctx, alice, "hat").Status)
	})

	t.Run("blocked by hook", func(t *testing.T) {
		f := newFixture(t, shop.Settings{SellEnabled: true})
		buy(t, f, shop.ItemDefinition{
			ID: "hat", Category: "misc", Price: 100,
			Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
		}, 100)

		f.hooks.BeforeSell(func(hc *shop.HookContext) { hc.BlockKey("shop.sell.locked", hc.Item.ID) })

		res := f.engine.SellItem(ctx, alice, "hat")
		assert.Equal(t, shop.StatusBlockedByModule, res.Status)
		assert.True(t, f.engine.IsItemOwned(alice, "hat"))
		assert.Contains(t, f.messages, "shop.sell.locked")
	})

	t.Run("toggled-off fires before sold for an enabled item", func(t *testing.T) {
		f := newFixture(t, shop.Settings{SellEnabled: true, RefundRatio: 1})
		buy(t, f, shop.ItemDefinition{
			ID: "hat", Category: "misc", Price: 100,
			Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
		}, 100)

		var order []string
		f.notifier.OnItemToggled(func(p shop.Player, def shop.ItemDefinition, enabled bool) {
			if !enabled {
				order = append(order, "toggled")
			}
		})
		f.notifier.OnItemSold(func(p shop.Player, def shop.ItemDefinition) {
			order = append(order, "sold")
		})

		require.Equal(t, shop.StatusSuccess, f.engine.SellItem(ctx, alice, "hat").Status)
		assert.Equal(t, []string{"toggled", "sold"}, order)
	})
}

func TestEngine_LazyExpiration(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, shop.Settings{ExpiryNotices: true})
	require.True(t, f.registry.Register(shop.ItemDefinition{
		ID: "boost", DisplayName: "Boost", Category: "misc", Price: 100,
		Type: shop.ItemTemporary, Duration: 3600 * time.Second, Enabled: true,
	}))
	f.economy.SetBalance(alice, shop.DefaultWallet, 100)

	var expired int
	var toggledOff int
	f.notifier.OnItemExpired(func(p shop.Player, def shop.ItemDefinition) { expired++ })
	f.notifier.OnItemToggled(func(p shop.Player, def shop.ItemDefinition, enabled bool) {
		if !enabled {
			toggledOff++
		}
	})

	require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, "boost").Status)

	f.advance(3599 * time.Second)
	assert.True(t, f.engine.IsItemOwned(alice, "boost"), "still owned just before the window elapses")
	assert.Zero(t, expired)

	f.advance(2 * time.Second)
	assert.False(t, f.engine.IsItemOwned(alice, "boost"), "first query past expiry observes the expiration")
	assert.Equal(t, 1, expired, "ItemExpired fires exactly once")
	assert.Equal(t, 1, toggledOff, "the enabled item is toggled off on expiry")
	assert.Contains(t, f.messages, shop.MsgItemExpired)

	assert.False(t, f.engine.IsItemOwned(alice, "boost"))
	assert.Equal(t, 1, expired, "a second query must not re-fire the event")
}

func TestEngine_OwnershipMigrationShim(t *testing.T) {
	f := newFixture(t, shop.Settings{})
	require.True(t, f.registry.Register(shop.ItemDefinition{
		ID: "hat", Category: "misc", Price: 100, Type: shop.ItemPermanent, Enabled: true,
	}))

	// Legacy rows carried only the enabled flag.
	f.attrs.SetBool(alice, "shopcore:item:enabled:hat", true)

	assert.True(t, f.engine.IsItemOwned(alice, "hat"))
	assert.True(t, f.attrs.GetBool(alice, "shopcore:item:owned:hat", false), "ownership is corrected in place")
}

func TestEngine_SetItemEnabled(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, settings shop.Settings, def shop.ItemDefinition) *fixture {
		t.Helper()
		f := newFixture(t, settings)
		require.True(t, f.registry.Register(def))
		f.economy.SetBalance(alice, shop.DefaultWallet, 1000)
		require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, def.ID).Status)
		return f
	}

	perm := shop.ItemDefinition{
		ID: "hat", DisplayName: "Hat", Category: "misc", Price: 100,
		Type: shop.ItemPermanent, Enabled: true,
	}

	t.Run("not owned fails", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		require.True(t, f.registry.Register(perm))
		assert.False(t, f.engine.SetItemEnabled(alice, "hat", true))
	})

	t.Run("unknown or consumable item fails", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		assert.False(t, f.engine.SetItemEnabled(alice, "ghost", true))

		require.True(t, f.registry.Register(shop.ItemDefinition{
			ID: "nade", Category: "misc", Price: 25, Type: shop.ItemConsumable, Enabled: true,
		}))
		assert.False(t, f.engine.SetItemEnabled(alice, "nade", true))
	})

	t.Run("same state is a no-op returning true", func(t *testing.T) {
		f := setup(t, shop.Settings{}, perm)

		var hookRan bool
		f.hooks.BeforeToggle(func(hc *shop.HookContext) { hookRan = true })

		assert.True(t, f.engine.SetItemEnabled(alice, "hat", true), "purchase leaves the item enabled")
		assert.False(t, hookRan, "no hook invocation for a no-op toggle")
	})

	t.Run("blocked hook fails silently", func(t *testing.T) {
		f := setup(t, shop.Settings{}, perm)
		f.hooks.BeforeToggle(func(hc *shop.HookContext) { hc.Block("not now") })

		assert.False(t, f.engine.SetItemEnabled(alice, "hat", false))
		assert.True(t, f.engine.IsItemEnabled(alice, "hat"), "state unchanged when blocked")
	})

	t.Run("disable and enable round trip", func(t *testing.T) {
		f := setup(t, shop.Settings{}, perm)

		var states []bool
		f.notifier.OnItemToggled(func(p shop.Player, def shop.ItemDefinition, enabled bool) {
			states = append(states, enabled)
		})

		require.True(t, f.engine.SetItemEnabled(alice, "hat", false))
		assert.False(t, f.engine.IsItemEnabled(alice, "hat"))
		assert.True(t, f.engine.IsItemOwned(alice, "hat"))

		require.True(t, f.engine.SetItemEnabled(alice, "hat", true))
		assert.True(t, f.engine.IsItemEnabled(alice, "hat"))

		assert.Equal(t, []bool{false, true}, states)
	})

	t.Run("re-arms an elapsed duration on re-equip", func(t *testing.T) {
		temp := shop.ItemDefinition{
			ID: "boost", Category: "misc", Price: 100,
			Type: shop.ItemTemporary, Duration: time.Hour, Enabled: true,
		}
		f := setup(t, shop.Settings{}, temp)

		require.True(t, f.engine.SetItemEnabled(alice, "boost", false))
		f.advance(2 * time.Hour)

		require.True(t, f.engine.SetItemEnabled(alice, "boost", true))
		assert.True(t, f.engine.IsItemOwned(alice, "boost"), "fresh window armed on re-equip")

		f.advance(59 * time.Minute)
		assert.True(t, f.engine.IsItemOwned(alice, "boost"))

		f.advance(2 * time.Minute)
		assert.False(t, f.engine.IsItemOwned(alice, "boost"))
	})

	t.Run("does not extend a running window", func(t *testing.T) {
		temp := shop.ItemDefinition{
			ID: "boost", Category: "misc", Price: 100,
			Type: shop.ItemTemporary, Duration: time.Hour, Enabled: true,
		}
		f := setup(t, shop.Settings{}, temp)

		require.True(t, f.engine.SetItemEnabled(alice, "boost", false))
		f.advance(30 * time.Minute)
		require.True(t, f.engine.SetItemEnabled(alice, "boost", true))

		f.advance(31 * time.Minute)
		assert.False(t, f.engine.IsItemOwned(alice, "boost"), "original window still applies")
	})
}

func TestEngine_Credits(t *testing.T) {
	ctx := context.Background()

	t.Run("grant", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		res := f.engine.GrantCredits(ctx, alice, 400)

		require.Equal(t, shop.StatusSuccess, res.Status)
		assert.EqualValues(t, 500, res.Balance)

		entries := f.entries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.ActionCreditsAdd, entries[0].Action)
	})

	t.Run("grant rejects non-positive amounts", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		assert.Equal(t, shop.StatusInvalidAmount, f.engine.GrantCredits(ctx, alice, 0).Status)
		assert.Equal(t, shop.StatusInvalidAmount, f.engine.GrantCredits(ctx, alice, -10).Status)
	})

	t.Run("remove", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		f.economy.SetBalance(alice, shop.DefaultWallet, 100)

		res := f.engine.RemoveCredits(ctx, alice, 60)

		require.Equal(t, shop.StatusSuccess, res.Status)
		assert.EqualValues(t, 40, res.Balance)

		entries := f.entries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.ActionCreditsSubtract, entries[0].Action)
	})

	t.Run("remove rejects overdraw", func(t *testing.T) {
		f := newFixture(t, shop.Settings{})
		f.economy.SetBalance(alice, shop.DefaultWallet, 10)
		assert.Equal(t, shop.StatusInsufficientCredits, f.engine.RemoveCredits(ctx, alice, 60).Status)
		assert.EqualValues(t, 10, f.economy.Balance(alice, shop.DefaultWallet))
	})
}

func TestEngine_ApplySettings(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, shop.Settings{SellEnabled: true, RefundRatio: 0.5})
	require.True(t, f.registry.Register(shop.ItemDefinition{
		ID: "hat", Category: "misc", Price: 100,
		Type: shop.ItemPermanent, Enabled: true, CanBeSold: true,
	}))
	f.economy.SetBalance(alice, shop.DefaultWallet, 100)
	require.Equal(t, shop.StatusSuccess, f.engine.PurchaseItem(ctx, alice, "hat").Status)

	// Ratio above one must clamp to a full refund.
	f.engine.ApplySettings(shop.Settings{SellEnabled: true, RefundRatio: 2})

	res := f.engine.SellItem(ctx, alice, "hat")
	require.Equal(t, shop.StatusSuccess, res.Status)
	assert.EqualValues(t, 100, res.Delta)
}
