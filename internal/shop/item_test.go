// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "vip_pass", NormalizeID("  VIP_Pass "))
	assert.Equal(t, "boost", NormalizeID("boost"))
	assert.Equal(t, "", NormalizeID("   "))
}

func TestItemType_String(t *testing.T) {
	tests := []struct {
		typ  ItemType
		want string
	}{
		{ItemPassive, "passive"},
		{ItemConsumable, "consumable"},
		{ItemTemporary, "temporary"},
		{ItemPermanent, "permanent"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestItemDefinition_Tracked(t *testing.T) {
	assert.False(t, ItemDefinition{Type: ItemConsumable}.Tracked())
	assert.True(t, ItemDefinition{Type: ItemPassive}.Tracked())
	assert.True(t, ItemDefinition{Type: ItemTemporary}.Tracked())
	assert.True(t, ItemDefinition{Type: ItemPermanent}.Tracked())
}

func TestTeam_Allows(t *testing.T) {
	tests := []struct {
		name     string
		restrict Team
		player   Team
		want     bool
	}{
		{"any admits t", TeamAny, TeamT, true},
		{"any admits ct", TeamAny, TeamCT, true},
		{"t admits t", TeamT, TeamT, true},
		{"t rejects ct", TeamT, TeamCT, false},
		{"ct admits ct", TeamCT, TeamCT, true},
		{"ct rejects t", TeamCT, TeamT, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.restrict.Allows(tt.player))
		})
	}
}
