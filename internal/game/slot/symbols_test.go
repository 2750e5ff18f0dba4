package slot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPaytable = `
symbols:
  - {id: 0, name: Blue whale, pay2: 0, pay3: 200, weight: 2}
  - {id: 1, name: Great white shark, pay2: 0, pay3: 50, weight: 8}
  - {id: 2, name: Octopus, pay2: 0, pay3: 20, weight: 14}
  - {id: 3, name: Sea turtle, pay2: 0, pay3: 10, weight: 14}
  - {id: 4, name: Clownfish, pay2: 5, pay3: 0, weight: 24}
  - {id: 5, name: Conch, pay2: 4, pay3: 0, weight: 28}
  - {id: 6, name: Coral, pay2: 3, pay3: 0, weight: 36}
  - {id: 7, name: Seahorse, pay2: 0, pay3: 30, weight: 18}
  - {id: 8, name: Anglerfish, pay2: 0, pay3: 40, weight: 11}
  - {id: 9, name: Giant squid, pay2: 0, pay3: 0, weight: 10}
`

func TestDefaultSymbols(t *testing.T) {
	table := DefaultSymbols()
	require.NoError(t, table.Validate())
	assert.Equal(t, 166, table.TotalWeight())
	assert.Equal(t, "Blue whale", table.Get(TopSymbol).Name)
	assert.Equal(t, SymbolBlank, table.Get(SymbolBlank).ID)
	assert.Equal(t, 0, table.Get(SymbolBlank).Pay2)
}

func TestLoadSymbols(t *testing.T) {
	table, err := LoadSymbols(strings.NewReader(testPaytable))
	require.NoError(t, err)
	assert.Equal(t, 200, table.Get(SymbolWhale).Pay3)
	assert.Equal(t, 165, table.TotalWeight())
}

func TestLoadSymbols_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"未知字段", "symbols:\n  - {id: 0, name: x, odds: 3}\n"},
		{"数量不足", "symbols:\n  - {id: 0, name: x, pay3: 3, weight: 1}\n"},
		{"编号错位", strings.Replace(testPaytable, "id: 1,", "id: 7,", 1)},
		{"负赔付", strings.Replace(testPaytable, "pay2: 5", "pay2: -5", 1)},
		{"格式错误", "symbols: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSymbols(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestBuildWeightedStrip(t *testing.T) {
	table := DefaultSymbols()
	strip := BuildWeightedStrip(table, NewSeededRand(42))
	require.Len(t, strip, table.TotalWeight())

	counts := make(map[SymbolID]int)
	for _, s := range strip {
		counts[s]++
	}
	for _, def := range table {
		assert.Equal(t, def.Weight, counts[def.ID], def.Name)
	}

	// 相同种子结果一致
	assert.Equal(t, strip, BuildWeightedStrip(table, NewSeededRand(42)))
}

func TestFixedStripSource(t *testing.T) {
	_, err := NewFixedStripSource()
	assert.Error(t, err)
	_, err = NewFixedStripSource([]SymbolID{1}, nil)
	assert.Error(t, err)

	src := DefaultFixedStrips()
	set := BuildReelSet(src)
	for r := 0; r < ReelCount; r++ {
		assert.Len(t, set[r], 30)
	}

	// 返回副本
	set[0][0] = SymbolSquid
	assert.Equal(t, SymbolCoral, ClassicStrips[0][0])

	one, err := NewFixedStripSource([]SymbolID{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []SymbolID{4, 5}, one.Strip(2))
}

func TestSpecialStrip(t *testing.T) {
	strip := specialStrip(ExtraOarfish, 6, 0)
	assert.Equal(t, []SymbolID{ExtraOarfish, -1, -1, -1, -1, -1}, strip)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"条带模式", func(c *Config) { c.StripMode = "random" }},
		{"反向比例", func(c *Config) { c.ShortWayRatio = 0 }},
		{"行越界", func(c *Config) { c.ForcedRow = 3 }},
		{"金币上限", func(c *Config) { c.MaxCoins = 10 }},
		{"免费次数", func(c *Config) { c.Bonus.FreeSpins = 0 }},
		{"概率", func(c *Config) { c.Special.Chance = 1.5 }},
		{"特殊卷轴", func(c *Config) { c.Special.Kinds = nil }},
		{"档位权重", func(c *Config) { c.Special.Tiers[0].Weight = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
