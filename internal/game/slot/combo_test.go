package slot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComboTable_Multiplier(t *testing.T) {
	table := DefaultComboTable()
	tests := []struct {
		streak int
		want   string
	}{
		{0, "1"}, {1, "1"}, {2, "1.5"}, {3, "2"}, {4, "2"}, {5, "4"}, {12, "4"},
	}
	for _, tt := range tests {
		assert.True(t, decimal.RequireFromString(tt.want).Equal(table.Multiplier(tt.streak)), "streak %d", tt.streak)
	}
}

func TestComboState_Apply(t *testing.T) {
	table := DefaultComboTable()
	var c ComboState

	steps := []struct {
		total  int
		want   int
		streak int
	}{
		{3, 3, 1},
		{3, 4, 2}, // floor(4.5)
		{7, 14, 3},
		{0, 0, 0},
		{10, 10, 1},
	}
	for i, s := range steps {
		got, _ := c.Apply(s.total, table)
		assert.Equal(t, s.want, got, "step %d", i)
		assert.Equal(t, s.streak, c.Streak, "step %d", i)
	}

	c.Reset()
	assert.Equal(t, 0, c.Streak)
}

func TestParseComboTable(t *testing.T) {
	table, err := ParseComboTable(map[string]string{"3": "2", "1": "1", "2": "1.5", "5": "4"})
	require.NoError(t, err)
	require.Len(t, table, 4)
	assert.Equal(t, 1, table[0].Streak)
	assert.Equal(t, 5, table[3].Streak)

	_, err = ParseComboTable(map[string]string{"x": "1"})
	assert.Error(t, err)

	_, err = ParseComboTable(map[string]string{"1": "abc"})
	assert.Error(t, err)

	// 倍率递减
	_, err = ParseComboTable(map[string]string{"1": "2", "2": "1.5"})
	assert.Error(t, err)

	_, err = ParseComboTable(map[string]string{"0": "1"})
	assert.Error(t, err)
}
