package slot

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// ComboStep 连胜阈值与倍率
type ComboStep struct {
	Streak     int             `json:"streak"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ComboTable 连胜倍率表，按阈值升序
type ComboTable []ComboStep

// DefaultComboTable 1连1倍，2连1.5倍，3连2倍，5连4倍
func DefaultComboTable() ComboTable {
	return ComboTable{
		{Streak: 1, Multiplier: decimal.NewFromInt(1)},
		{Streak: 2, Multiplier: decimal.RequireFromString("1.5")},
		{Streak: 3, Multiplier: decimal.NewFromInt(2)},
		{Streak: 5, Multiplier: decimal.NewFromInt(4)},
	}
}

// ParseComboTable 解析配置中的倍率表，键为连胜数，值为倍率
func ParseComboTable(raw map[string]string) (ComboTable, error) {
	table := make(ComboTable, 0, len(raw))
	for k, v := range raw {
		streak, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("连胜阈值 %q 无效: %w", k, err)
		}
		mult, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("倍率 %q 无效: %w", v, err)
		}
		table = append(table, ComboStep{Streak: streak, Multiplier: mult})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Streak < table[j].Streak })

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate 倍率必须不小于1且随连胜单调不减
func (t ComboTable) Validate() error {
	one := decimal.NewFromInt(1)
	prev := one
	for i, step := range t {
		if step.Streak < 1 {
			return fmt.Errorf("连胜阈值必须大于0: %d", step.Streak)
		}
		if i > 0 && step.Streak <= t[i-1].Streak {
			return fmt.Errorf("连胜阈值必须严格递增: %d", step.Streak)
		}
		if step.Multiplier.LessThan(prev) {
			return fmt.Errorf("倍率必须单调不减: 连胜%d倍率%s", step.Streak, step.Multiplier)
		}
		prev = step.Multiplier
	}
	return nil
}

// Multiplier 指定连胜数对应的倍率
func (t ComboTable) Multiplier(streak int) decimal.Decimal {
	mult := decimal.NewFromInt(1)
	for _, step := range t {
		if streak < step.Streak {
			break
		}
		mult = step.Multiplier
	}
	return mult
}

// ComboState 连胜状态
type ComboState struct {
	Streak int `json:"streak"`
}

// Apply 按本次总赔付更新连胜
// 有赔付时连胜+1并返回 floor(total*倍率)，无赔付时连胜清零
func (c *ComboState) Apply(total int, table ComboTable) (int, decimal.Decimal) {
	if total <= 0 {
		c.Streak = 0
		return 0, decimal.NewFromInt(1)
	}

	c.Streak++
	mult := table.Multiplier(c.Streak)
	final := decimal.NewFromInt(int64(total)).Mul(mult).Floor().IntPart()
	return int(final), mult
}

// Reset 清零
func (c *ComboState) Reset() {
	c.Streak = 0
}
