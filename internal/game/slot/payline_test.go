package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// rowsGrid 按行书写网格，便于阅读
func rowsGrid(top, mid, bottom [ReelCount]SymbolID) Grid {
	var g Grid
	for r := 0; r < ReelCount; r++ {
		g[r] = [RowCount]SymbolID{top[r], mid[r], bottom[r]}
	}
	return g
}

func TestActiveLines(t *testing.T) {
	assert.Len(t, ActiveLines(1), 1)
	assert.Len(t, ActiveLines(2), 3)
	assert.Len(t, ActiveLines(3), 5)
	assert.Equal(t, Payline{1, 1, 1}, ActiveLines(1)[0])

	// 返回副本，修改不影响全局
	lines := ActiveLines(3)
	lines[0] = Payline{0, 0, 0}
	assert.Equal(t, Payline{1, 1, 1}, Lines[0])
}

func TestEvaluator_Evaluate(t *testing.T) {
	ev := NewEvaluator(DefaultSymbols())

	tests := []struct {
		name      string
		grid      Grid
		bet       int
		pay2Bonus int
		wantTotal int
		wantWins  int
		jackpot   bool
	}{
		{
			name:      "中线三连鲸鱼",
			grid:      rowsGrid([3]SymbolID{6, 5, 4}, [3]SymbolID{0, 0, 0}, [3]SymbolID{5, 4, 6}),
			bet:       1,
			wantTotal: 150,
			wantWins:  1,
			jackpot:   true,
		},
		{
			name:      "左两连小丑鱼",
			grid:      rowsGrid([3]SymbolID{6, 5, 3}, [3]SymbolID{4, 4, 2}, [3]SymbolID{5, 3, 6}),
			bet:       1,
			wantTotal: 5,
			wantWins:  1,
		},
		{
			name:      "右两连珊瑚",
			grid:      rowsGrid([3]SymbolID{1, 5, 3}, [3]SymbolID{2, 6, 6}, [3]SymbolID{5, 3, 1}),
			bet:       1,
			wantTotal: 3,
			wantWins:  1,
		},
		{
			name:      "三连符号的两连不赔付",
			grid:      rowsGrid([3]SymbolID{6, 5, 4}, [3]SymbolID{1, 1, 2}, [3]SymbolID{5, 4, 6}),
			bet:       1,
			wantTotal: 0,
		},
		{
			name:      "两连升级加算",
			grid:      rowsGrid([3]SymbolID{6, 5, 3}, [3]SymbolID{5, 5, 2}, [3]SymbolID{5, 3, 6}),
			bet:       1,
			pay2Bonus: 3,
			wantTotal: 7,
			wantWins:  1,
		},
		{
			name:      "三连两连型符号按两连赔付",
			grid:      rowsGrid([3]SymbolID{6, 5, 3}, [3]SymbolID{5, 5, 5}, [3]SymbolID{1, 3, 6}),
			bet:       1,
			pay2Bonus: 3,
			wantTotal: 4,
			wantWins:  1,
		},
		{
			name:      "多线各自结算",
			grid:      rowsGrid([3]SymbolID{3, 3, 3}, [3]SymbolID{6, 6, 1}, [3]SymbolID{8, 8, 8}),
			bet:       3,
			wantTotal: 10 + 3 + 40,
			wantWins:  3,
		},
		{
			name:      "下注1只看中线",
			grid:      rowsGrid([3]SymbolID{3, 3, 3}, [3]SymbolID{6, 1, 1}, [3]SymbolID{8, 8, 8}),
			bet:       1,
			wantTotal: 0,
		},
		{
			name:      "斜线",
			grid:      rowsGrid([3]SymbolID{7, 5, 2}, [3]SymbolID{1, 7, 3}, [3]SymbolID{2, 6, 7}),
			bet:       3,
			wantTotal: 30,
			wantWins:  1,
		},
		{
			name:      "空白不成线",
			grid:      rowsGrid([3]SymbolID{-1, -1, -1}, [3]SymbolID{-1, -1, -1}, [3]SymbolID{-1, -1, -1}),
			bet:       3,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ev.Evaluate(tt.grid, ActiveLines(tt.bet), EvalOptions{Pay2Bonus: tt.pay2Bonus})
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Len(t, res.Wins, tt.wantWins)
			assert.Equal(t, tt.jackpot, IsJackpot(res.Wins))
		})
	}
}

func TestCountBonusLines(t *testing.T) {
	g := rowsGrid([3]SymbolID{9, 9, 9}, [3]SymbolID{9, 9, 9}, [3]SymbolID{1, 2, 3})
	assert.Equal(t, 1, CountBonusLines(g, ActiveLines(1), BonusSymbol))
	assert.Equal(t, 2, CountBonusLines(g, ActiveLines(3), BonusSymbol))
	assert.Equal(t, TriggerEnhanced, TriggerFor(2))
	assert.Equal(t, TriggerStandard, TriggerFor(1))
	assert.Equal(t, TriggerNone, TriggerFor(0))
}

func TestHasReach(t *testing.T) {
	g := rowsGrid([3]SymbolID{2, 2, 5}, [3]SymbolID{1, 3, 3}, [3]SymbolID{4, 5, 6})
	assert.False(t, HasReach(g, ActiveLines(1)))
	assert.True(t, HasReach(g, ActiveLines(2)))
}

// 相同输入重复评估结果一致，且不修改输入
func TestEvaluator_Deterministic(t *testing.T) {
	ev := NewEvaluator(DefaultSymbols())
	rng := NewSeededRand(5)

	for i := 0; i < 2000; i++ {
		var g Grid
		for r := 0; r < ReelCount; r++ {
			for row := 0; row < RowCount; row++ {
				// 小范围取值提高中奖概率
				g[r][row] = SymbolID(rng.IntN(4))
			}
		}
		lines := ActiveLines(1 + rng.IntN(MaxBet))
		opts := EvalOptions{Pay2Bonus: rng.IntN(3)}
		before := g

		first := ev.Evaluate(g, lines, opts)
		second := ev.Evaluate(g, lines, opts)
		assert.Equal(t, first, second, "grid %v", g)
		assert.Equal(t, before, g)
	}
}
