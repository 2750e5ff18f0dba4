package slot

const (
	MinBet = 1
	MaxBet = 3
)

// Payline 赔付线，每个卷轴选取的行号
type Payline [ReelCount]int

// Lines 固定的5条赔付线
var Lines = [...]Payline{
	{1, 1, 1}, // 中线
	{0, 0, 0}, // 上线
	{2, 2, 2}, // 下线
	{0, 1, 2}, // 斜线
	{2, 1, 0}, // 反斜线
}

// ActiveLines 下注对应的有效赔付线：1注1条，2注3条，3注5条
func ActiveLines(bet int) []Payline {
	n := len(Lines)
	switch {
	case bet <= 1:
		n = 1
	case bet == 2:
		n = 3
	}
	lines := make([]Payline, n)
	copy(lines, Lines[:n])
	return lines
}

// AllLines 全部赔付线（奖励模式使用）
func AllLines() []Payline {
	return ActiveLines(MaxBet)
}

// WinLine 单条中奖线
type WinLine struct {
	Line    Payline             `json:"line"`
	Symbols [ReelCount]SymbolID `json:"symbols"`
	Payout  int                 `json:"payout"`
	Count   int                 `json:"count"`
}

// EvalOptions 评估附加参数
type EvalOptions struct {
	// Pay2Bonus 两连时额外加算的固定赔付（商店升级）
	Pay2Bonus int
}

// EvalResult 评估结果
type EvalResult struct {
	Total          int       `json:"total"`
	Wins           []WinLine `json:"wins"`
	Pay2BonusTotal int       `json:"pay2_bonus_total"`
}

// Evaluator 赔付线评估器，纯函数，不持有可变状态
type Evaluator struct {
	symbols SymbolTable
}

// NewEvaluator 创建评估器
func NewEvaluator(symbols SymbolTable) *Evaluator {
	return &Evaluator{symbols: symbols}
}

// Evaluate 逐条评估赔付线并求和，线与线之间互不影响
func (e *Evaluator) Evaluate(grid Grid, lines []Payline, opts EvalOptions) EvalResult {
	bonus := opts.Pay2Bonus
	if bonus < 0 {
		bonus = 0
	}

	var res EvalResult
	for _, line := range lines {
		syms := lineSymbols(grid, line)
		s0, s1, s2 := syms[0], syms[1], syms[2]

		switch {
		case s0 == s1 && s1 == s2 && s0 != SymbolBlank:
			def := e.symbols.Get(s0)
			pay := def.Pay3
			if pay <= 0 {
				pay = def.Pay2
			}
			res.Total += pay
			res.Wins = append(res.Wins, WinLine{Line: line, Symbols: syms, Payout: pay, Count: 3})
		case s0 == s1 && e.symbols.Get(s0).Pay2 > 0:
			pay := e.symbols.Get(s0).Pay2 + bonus
			res.Total += pay
			res.Pay2BonusTotal += bonus
			res.Wins = append(res.Wins, WinLine{Line: line, Symbols: syms, Payout: pay, Count: 2})
		case s1 == s2 && e.symbols.Get(s1).Pay2 > 0:
			pay := e.symbols.Get(s1).Pay2 + bonus
			res.Total += pay
			res.Pay2BonusTotal += bonus
			res.Wins = append(res.Wins, WinLine{Line: line, Symbols: syms, Payout: pay, Count: 2})
		}
	}
	return res
}

// lineSymbols 读取赔付线上的三个符号
func lineSymbols(grid Grid, line Payline) [ReelCount]SymbolID {
	var syms [ReelCount]SymbolID
	for r := 0; r < ReelCount; r++ {
		row := line[r]
		if row < 0 || row >= RowCount {
			syms[r] = SymbolBlank
			continue
		}
		syms[r] = grid[r][row]
	}
	return syms
}

// IsJackpot 任一条头奖符号三连
func IsJackpot(wins []WinLine) bool {
	for _, w := range wins {
		if w.Count == 3 && w.Symbols[0] == TopSymbol {
			return true
		}
	}
	return false
}

// CountBonusLines 有效线中奖励符号三连的条数
func CountBonusLines(grid Grid, lines []Payline, bonusSym SymbolID) int {
	n := 0
	for _, line := range lines {
		syms := lineSymbols(grid, line)
		if syms[0] == bonusSym && syms[1] == bonusSym && syms[2] == bonusSym {
			n++
		}
	}
	return n
}

// HasReach 前两个卷轴在任一有效线上已经相同
func HasReach(grid Grid, lines []Payline) bool {
	for _, line := range lines {
		syms := lineSymbols(grid, line)
		if syms[0] == syms[1] && syms[0] != SymbolBlank {
			return true
		}
	}
	return false
}
