package slot

import "fmt"

// StripSource 卷轴条来源
type StripSource interface {
	// Strip 返回指定卷轴的循环符号序列
	Strip(reel int) []SymbolID
}

// StripMode 卷轴条生成方式
type StripMode string

const (
	StripModeWeighted StripMode = "weighted" // 按权重洗牌
	StripModeFixed    StripMode = "fixed"    // 固定手调条带
)

// ReelSet 一台机器三个卷轴的条带
type ReelSet [ReelCount][]SymbolID

// BuildReelSet 从来源生成整套条带
func BuildReelSet(src StripSource) ReelSet {
	var set ReelSet
	for r := 0; r < ReelCount; r++ {
		set[r] = src.Strip(r)
	}
	return set
}

// WeightedStripSource 加权洗牌条带
// 每个符号按权重展开后做Fisher-Yates洗牌，条带长度等于权重总和
type WeightedStripSource struct {
	symbols SymbolTable
	rng     Rand
}

// NewWeightedStripSource 创建加权条带来源
func NewWeightedStripSource(symbols SymbolTable, rng Rand) *WeightedStripSource {
	return &WeightedStripSource{symbols: symbols, rng: rng}
}

// Strip 生成一条新的洗牌条带
func (s *WeightedStripSource) Strip(reel int) []SymbolID {
	return BuildWeightedStrip(s.symbols, s.rng)
}

// BuildWeightedStrip 按权重展开并洗牌
func BuildWeightedStrip(symbols SymbolTable, rng Rand) []SymbolID {
	strip := make([]SymbolID, 0, symbols.TotalWeight())
	for _, def := range symbols {
		for i := 0; i < def.Weight; i++ {
			strip = append(strip, def.ID)
		}
	}

	for i := len(strip) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		strip[i], strip[j] = strip[j], strip[i]
	}
	return strip
}

// FixedStripSource 固定条带
type FixedStripSource struct {
	strips [][]SymbolID
}

// NewFixedStripSource 创建固定条带来源，卷轴数多于条带数时循环使用
func NewFixedStripSource(strips ...[]SymbolID) (*FixedStripSource, error) {
	if len(strips) == 0 {
		return nil, fmt.Errorf("固定条带不能为空")
	}
	for i, strip := range strips {
		if len(strip) == 0 {
			return nil, fmt.Errorf("第%d条固定条带为空", i)
		}
	}
	return &FixedStripSource{strips: strips}, nil
}

// Strip 返回条带副本
func (s *FixedStripSource) Strip(reel int) []SymbolID {
	src := s.strips[reel%len(s.strips)]
	strip := make([]SymbolID, len(src))
	copy(strip, src)
	return strip
}

// ClassicStrips 三条30格手调条带
var ClassicStrips = [ReelCount][]SymbolID{
	{6, 4, 5, 7, 6, 3, 1, 6, 4, 5, 6, 2, 9, 4, 6, 0, 5, 8, 3, 7, 6, 4, 1, 5, 3, 9, 7, 8, 2, 6},
	{6, 5, 4, 8, 6, 3, 7, 5, 6, 1, 4, 6, 9, 5, 2, 6, 0, 4, 7, 3, 6, 5, 1, 8, 4, 9, 3, 7, 2, 6},
	{6, 4, 7, 5, 6, 1, 3, 4, 6, 8, 5, 9, 6, 2, 4, 7, 0, 6, 5, 3, 1, 6, 9, 4, 8, 5, 7, 2, 3, 6},
}

// DefaultFixedStrips 经典固定条带来源
func DefaultFixedStrips() *FixedStripSource {
	return &FixedStripSource{strips: ClassicStrips[:]}
}

// specialStrip 特殊事件卷轴的短循环条带，只有基准格放置事件生物，其余为空白
func specialStrip(kind SymbolID, length, canonical int) []SymbolID {
	strip := make([]SymbolID, length)
	for i := range strip {
		strip[i] = SymbolBlank
	}
	strip[canonical%length] = kind
	return strip
}
