package slot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SymbolID 符号编号
type SymbolID int

// 深海主题符号
const (
	SymbolWhale      SymbolID = iota // 蓝鲸
	SymbolShark                      // 大白鲨
	SymbolOctopus                    // 章鱼
	SymbolTurtle                     // 海龟
	SymbolClownfish                  // 小丑鱼
	SymbolConch                      // 海螺
	SymbolCoral                      // 珊瑚
	SymbolSeahorse                   // 海马
	SymbolAnglerfish                 // 鮟鱇鱼
	SymbolSquid                      // 大王乌贼
)

const (
	// SymbolCount 基础符号数量
	SymbolCount = 10

	// TopSymbol 头奖符号
	TopSymbol = SymbolWhale

	// BonusSymbol 奖励模式触发符号
	BonusSymbol = SymbolSquid

	// SymbolBlank 空白格
	SymbolBlank SymbolID = -1
)

var (
	ErrInvalidSymbolTable = errors.New("无效的符号表")
)

// SymbolDef 符号定义
type SymbolDef struct {
	ID     SymbolID `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Pay2   int      `yaml:"pay2" json:"pay2"`     // 两连赔付
	Pay3   int      `yaml:"pay3" json:"pay3"`     // 三连赔付
	Weight int      `yaml:"weight" json:"weight"` // 卷轴条中的出现权重
}

// SymbolTable 符号表，下标与符号编号一致
type SymbolTable []SymbolDef

// DefaultSymbols 默认符号表
func DefaultSymbols() SymbolTable {
	return SymbolTable{
		{ID: SymbolWhale, Name: "Blue whale", Pay2: 0, Pay3: 150, Weight: 3},
		{ID: SymbolShark, Name: "Great white shark", Pay2: 0, Pay3: 50, Weight: 8},
		{ID: SymbolOctopus, Name: "Octopus", Pay2: 0, Pay3: 20, Weight: 14},
		{ID: SymbolTurtle, Name: "Sea turtle", Pay2: 0, Pay3: 10, Weight: 14},
		{ID: SymbolClownfish, Name: "Clownfish", Pay2: 5, Pay3: 0, Weight: 24},
		{ID: SymbolConch, Name: "Conch", Pay2: 4, Pay3: 0, Weight: 28},
		{ID: SymbolCoral, Name: "Coral", Pay2: 3, Pay3: 0, Weight: 36},
		{ID: SymbolSeahorse, Name: "Seahorse", Pay2: 0, Pay3: 30, Weight: 18},
		{ID: SymbolAnglerfish, Name: "Anglerfish", Pay2: 0, Pay3: 40, Weight: 11},
		{ID: SymbolSquid, Name: "Giant squid", Pay2: 0, Pay3: 0, Weight: 10},
	}
}

// Get 查询符号定义，越界返回零值
func (t SymbolTable) Get(id SymbolID) SymbolDef {
	if id < 0 || int(id) >= len(t) {
		return SymbolDef{ID: id}
	}
	return t[id]
}

// TotalWeight 权重总和，即加权卷轴条长度
func (t SymbolTable) TotalWeight() int {
	total := 0
	for _, def := range t {
		total += def.Weight
	}
	return total
}

// Validate 验证符号表
func (t SymbolTable) Validate() error {
	if len(t) != SymbolCount {
		return fmt.Errorf("%w: 需要%d个符号，实际%d个", ErrInvalidSymbolTable, SymbolCount, len(t))
	}
	for i, def := range t {
		if def.ID != SymbolID(i) {
			return fmt.Errorf("%w: 第%d项编号为%d", ErrInvalidSymbolTable, i, def.ID)
		}
		if def.Pay2 < 0 || def.Pay3 < 0 || def.Weight < 0 {
			return fmt.Errorf("%w: 符号%d存在负数", ErrInvalidSymbolTable, i)
		}
	}
	if t.TotalWeight() == 0 {
		return fmt.Errorf("%w: 权重总和为0", ErrInvalidSymbolTable)
	}
	return nil
}

// symbolFile 赔率表文件格式
type symbolFile struct {
	Symbols []SymbolDef `yaml:"symbols"`
}

// LoadSymbols 从YAML读取符号表
func LoadSymbols(r io.Reader) (SymbolTable, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc symbolFile
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("解析赔率表失败: %w", err)
	}

	table := SymbolTable(doc.Symbols)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadSymbolsFile 从文件读取符号表
func LoadSymbolsFile(path string) (SymbolTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSymbols(f)
}
