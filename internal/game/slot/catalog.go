package slot

import "errors"

// 图鉴扩展条目
const (
	ExtraMendako SymbolID = 10 // 面蛸
	ExtraIsopod  SymbolID = 11 // 大王具足虫
	ExtraOarfish SymbolID = 12 // 皇带鱼

	UpgradeReelLv1 = 13 // 卷轴效率化 Lv1，两连+1
	UpgradeReelLv2 = 14 // 卷轴效率化 Lv2，两连再+2

	// CatalogSize 图鉴条目总数
	CatalogSize = 15
)

var (
	ErrCatalogUnknown   = errors.New("图鉴条目不存在")
	ErrCatalogLocked    = errors.New("图鉴条目未解锁")
	ErrCatalogPurchased = errors.New("图鉴条目已购买")
	ErrCatalogNoCoins   = errors.New("金币不足")
)

// extraNames 扩展条目名称
var extraNames = map[int]string{
	int(ExtraMendako): "Mendako",
	int(ExtraIsopod):  "Giant isopod",
	int(ExtraOarfish): "Oarfish",
	UpgradeReelLv1:    "Reel efficiency Lv1",
	UpgradeReelLv2:    "Reel efficiency Lv2",
}

// extraPrices 扩展条目价格
var extraPrices = map[int]int{
	int(ExtraMendako): 500,
	int(ExtraIsopod):  1000,
	int(ExtraOarfish): 2000,
	UpgradeReelLv1:    1000,
	UpgradeReelLv2:    3000,
}

// upgradeBonus 升级带来的两连加算
var upgradeBonus = map[int]int{
	UpgradeReelLv1: 1,
	UpgradeReelLv2: 2,
}

// CatalogEntry 图鉴条目
type CatalogEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Count3x     int    `json:"count3x"`
	Encountered int    `json:"encountered"`
	Unlocked    bool   `json:"unlocked"`
	Purchased   bool   `json:"purchased"`
}

// Catalog 图鉴与商店
type Catalog struct {
	entries [CatalogSize]CatalogEntry
}

// NewCatalog 创建图鉴
func NewCatalog(symbols SymbolTable) *Catalog {
	c := &Catalog{}
	for i := 0; i < CatalogSize; i++ {
		e := CatalogEntry{ID: i}
		if i < SymbolCount {
			def := symbols.Get(SymbolID(i))
			e.Name = def.Name
			e.Price = symbolPrice(def)
		} else {
			e.Name = extraNames[i]
			e.Price = extraPrices[i]
		}
		c.entries[i] = e
	}
	c.applyUnlockRules()
	return c
}

// symbolPrice 基础符号价格：奖励符号固定2000，其余为赔付×10
func symbolPrice(def SymbolDef) int {
	if def.ID == BonusSymbol {
		return 2000
	}
	if def.Pay3 > 0 {
		return def.Pay3 * 10
	}
	return def.Pay2 * 10
}

// applyUnlockRules 解锁规则
// 基础条目在首次三连后解锁；扩展生物在全部基础条目购买后解锁；Lv1始终解锁；Lv2在购买Lv1后解锁
func (c *Catalog) applyUnlockRules() {
	allBase := c.BaseComplete()
	for i := range c.entries {
		e := &c.entries[i]
		switch {
		case i < SymbolCount:
			e.Unlocked = e.Unlocked || e.Count3x > 0
		case i == UpgradeReelLv1:
			e.Unlocked = true
		case i == UpgradeReelLv2:
			e.Unlocked = c.entries[UpgradeReelLv1].Purchased
		default:
			e.Unlocked = allBase
		}
	}
}

// Record3x 记录一次三连
func (c *Catalog) Record3x(sym SymbolID) {
	if sym < 0 || int(sym) >= SymbolCount {
		return
	}
	c.entries[sym].Count3x++
	c.applyUnlockRules()
}

// RecordEncounter 记录一次特殊事件生物出现
func (c *Catalog) RecordEncounter(kind SymbolID) {
	if kind < 0 || int(kind) >= CatalogSize {
		return
	}
	c.entries[kind].Encountered++
}

// BaseComplete 基础条目是否全部购买
func (c *Catalog) BaseComplete() bool {
	for i := 0; i < SymbolCount; i++ {
		if !c.entries[i].Purchased {
			return false
		}
	}
	return true
}

// Purchase 购买条目，返回价格
func (c *Catalog) Purchase(id, coins int) (int, error) {
	if id < 0 || id >= CatalogSize {
		return 0, ErrCatalogUnknown
	}
	e := &c.entries[id]
	switch {
	case !e.Unlocked:
		return 0, ErrCatalogLocked
	case e.Purchased:
		return 0, ErrCatalogPurchased
	case coins < e.Price:
		return 0, ErrCatalogNoCoins
	}

	e.Purchased = true
	c.applyUnlockRules()
	return e.Price, nil
}

// Pay2Bonus 已购买升级的两连加算合计
func (c *Catalog) Pay2Bonus() int {
	total := 0
	for id, bonus := range upgradeBonus {
		if c.entries[id].Purchased {
			total += bonus
		}
	}
	return total
}

// Entries 条目副本
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, CatalogSize)
	copy(out, c.entries[:])
	return out
}

// Restore 从持久化数据恢复，未知条目忽略
func (c *Catalog) Restore(entries []CatalogEntry) {
	for _, in := range entries {
		if in.ID < 0 || in.ID >= CatalogSize {
			continue
		}
		e := &c.entries[in.ID]
		e.Count3x = max(0, in.Count3x)
		e.Encountered = max(0, in.Encountered)
		e.Purchased = in.Purchased
		e.Unlocked = in.Unlocked && in.ID < SymbolCount
	}
	c.applyUnlockRules()
}
