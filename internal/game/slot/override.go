package slot

import (
	"strings"
	"time"
)

// OverrideEffect 暗号效果
type OverrideEffect string

const (
	// EffectForceSymbol 指定本次旋转第一个卷轴停在某个符号
	EffectForceSymbol OverrideEffect = "force_symbol"
	// EffectArmSpecial 下一次主旋转转入特殊事件
	EffectArmSpecial OverrideEffect = "arm_special"
)

// SecretCode 暗号
type SecretCode struct {
	Name     string         `json:"name"`
	Sequence []string       `json:"sequence"`
	Effect   OverrideEffect `json:"effect"`
	Symbol   SymbolID       `json:"symbol"`
}

// DefaultSecretCodes 默认暗号表
func DefaultSecretCodes() []SecretCode {
	return []SecretCode{
		{Name: "whale", Sequence: splitKeys("whale"), Effect: EffectForceSymbol, Symbol: SymbolWhale},
		{Name: "shark", Sequence: splitKeys("shark"), Effect: EffectForceSymbol, Symbol: SymbolShark},
		{Name: "squid", Sequence: splitKeys("squid"), Effect: EffectForceSymbol, Symbol: SymbolSquid},
		{Name: "abyss", Sequence: splitKeys("abyss"), Effect: EffectArmSpecial},
	}
}

// splitKeys 把暗号字符串拆成按键序列
func splitKeys(word string) []string {
	keys := make([]string, 0, len(word))
	for _, r := range word {
		keys = append(keys, NormalizeKey(string(r)))
	}
	return keys
}

// keyAliases 按键别名
var keyAliases = map[string]string{
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	" ":          "space",
	"spacebar":   "space",
	"return":     "enter",
}

// NormalizeKey 规范化按键名
func NormalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	k := strings.ToLower(strings.TrimSpace(key))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// CodeMatcher 暗号匹配器
// 定长环形缓冲保存最近的按键，每次输入后用后缀匹配暗号表；两次按键间隔超过超时则清空
type CodeMatcher struct {
	codes   []SecretCode
	keys    []string
	head    int
	count   int
	timeout time.Duration
	lastAt  time.Duration
}

// NewCodeMatcher 创建暗号匹配器
func NewCodeMatcher(codes []SecretCode, size int, timeout time.Duration) *CodeMatcher {
	longest := 1
	for _, c := range codes {
		if len(c.Sequence) > longest {
			longest = len(c.Sequence)
		}
	}
	if size < longest {
		size = longest
	}
	return &CodeMatcher{
		codes:   codes,
		keys:    make([]string, size),
		timeout: timeout,
	}
}

// Feed 输入一个按键（now为引擎时钟），命中暗号时返回该暗号并清空缓冲
func (m *CodeMatcher) Feed(key string, now time.Duration) (SecretCode, bool) {
	tok := NormalizeKey(key)
	if tok == "" {
		return SecretCode{}, false
	}

	if m.count > 0 && m.timeout > 0 && now-m.lastAt > m.timeout {
		m.Reset()
	}
	m.lastAt = now
	m.push(tok)

	for _, code := range m.codes {
		if m.hasSuffix(code.Sequence) {
			m.Reset()
			return code, true
		}
	}

	if !m.livePrefix() {
		m.Reset()
	}
	return SecretCode{}, false
}

// Reset 清空缓冲
func (m *CodeMatcher) Reset() {
	m.head = 0
	m.count = 0
}

// Buffered 当前缓冲内容（旧到新）
func (m *CodeMatcher) Buffered() []string {
	return m.tail(m.count)
}

func (m *CodeMatcher) push(tok string) {
	size := len(m.keys)
	idx := (m.head + m.count) % size
	m.keys[idx] = tok
	if m.count < size {
		m.count++
	} else {
		m.head = (m.head + 1) % size
	}
}

// tail 最近的n个按键
func (m *CodeMatcher) tail(n int) []string {
	if n > m.count {
		n = m.count
	}
	out := make([]string, n)
	size := len(m.keys)
	start := m.head + m.count - n
	for i := 0; i < n; i++ {
		out[i] = m.keys[(start+i)%size]
	}
	return out
}

func (m *CodeMatcher) hasSuffix(seq []string) bool {
	if len(seq) == 0 || len(seq) > m.count {
		return false
	}
	return equalKeys(m.tail(len(seq)), seq)
}

// livePrefix 缓冲的某个后缀仍是某个暗号的前缀
func (m *CodeMatcher) livePrefix() bool {
	for n := 1; n <= m.count; n++ {
		suffix := m.tail(n)
		for _, code := range m.codes {
			if n < len(code.Sequence) && equalKeys(suffix, code.Sequence[:n]) {
				return true
			}
		}
	}
	return false
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
