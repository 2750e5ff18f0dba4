package slot

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Rand 引擎使用的随机源
// 所有随机行为（卷轴洗牌、特殊事件概率、奖励抽取）都经由该接口
type Rand interface {
	// Float64 返回[0,1)的随机数
	Float64() float64
	// IntN 返回[0,n)的随机整数
	IntN(n int) int
	// Uint64 原始随机位，满足 math/rand/v2 的 Source
	Uint64() uint64
}

// NewSeededRand 创建固定种子的随机源（测试与模拟使用）
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewCryptoSeededRand 使用加密随机数作为种子
func NewCryptoSeededRand() *rand.Rand {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])))
}
