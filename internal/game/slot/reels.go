package slot

import (
	"math"
	"time"
)

const (
	// ReelCount 卷轴数
	ReelCount = 3
	// RowCount 可见行数
	RowCount = 3

	// DefaultFrameUnit 速度单位对应的帧时长（毫秒）
	DefaultFrameUnit = 16.666
)

// SnapState 吸附过程
type SnapState struct {
	Reel     int
	Start    float64
	Distance float64
	Target   float64
	Elapsed  time.Duration
	Duration time.Duration
}

// ReelBank 一组三个卷轴：连续位置、转动标志和停止序号
//
// StopIndex 为0表示未转动，1..3表示下一个待停止的卷轴序号+1，4表示全部停稳。
type ReelBank struct {
	Strips    ReelSet
	Speeds    [ReelCount]float64
	Positions [ReelCount]float64
	Running   [ReelCount]bool
	Snap      *SnapState
	StopIndex int
}

// NewReelBank 创建卷轴组
func NewReelBank(strips ReelSet, speeds [ReelCount]float64) *ReelBank {
	return &ReelBank{Strips: strips, Speeds: speeds}
}

// Len 卷轴条长度
func (b *ReelBank) Len(reel int) int {
	return len(b.Strips[reel])
}

// Start 开始转动
func (b *ReelBank) Start() {
	for r := range b.Running {
		b.Running[r] = true
	}
	b.Snap = nil
	b.StopIndex = 1
}

// Halt 清理转动状态，位置保持不变
func (b *ReelBank) Halt() {
	for r := range b.Running {
		b.Running[r] = false
	}
	b.Snap = nil
	b.StopIndex = 0
}

// AwaitingStop 是否可以接受停止请求
func (b *ReelBank) AwaitingStop() bool {
	return b.Snap == nil && b.StopIndex >= 1 && b.StopIndex <= ReelCount
}

// Settled 三个卷轴都已停稳
func (b *ReelBank) Settled() bool {
	return b.Snap == nil && b.StopIndex == ReelCount+1
}

// Advance 推进一帧
// 转动中的卷轴做匀速位移，吸附中的卷轴做缓出插值；返回本帧完成吸附的卷轴，没有则返回-1
func (b *ReelBank) Advance(dt time.Duration, frameUnit float64) int {
	ms := float64(dt) / float64(time.Millisecond)
	for r := 0; r < ReelCount; r++ {
		if !b.Running[r] {
			continue
		}
		l := float64(b.Len(r))
		b.Positions[r] = wrap(b.Positions[r]+b.Speeds[r]*ms/frameUnit, l)
	}

	s := b.Snap
	if s == nil {
		return -1
	}

	s.Elapsed += dt
	p := 1.0
	if s.Duration > 0 {
		p = math.Min(1, float64(s.Elapsed)/float64(s.Duration))
	}

	l := float64(b.Len(s.Reel))
	if p >= 1 {
		b.Positions[s.Reel] = s.Target
		b.Snap = nil
		b.StopIndex++
		return s.Reel
	}

	b.Positions[s.Reel] = wrap(s.Start+s.Distance*easeOutCubic(p), l)
	return -1
}

// BeginStop 停止当前序号的卷轴并开始吸附到目标位置
// 吸附进行中或序号不在[1,3]时不做任何事
func (b *ReelBank) BeginStop(target float64, duration time.Duration, shortWayRatio float64) bool {
	if !b.AwaitingStop() {
		return false
	}

	r := b.StopIndex - 1
	l := float64(b.Len(r))
	b.Running[r] = false

	start := b.Positions[r]
	target = wrap(target, l)
	distance := wrap(target-start, l)
	if distance > shortWayRatio*l {
		distance -= l
	}

	b.Snap = &SnapState{
		Reel:     r,
		Start:    start,
		Distance: distance,
		Target:   target,
		Duration: duration,
	}
	return true
}

// NearestCell 默认停止目标：最近的整数格
func (b *ReelBank) NearestCell(reel int) float64 {
	return wrap(math.Round(b.Positions[reel]), float64(b.Len(reel)))
}

// NearestOccurrence 圆周上离当前位置最近、并让sym出现在指定行的目标位置
func (b *ReelBank) NearestOccurrence(reel int, sym SymbolID, row int) (float64, bool) {
	strip := b.Strips[reel]
	l := float64(len(strip))
	pos := b.Positions[reel]

	best, bestDist := 0.0, math.Inf(1)
	for i, s := range strip {
		if s != sym {
			continue
		}
		t := wrap(float64(i-row), l)
		if d := circularDistance(pos, t, l); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// Grid 采样当前可见网格
func (b *ReelBank) Grid() Grid {
	return SampleGrid(b.Strips, b.Positions)
}

// wrap 取模到[0,l)
func wrap(x, l float64) float64 {
	m := math.Mod(x, l)
	if m < 0 {
		m += l
	}
	if m >= l {
		m = 0
	}
	return m
}

// circularDistance 圆周距离
func circularDistance(a, b, l float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, l-d)
}

// easeOutCubic 三次缓出
func easeOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}
