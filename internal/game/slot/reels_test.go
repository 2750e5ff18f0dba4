package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBank(l int) *ReelBank {
	var set ReelSet
	for r := 0; r < ReelCount; r++ {
		strip := make([]SymbolID, l)
		for i := range strip {
			strip[i] = SymbolID(i % SymbolCount)
		}
		set[r] = strip
	}
	return NewReelBank(set, [ReelCount]float64{1, 1, 1})
}

func TestReelBank_AdvanceWraps(t *testing.T) {
	b := newBank(10)
	b.Start()
	b.Positions = [ReelCount]float64{9.5, 0, 3}

	// 速度1、帧单位16ms：每16ms前进一格
	settled := b.Advance(16*time.Millisecond, 16)
	assert.Equal(t, -1, settled)
	assert.InDelta(t, 0.5, b.Positions[0], 1e-9)
	assert.InDelta(t, 1.0, b.Positions[1], 1e-9)
	assert.InDelta(t, 4.0, b.Positions[2], 1e-9)
}

func TestReelBank_BeginStopDirection(t *testing.T) {
	tests := []struct {
		name     string
		pos      float64
		target   float64
		distance float64
	}{
		{"向前短距离", 0, 5, 5},
		{"超过阈值反向", 0, 10, -20},
		{"恰好阈值向前", 0, 9, 9},
		{"跨越起点向前", 28.5, 1, 2.5},
		{"原地", 4, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBank(30)
			b.Start()
			b.Positions[0] = tt.pos
			require.True(t, b.BeginStop(tt.target, 150*time.Millisecond, 0.3))
			require.NotNil(t, b.Snap)
			assert.InDelta(t, tt.distance, b.Snap.Distance, 1e-9)
			assert.False(t, b.Running[0])
		})
	}
}

func TestReelBank_SnapCompletes(t *testing.T) {
	b := newBank(30)
	b.Start()
	b.Positions[0] = 3.4
	require.True(t, b.BeginStop(3, 150*time.Millisecond, 0.3))

	// 吸附中途位置在起点和终点之间
	assert.Equal(t, -1, b.Advance(50*time.Millisecond, 16))
	assert.Greater(t, b.Positions[0], 3.0)
	assert.Less(t, b.Positions[0], 3.4)

	// 吸附中不接受新的停止
	assert.False(t, b.BeginStop(10, 150*time.Millisecond, 0.3))

	assert.Equal(t, -1, b.Advance(50*time.Millisecond, 16))
	assert.Equal(t, 0, b.Advance(50*time.Millisecond, 16))
	assert.Equal(t, 3.0, b.Positions[0])
	assert.Equal(t, 2, b.StopIndex)
	assert.Nil(t, b.Snap)
}

func TestReelBank_Lifecycle(t *testing.T) {
	b := newBank(12)
	assert.False(t, b.AwaitingStop())

	b.Start()
	for i := 0; i < ReelCount; i++ {
		require.True(t, b.AwaitingStop())
		require.True(t, b.BeginStop(b.NearestCell(i), 10*time.Millisecond, 0.3))
		require.Equal(t, i, b.Advance(20*time.Millisecond, 16))
	}
	assert.True(t, b.Settled())
	assert.False(t, b.AwaitingStop())

	b.Halt()
	assert.Equal(t, 0, b.StopIndex)
	assert.False(t, b.Settled())
}

func TestReelBank_NearestOccurrence(t *testing.T) {
	var set ReelSet
	set[0] = []SymbolID{1, 2, 0, 3, 4, 5, 6, 0, 7, 8}
	b := NewReelBank(set, [ReelCount]float64{})

	tests := []struct {
		name string
		pos  float64
		row  int
		want float64
	}{
		{"靠近第一个", 0, 1, 1},
		{"靠近第二个", 5.5, 1, 6},
		{"顶行", 7.2, 0, 7},
		{"环绕", 9.8, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.Positions[0] = tt.pos
			got, ok := b.NearestOccurrence(0, SymbolWhale, tt.row)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := b.NearestOccurrence(0, SymbolSquid, 1)
	assert.False(t, ok)
}

func TestSampleGrid(t *testing.T) {
	var set ReelSet
	for r := 0; r < ReelCount; r++ {
		set[r] = []SymbolID{0, 1, 2, 3, 4}
	}

	g := SampleGrid(set, [ReelCount]float64{0, 3.99, 4.2})
	assert.Equal(t, [RowCount]SymbolID{0, 1, 2}, g[0])
	assert.Equal(t, [RowCount]SymbolID{3, 4, 0}, g[1])
	assert.Equal(t, [RowCount]SymbolID{4, 0, 1}, g[2])
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 0.0, wrap(10, 10))
	assert.Equal(t, 9.5, wrap(-0.5, 10))
	assert.Equal(t, 3.0, wrap(23, 10))
	assert.InDelta(t, 1.0, easeOutCubic(1), 1e-12)
	assert.InDelta(t, 0.0, easeOutCubic(0), 1e-12)
}

func assertInRange(t *testing.T, b *ReelBank, step int) {
	t.Helper()
	for r := 0; r < ReelCount; r++ {
		l := float64(b.Len(r))
		p := b.Positions[r]
		require.Truef(t, p >= 0 && p < l, "step %d reel %d pos %v len %v", step, r, p, l)
	}
}

// 随机帧长和随机停止下位置始终落在[0, L)
func TestReelBank_PositionsStayInRange(t *testing.T) {
	for _, l := range []int{6, 10, 30, 64} {
		rng := NewSeededRand(uint64(l))
		b := newBank(l)
		b.Speeds = [ReelCount]float64{2.5, 3.1, 4.7}

		for step := 0; step < 5000; step++ {
			if b.StopIndex == 0 || b.Settled() {
				b.Start()
			}
			if rng.Float64() < 0.1 && b.AwaitingStop() {
				r := b.StopIndex - 1
				target := b.NearestCell(r)
				if rng.Float64() < 0.5 {
					target = float64(rng.IntN(l))
				}
				b.BeginStop(target, 150*time.Millisecond, 0.3)
			}
			dt := time.Duration(rng.IntN(120)) * time.Millisecond
			b.Advance(dt, DefaultFrameUnit)
			assertInRange(t, b, step)
		}
	}
}
