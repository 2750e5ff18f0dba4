package slot

import "math"

// Grid 可见网格，Grid[卷轴][行]
type Grid [ReelCount][RowCount]SymbolID

// SampleGrid 根据连续位置读取可见网格
// top = floor(pos) mod L，三行依次为 top、top+1、top+2
func SampleGrid(strips ReelSet, positions [ReelCount]float64) Grid {
	var g Grid
	for r := 0; r < ReelCount; r++ {
		strip := strips[r]
		l := len(strip)
		if l == 0 {
			continue
		}
		top := int(math.Floor(positions[r])) % l
		if top < 0 {
			top += l
		}
		for row := 0; row < RowCount; row++ {
			g[r][row] = strip[(top+row)%l]
		}
	}
	return g
}
