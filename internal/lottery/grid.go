package lottery

import "math"

const (
	// 画面の余白（左右パディング、タイトルとボタン）
	gridHorizontalPadding = 40
	gridVerticalPadding   = 300
	emptyCellPenalty      = 0.5
)

// Grid is the row/column layout of a poke board.
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Cells returns Rows*Cols.
func (g Grid) Cells() int { return g.Rows * g.Cols }

// CalculateGrid picks the layout whose column/row ratio is closest to the
// available screen area, penalizing each empty cell by 0.5.
func CalculateGrid(itemCount int, screenWidth, screenHeight float64) Grid {
	if itemCount <= 0 {
		return Grid{Rows: 1, Cols: 1}
	}

	availableWidth := screenWidth - gridHorizontalPadding
	availableHeight := screenHeight - gridVerticalPadding
	aspect := availableWidth / availableHeight

	best := Grid{Rows: 1, Cols: itemCount}
	bestScore := math.Inf(1)
	for rows := 1; rows <= itemCount; rows++ {
		cols := (itemCount + rows - 1) / rows
		empty := rows*cols - itemCount
		score := math.Abs(float64(cols)/float64(rows)-aspect) + float64(empty)*emptyCellPenalty
		if score < bestScore {
			bestScore = score
			best = Grid{Rows: rows, Cols: cols}
		}
	}
	return best
}
