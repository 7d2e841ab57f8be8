package game

// axes are the four line directions as (dRow, dCol): horizontal, vertical
// and both diagonals.
var axes = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWin reports whether the symbol just placed at (row, col) completes
// a run of WinLength or more. Only lines through the placed cell are
// inspected.
func CheckWin(b Board, row, col int, v Cell) bool {
	if v == Empty || !b.In(row, col) {
		return false
	}
	for _, d := range axes {
		if runThrough(b, row, col, d, v) >= WinLength {
			return true
		}
	}
	return false
}

// runThrough counts contiguous v cells on the axis d through (row, col),
// the cell itself included.
func runThrough(b Board, row, col int, d [2]int, v Cell) int {
	count := 1
	for i := 1; i < WinLength; i++ {
		r, c := row+d[0]*i, col+d[1]*i
		if !b.In(r, c) || b.Cells[r][c] != v {
			break
		}
		count++
	}
	for i := 1; i < WinLength; i++ {
		r, c := row-d[0]*i, col-d[1]*i
		if !b.In(r, c) || b.Cells[r][c] != v {
			break
		}
		count++
	}
	return count
}

// IsFull reports whether no empty cell remains.
func IsFull(b Board) bool {
	for _, row := range b.Cells {
		for _, cell := range row {
			if cell == Empty {
				return false
			}
		}
	}
	return true
}
