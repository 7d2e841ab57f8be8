package game

// Cell is the content of one board square.
type Cell int

const (
	Empty Cell = iota
	X          // host symbol
	O          // guest symbol
)

const (
	WinLength    = 5
	MinBoardSize = 5
	MaxBoardSize = 20
)

// Board is a square grid indexed as Cells[row][col].
type Board struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

func NewBoard(size int) Board {
	if size <= 0 {
		size = MinBoardSize
	}

	c := make([][]Cell, size)
	for i := range c {
		c[i] = make([]Cell, size)
	}

	return Board{
		Size:  size,
		Cells: c,
	}
}

func (b Board) In(row, col int) bool {
	return row >= 0 && row < b.Size && col >= 0 && col < b.Size
}

// Place writes v at (row, col). It reports false and leaves the board
// untouched when the cell is out of range or already occupied.
func (b *Board) Place(row, col int, v Cell) bool {
	if !b.In(row, col) || b.Cells[row][col] != Empty {
		return false
	}
	b.Cells[row][col] = v
	return true
}

// IsEmpty reports whether no symbol has been placed yet.
func (b Board) IsEmpty() bool {
	for _, row := range b.Cells {
		for _, cell := range row {
			if cell != Empty {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy safe to hand to another goroutine.
func (b Board) Clone() Board {
	c := make([][]Cell, len(b.Cells))
	for i, row := range b.Cells {
		c[i] = append([]Cell(nil), row...)
	}
	return Board{Size: b.Size, Cells: c}
}

type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
