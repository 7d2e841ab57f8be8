package game

import "caro/internal/config"

// BestMove picks the empty cell with the highest attack + defence score for
// bot. Ties go to the first cell in row-major order. An empty board yields
// the centre cell. ok is false when the board is full.
func BestMove(b Board, bot, opponent Cell, w config.Weights) (mv Move, ok bool) {
	if b.IsEmpty() {
		return Move{Row: b.Size / 2, Col: b.Size / 2}, b.Size > 0
	}

	var bestScore int64 = -1
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			if b.Cells[r][c] != Empty {
				continue
			}
			if score := HeuristicScore(b, r, c, bot, opponent, w); score > bestScore {
				bestScore = score
				mv = Move{Row: r, Col: c}
				ok = true
			}
		}
	}
	return mv, ok
}

// HeuristicScore rates playing bot at the empty cell (row, col).
func HeuristicScore(b Board, row, col int, bot, opponent Cell, w config.Weights) int64 {
	attack := potential(b, row, col, bot, w.Attack)
	defend := potential(b, row, col, opponent, w.Defend)
	return attack + int64(float64(defend)*w.DefenseFactor)
}

// potential sums, over the four axes, the weight of the run v would own
// through (row, col). A run closed at both ends can never reach five and
// scores nothing.
func potential(b Board, row, col int, v Cell, table [6]int64) int64 {
	var total int64
	for _, d := range axes {
		count := 1
		blocked := 0
		for _, sign := range [2]int{1, -1} {
			for i := 1; i < WinLength; i++ {
				r, c := row+sign*d[0]*i, col+sign*d[1]*i
				if !b.In(r, c) {
					blocked++
					break
				}
				if b.Cells[r][c] == v {
					count++
					continue
				}
				if b.Cells[r][c] != Empty {
					blocked++
				}
				break
			}
		}
		if blocked < 2 {
			total += table[min(count, WinLength)]
		}
	}
	return total
}
