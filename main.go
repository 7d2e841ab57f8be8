package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"caro/internal/config"
	"caro/internal/game"
)

// Console match against the bot heuristic. You play X and move first.
func main() {
	size := game.MinBoardSize * 3
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n >= game.MinBoardSize && n <= game.MaxBoardSize {
			size = n
		}
	}

	b := game.NewBoard(size)
	w := config.DefaultWeights()
	reader := bufio.NewReader(os.Stdin)

	for {
		printBoard(b)
		fmt.Println("Your move: row col (1-based)")
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nBye.")
			return
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			fmt.Println("Bad format. Try again.")
			continue
		}
		r, errR := strconv.Atoi(parts[0])
		c, errC := strconv.Atoi(parts[1])
		if errR != nil || errC != nil || !b.Place(r-1, c-1, game.X) {
			fmt.Println("Invalid move. Try again.")
			continue
		}
		if game.CheckWin(b, r-1, c-1, game.X) {
			printBoard(b)
			fmt.Println("You win!")
			return
		}
		if game.IsFull(b) {
			printBoard(b)
			fmt.Println("Draw.")
			return
		}

		mv, ok := game.BestMove(b, game.O, game.X, w)
		if !ok {
			fmt.Println("Draw.")
			return
		}
		b.Place(mv.Row, mv.Col, game.O)
		fmt.Printf("Bot plays: %d %d\n", mv.Row+1, mv.Col+1)
		if game.CheckWin(b, mv.Row, mv.Col, game.O) {
			printBoard(b)
			fmt.Println("Bot wins.")
			return
		}
		if game.IsFull(b) {
			printBoard(b)
			fmt.Println("Draw.")
			return
		}
	}
}

func printBoard(b game.Board) {
	fmt.Print("   ")
	for c := 0; c < b.Size; c++ {
		fmt.Printf("%2d ", c+1)
	}
	fmt.Println()
	for r := 0; r < b.Size; r++ {
		fmt.Printf("%2d ", r+1)
		for c := 0; c < b.Size; c++ {
			switch b.Cells[r][c] {
			case game.X:
				fmt.Print(" X ")
			case game.O:
				fmt.Print(" O ")
			default:
				fmt.Print(" . ")
			}
		}
		fmt.Println()
	}
}
