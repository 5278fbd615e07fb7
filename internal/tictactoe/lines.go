package tictactoe

import "github.com/HarshilD05/Super-XO/internal/entity"

// WinCombos lists the winning lines in detection order: rows, columns, diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner returns the mark of the first complete line, or entity.Empty.
// It works on any nine cells: a board, or the winners of nine boards.
func Winner(cells [9]entity.Mark) entity.Mark {
	for _, combo := range WinCombos {
		a, b, c := cells[combo[0]], cells[combo[1]], cells[combo[2]]
		if a != entity.Empty && a == b && b == c {
			return a
		}
	}

	return entity.Empty
}
